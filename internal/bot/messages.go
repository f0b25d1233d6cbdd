package bot

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/hanifmaulana/kasbot/internal/model"
	"github.com/hanifmaulana/kasbot/internal/parser"
	"github.com/hanifmaulana/kasbot/internal/receipt"
)

const welcomeText = "👋 Halo! Selamat datang di kasbot!\n\n" +
	"Aku bisa bantu kamu catat keuangan dengan mudah.\n\n" +
	"📝 Cara pakai:\n" +
	"Kirim pesan biasa aja, misalnya:\n" +
	"• Makan siang 25000\n" +
	"• Beli kopi 15rb\n" +
	"• Gaji 5jt\n" +
	"• Grab ke mall 20k\n\n" +
	"📸 Atau kirim foto struk langsung!\n\n" +
	"⚙️ Command:\n" +
	"/start - Mulai bot\n" +
	"/help - Lihat bantuan\n" +
	"/saldo - Cek saldo"

const helpText = "📚 PANDUAN\n\n" +
	"Format pesan: tulis natural aja, aku akan deteksi otomatis.\n\n" +
	"Contoh pengeluaran:\n" +
	"• Makan siang 25000\n" +
	"• Beli baju 150rb\n" +
	"• Bensin 50k\n" +
	"• Bayar listrik 200ribu\n\n" +
	"Contoh pemasukan:\n" +
	"• Gaji 5jt\n" +
	"• Terima transfer 1.5jt\n" +
	"• Bonus 1juta\n\n" +
	"Singkatan yang didukung: rb, ribu, k (ribuan) dan jt, juta (jutaan)."

// replyForParseError maps a parse failure to the message shown to the user.
func replyForParseError(err error) string {
	switch {
	case errors.Is(err, parser.ErrNoAmount):
		return "🤔 Aku tidak menemukan jumlah uangnya.\n" +
			"Contoh: makan siang 25000, beli kopi 15rb"
	case errors.Is(err, parser.ErrEmptyDescription):
		return "🤔 Jumlahnya ketemu, tapi keterangannya kosong.\n" +
			"Tulis buat apa ya, contoh: beli kopi 15rb"
	default:
		return "⚠️ Pesanmu tidak bisa aku proses, coba tulis ulang ya."
	}
}

// senderName picks the reporter identity recorded on the transaction.
func senderName(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return ""
	}
	if msg.From.UserName != "" {
		return msg.From.UserName
	}
	return strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
}

// transactionFromReceipt builds the expense recorded for a receipt photo.
// The caption, when present, describes the purchase better than the
// merchant name and also drives categorization.
func transactionFromReceipt(rec *receipt.Receipt, caption, sender, photoURL string) *model.Transaction {
	description := strings.TrimSpace(caption)
	if description == "" {
		description = rec.Merchant
	}
	if description == "" {
		description = "Struk belanja"
	}

	category := parser.Classify(description + " " + rec.Merchant)

	return &model.Transaction{
		TransactionID: uuid.New().String(),
		Amount:        rec.Total,
		Direction:     model.DirectionExpense,
		Category:      category,
		Description:   description,
		Detail:        rec.DetailText(),
		PhotoURL:      photoURL,
		Source:        sender,
		CreatedAt:     time.Now(),
	}
}

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}
