package bot

import (
	"fmt"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hanifmaulana/kasbot/internal/model"
	"github.com/hanifmaulana/kasbot/internal/parser"
	"github.com/hanifmaulana/kasbot/internal/receipt"
)

func TestReplyForParseError(t *testing.T) {
	if got := replyForParseError(fmt.Errorf("Parse: %w", parser.ErrNoAmount)); !strings.Contains(got, "jumlah") {
		t.Errorf("no-amount reply = %q", got)
	}
	if got := replyForParseError(fmt.Errorf("Parse: %w", parser.ErrEmptyDescription)); !strings.Contains(got, "keterangan") {
		t.Errorf("empty-description reply = %q", got)
	}
}

func TestSenderName(t *testing.T) {
	tests := []struct {
		name string
		from *tgbotapi.User
		want string
	}{
		{"username preferred", &tgbotapi.User{UserName: "hanif", FirstName: "Hanif"}, "hanif"},
		{"full name fallback", &tgbotapi.User{FirstName: "Hanif", LastName: "Maulana"}, "Hanif Maulana"},
		{"first name only", &tgbotapi.User{FirstName: "Hanif"}, "Hanif"},
		{"no sender", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &tgbotapi.Message{From: tt.from}
			if got := senderName(msg); got != tt.want {
				t.Errorf("senderName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransactionFromReceipt(t *testing.T) {
	rec := &receipt.Receipt{
		Merchant: "Warteg Bahari",
		Total:    47500,
		Items:    []receipt.Item{{Name: "Nasi ayam", Price: 20000}},
	}

	tx := transactionFromReceipt(rec, "", "hanif", "gs://bucket/receipts/x")
	if tx.Amount != 47500 {
		t.Errorf("amount = %d, want 47500", tx.Amount)
	}
	if tx.Direction != model.DirectionExpense {
		t.Errorf("direction = %q, want expense", tx.Direction)
	}
	if tx.Description != "Warteg Bahari" {
		t.Errorf("description = %q", tx.Description)
	}
	if tx.Category != model.CategoryMakan {
		t.Errorf("category = %q, want Makan (warteg keyword)", tx.Category)
	}
	if tx.PhotoURL != "gs://bucket/receipts/x" {
		t.Errorf("photo url = %q", tx.PhotoURL)
	}
	if !strings.Contains(tx.Detail, "Nasi ayam") {
		t.Errorf("detail = %q", tx.Detail)
	}
}

func TestTransactionFromReceiptCaptionWins(t *testing.T) {
	rec := &receipt.Receipt{Merchant: "PT Sumber Rejeki", Total: 120000}
	tx := transactionFromReceipt(rec, "belanja bulanan", "hanif", "")
	if tx.Description != "belanja bulanan" {
		t.Errorf("description = %q, want the caption", tx.Description)
	}
	if tx.Category != model.CategoryBelanja {
		t.Errorf("category = %q, want Belanja", tx.Category)
	}
}
