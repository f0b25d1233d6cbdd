package model

import (
	"fmt"
	"time"
)

// Direction reports whether a transaction increases or decreases the balance.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// Category is the closed set of transaction categories. Categories keep their
// Indonesian display names because that is what ends up in the spreadsheet
// and in bot replies.
type Category string

const (
	CategoryMakan     Category = "Makan"
	CategoryTransport Category = "Transport"
	CategoryBelanja   Category = "Belanja"
	CategoryTagihan   Category = "Tagihan"
	CategoryHiburan   Category = "Hiburan"
	CategoryKesehatan Category = "Kesehatan"
	CategoryPemasukan Category = "Pemasukan"
	CategoryLainnya   Category = "Lainnya"
)

// Transaction is a single recorded income or expense. Transactions are
// immutable once created; corrections are recorded as new transactions.
type Transaction struct {
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"` // whole rupiah, always > 0
	Direction     Direction `json:"direction"`
	Category      Category  `json:"category"`
	Description   string    `json:"description"`
	Detail        string    `json:"detail,omitempty"` // receipt line items, if any
	PhotoURL      string    `json:"photo_url,omitempty"`
	Source        string    `json:"source"` // who reported it
	CreatedAt     time.Time `json:"created_at"`
}

// SignedAmount returns the amount with expense negated, the convention used
// in the spreadsheet's Jumlah column.
func (t *Transaction) SignedAmount() int64 {
	if t.Direction == DirectionExpense {
		return -t.Amount
	}
	return t.Amount
}

// ConfirmationText renders the acknowledgement sent back to the reporter.
func (t *Transaction) ConfirmationText() string {
	emoji, label, sign := "💸", "PENGELUARAN", "-"
	if t.Direction == DirectionIncome {
		emoji, label, sign = "💰", "PEMASUKAN", "+"
	}

	msg := fmt.Sprintf(
		"%s *%s TERCATAT!*\n\n"+
			"📊 Kategori: %s\n"+
			"💵 Jumlah: %s Rp %s\n"+
			"📝 Keterangan: %s\n"+
			"🕐 Waktu: %s",
		emoji, label,
		t.Category,
		sign, FormatRupiah(t.Amount),
		t.Description,
		t.CreatedAt.Format("02/01/2006 15:04"),
	)
	if t.Detail != "" {
		msg += "\n\n📋 *Detail:*\n" + t.Detail
	}
	return msg
}

// FormatRupiah renders n with dots as thousand separators ("25.000").
func FormatRupiah(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "." + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}
