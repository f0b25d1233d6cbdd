package sheets

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/hanifmaulana/kasbot/internal/model"
)

func TestTransactionFromRow(t *testing.T) {
	row := []interface{}{
		"14/03/2025", "12:30:00", "Pengeluaran", "Makan", float64(-25000),
		"makan siang", "", "hanif", float64(975000),
	}
	tx, err := transactionFromRow(row)
	if err != nil {
		t.Fatalf("transactionFromRow failed: %v", err)
	}
	if tx.Amount != 25000 {
		t.Errorf("amount = %d, want 25000 (absolute value of signed cell)", tx.Amount)
	}
	if tx.Direction != model.DirectionExpense {
		t.Errorf("direction = %q, want expense", tx.Direction)
	}
	if tx.Category != model.CategoryMakan {
		t.Errorf("category = %q, want Makan", tx.Category)
	}
	if tx.Source != "hanif" {
		t.Errorf("source = %q, want hanif", tx.Source)
	}
	want := time.Date(2025, 3, 14, 12, 30, 0, 0, time.Local)
	if !tx.CreatedAt.Equal(want) {
		t.Errorf("created_at = %v, want %v", tx.CreatedAt, want)
	}
}

func TestTransactionFromRowIncome(t *testing.T) {
	row := []interface{}{
		"01/03/2025", "09:00:00", "Pemasukan", "Pemasukan", float64(5000000), "gaji",
	}
	tx, err := transactionFromRow(row)
	if err != nil {
		t.Fatalf("transactionFromRow failed: %v", err)
	}
	if tx.Direction != model.DirectionIncome {
		t.Errorf("direction = %q, want income", tx.Direction)
	}
	if tx.Amount != 5000000 {
		t.Errorf("amount = %d, want 5000000", tx.Amount)
	}
}

func TestTransactionFromRowMalformed(t *testing.T) {
	tests := []struct {
		name string
		row  []interface{}
	}{
		{"too short", []interface{}{"14/03/2025", "12:00:00"}},
		{"bad date", []interface{}{"yesterday", "12:00:00", "Pengeluaran", "Makan", float64(1000), "x"}},
		{"bad amount", []interface{}{"14/03/2025", "12:00:00", "Pengeluaran", "Makan", "banyak", "x"}},
		{"zero amount", []interface{}{"14/03/2025", "12:00:00", "Pengeluaran", "Makan", float64(0), "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := transactionFromRow(tt.row); err == nil {
				t.Error("expected an error for malformed row")
			}
		})
	}
}

func TestParseRowTimeDateOnly(t *testing.T) {
	// Rows edited by hand sometimes lose the time cell.
	got, err := parseRowTime("14/03/2025", "")
	if err != nil {
		t.Fatalf("parseRowTime failed: %v", err)
	}
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("parseRowTime = %v, want %v", got, want)
	}
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
	}{
		{float64(25000), 25000},
		{"25000", 25000},
		{"1,250,000", 1250000},
		{int64(-5000), -5000},
	}
	for _, tt := range tests {
		got, err := asFloat(tt.in)
		if err != nil {
			t.Errorf("asFloat(%v) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("asFloat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := asFloat([]string{"not", "a", "number"}); err == nil {
		t.Error("asFloat should reject non-numeric cells")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &googleapi.Error{Code: 429}, true},
		{"server error", &googleapi.Error{Code: 503}, true},
		{"bad request", &googleapi.Error{Code: 400}, false},
		{"not found", &googleapi.Error{Code: 404}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTipeFromDirection(t *testing.T) {
	if got := tipeFromDirection(model.DirectionIncome); got != "Pemasukan" {
		t.Errorf("income tipe = %q", got)
	}
	if got := tipeFromDirection(model.DirectionExpense); got != "Pengeluaran" {
		t.Errorf("expense tipe = %q", got)
	}
}
