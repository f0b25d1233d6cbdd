package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/hanifmaulana/kasbot/internal/model"
)

func TestRender(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.Local)
	txs := []model.Transaction{
		{Amount: 5000000, Direction: model.DirectionIncome, Category: model.CategoryPemasukan, Description: "gaji", CreatedAt: now},
		{Amount: 25000, Direction: model.DirectionExpense, Category: model.CategoryMakan, Description: "makan siang", CreatedAt: now},
	}

	data, err := Render(txs, now.AddDate(0, -1, 0), now)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Render produced no bytes")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output does not look like a PDF: %q", data[:8])
	}
}

func TestRenderEmpty(t *testing.T) {
	now := time.Now()
	data, err := Render(nil, now, now)
	if err != nil {
		t.Fatalf("Render failed on empty input: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("empty report should still be a valid PDF")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 48); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	long := "a very long description that certainly exceeds the column width limit"
	got := truncate(long, 48)
	if len([]rune(got)) > 48 {
		t.Errorf("truncate did not shorten: %q", got)
	}
}
