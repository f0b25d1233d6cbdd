// Package report renders transaction listings as PDF for the dashboard's
// export button.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/hanifmaulana/kasbot/internal/model"
)

const (
	fontFamily    = "Helvetica"
	fontSizeTitle = 14
	fontSizeBody  = 11
	fontSizeSmall = 10
)

var colWidths = [4]float64{30, 25, 85, 40}

// Render produces a PDF listing the given transactions with period totals.
// Transactions are printed in the order given.
func Render(txs []model.Transaction, from, to time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", fontSizeTitle)
	pdf.CellFormat(0, 10, "Laporan Keuangan", "", 1, "C", false, 0, "")

	pdf.SetFont(fontFamily, "", fontSizeSmall)
	period := fmt.Sprintf("Periode: %s - %s", from.Format("02/01/2006"), to.Format("02/01/2006"))
	pdf.CellFormat(0, 7, period, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont(fontFamily, "B", fontSizeBody)
	for i, h := range [4]string{"Tanggal", "Kategori", "Keterangan", "Jumlah"} {
		pdf.CellFormat(colWidths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(fontFamily, "", fontSizeSmall)
	var income, expense int64
	for _, tx := range txs {
		if tx.Direction == model.DirectionIncome {
			income += tx.Amount
		} else {
			expense += tx.Amount
		}
		amount := fmt.Sprintf("%s Rp %s", sign(tx.Direction), model.FormatRupiah(tx.Amount))
		pdf.CellFormat(colWidths[0], 7, tx.CreatedAt.Format("02/01/2006"), "1", 0, "", false, 0, "")
		pdf.CellFormat(colWidths[1], 7, string(tx.Category), "1", 0, "", false, 0, "")
		pdf.CellFormat(colWidths[2], 7, truncate(tx.Description, 48), "1", 0, "", false, 0, "")
		pdf.CellFormat(colWidths[3], 7, amount, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont(fontFamily, "B", fontSizeBody)
	pdf.CellFormat(0, 7, "Total Pemasukan: Rp "+model.FormatRupiah(income), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 7, "Total Pengeluaran: Rp "+model.FormatRupiah(expense), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 7, "Selisih: Rp "+model.FormatRupiah(income-expense), "", 1, "", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report.Render: %w", err)
	}
	return buf.Bytes(), nil
}

func sign(d model.Direction) string {
	if d == model.DirectionIncome {
		return "+"
	}
	return "-"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
