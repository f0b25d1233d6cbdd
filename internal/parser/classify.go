package parser

import (
	"strings"

	"github.com/hanifmaulana/kasbot/internal/model"
)

// categoryRules maps each expense category to its keyword fragments.
// Order is the priority order: a description matching keywords of two
// categories is always classified as the one listed first here.
var categoryRules = []struct {
	category model.Category
	keywords []string
}{
	{model.CategoryMakan, []string{
		"makan", "sarapan", "lunch", "dinner", "nasi", "ayam", "soto", "bakso",
		"mie", "kopi", "teh", "minum", "snack", "jajan", "cemilan", "food",
		"geprek", "seblak", "warteg", "resto", "restoran", "cafe", "kedai",
		"lapar", "kenyang", "minuman",
	}},
	{model.CategoryTransport, []string{
		"transport", "grab", "gojek", "ojek", "taxi", "angkot", "bus",
		"bensin", "parkir", "tol", "kereta", "travel", "pergi", "pulang",
	}},
	{model.CategoryBelanja, []string{
		"belanja", "beli", "baju", "celana", "sepatu", "tas",
		"shopee", "tokped", "tokopedia", "lazada", "blibli", "toko",
		"shopping", "shop",
	}},
	{model.CategoryTagihan, []string{
		"listrik", "air", "pdam", "wifi", "internet", "pulsa", "paket data",
		"token", "bayar", "cicilan", "angsuran", "pln", "tagihan",
	}},
	{model.CategoryHiburan, []string{
		"nonton", "bioskop", "film", "game", "main", "liburan", "wisata",
		"netflix", "spotify", "steam", "tiket", "jalan-jalan",
	}},
	{model.CategoryKesehatan, []string{
		"obat", "dokter", "rumah sakit", "rs", "klinik", "vitamin",
		"apotek", "medical", "checkup", "berobat", "sakit",
	}},
}

// incomeKeywords mark a message as income rather than expense.
var incomeKeywords = []string{
	"gaji", "terima", "transfer", "bonus", "freelance",
	"pendapatan", "dapat", "masuk", "bayaran", "honor",
	"untung", "diterima", "income",
}

// Classify maps a description to an expense category. The scan is
// case-insensitive substring matching in fixed priority order; descriptions
// matching nothing fall back to Lainnya.
func Classify(description string) model.Category {
	lower := strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryLainnya
}

// IsIncome reports whether the description contains an income keyword.
func IsIncome(description string) bool {
	lower := strings.ToLower(description)
	for _, kw := range incomeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
