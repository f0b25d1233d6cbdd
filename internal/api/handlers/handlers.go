// Package handlers implements the dashboard read API. Every endpoint reads
// through the shared cache; the dashboard never parses and never writes.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/hanifmaulana/kasbot/internal/api/middleware"
	"github.com/hanifmaulana/kasbot/internal/cache"
	"github.com/hanifmaulana/kasbot/internal/model"
	"github.com/hanifmaulana/kasbot/internal/report"
)

const defaultLimit = 50

// Store is the read side of the persistence store.
type Store interface {
	ReadAll(ctx context.Context) ([]model.Transaction, error)
}

// Handler serves the dashboard endpoints.
type Handler struct {
	store Store
	cache *cache.Cache
	log   zerolog.Logger
	now   func() time.Time
}

// New creates a Handler backed by store, with all reads going through c.
func New(store Store, c *cache.Cache, log zerolog.Logger) *Handler {
	return &Handler{store: store, cache: c, log: log, now: time.Now}
}

// Register wires the endpoints onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", get(h.Health))
	mux.HandleFunc("/api/transactions", get(h.ListTransactions))
	mux.HandleFunc("/api/summary", get(h.Summary))
	mux.HandleFunc("/api/trends", get(h.Trends))
	mux.HandleFunc("/api/monthly", get(h.Monthly))
	mux.HandleFunc("/api/balance", get(h.Balance))
	mux.HandleFunc("/api/categories", get(h.Categories))
	mux.HandleFunc("/api/export/pdf", get(h.ExportPDF))
}

func get(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		fn(w, r)
	}
}

// all returns every transaction, served from the cache.
func (h *Handler) all(ctx context.Context) ([]model.Transaction, error) {
	return h.cache.Get(ctx, "all", func(ctx context.Context) ([]model.Transaction, error) {
		return h.store.ReadAll(ctx)
	})
}

// period returns the transactions whose date falls inside [from, to],
// cached under a per-period key.
func (h *Handler) period(ctx context.Context, from, to civil.Date) ([]model.Transaction, error) {
	key := fmt.Sprintf("period:%s:%s", from, to)
	return h.cache.Get(ctx, key, func(ctx context.Context) ([]model.Transaction, error) {
		txs, err := h.store.ReadAll(ctx)
		if err != nil {
			return nil, err
		}
		return filterByDate(txs, from, to), nil
	})
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTransactions handles GET /api/transactions?start_date=&end_date=&limit=
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	limit := defaultLimit
	if s := query.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	txs, err := h.queryRange(ctx, query.Get("start_date"), query.Get("end_date"))
	if err != nil {
		h.writeReadError(w, err)
		return
	}

	// Newest first for the dashboard table.
	sorted := make([]model.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	middleware.WriteJSON(w, http.StatusOK, sorted)
}

// Summary handles GET /api/summary?period=today|week|month|all
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "all"
	}

	var (
		txs []model.Transaction
		err error
	)
	if period == "all" {
		txs, err = h.all(ctx)
	} else {
		from, to, perr := h.periodBounds(period)
		if perr != nil {
			middleware.WriteError(w, http.StatusBadRequest, perr.Error())
			return
		}
		txs, err = h.period(ctx, from, to)
	}
	if err != nil {
		h.writeReadError(w, err)
		return
	}

	income, expense := totals(txs)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"period":      period,
		"pemasukan":   income,
		"pengeluaran": expense,
		"net":         income - expense,
		"count":       len(txs),
	})
}

// Trends handles GET /api/trends?days=7 — daily income/expense buckets.
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := 7
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 366 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid days")
			return
		}
		days = n
	}

	today := civil.DateOf(h.now())
	from := today.AddDays(-(days - 1))

	txs, err := h.period(ctx, from, today)
	if err != nil {
		h.writeReadError(w, err)
		return
	}

	type bucket struct {
		Date        string `json:"date"`
		Pemasukan   int64  `json:"pemasukan"`
		Pengeluaran int64  `json:"pengeluaran"`
	}
	byDate := make(map[civil.Date]*bucket, days)
	buckets := make([]*bucket, 0, days)
	for d := from; !d.After(today); d = d.AddDays(1) {
		b := &bucket{Date: d.String()}
		byDate[d] = b
		buckets = append(buckets, b)
	}
	for _, tx := range txs {
		b, ok := byDate[civil.DateOf(tx.CreatedAt)]
		if !ok {
			continue
		}
		if tx.Direction == model.DirectionIncome {
			b.Pemasukan += tx.Amount
		} else {
			b.Pengeluaran += tx.Amount
		}
	}

	middleware.WriteJSON(w, http.StatusOK, buckets)
}

// Monthly handles GET /api/monthly?months=3 — month-over-month comparison.
func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	months := 3
	if s := r.URL.Query().Get("months"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 36 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid months")
			return
		}
		months = n
	}

	txs, err := h.all(ctx)
	if err != nil {
		h.writeReadError(w, err)
		return
	}

	type monthTotals struct {
		Month       string `json:"month"`
		Pemasukan   int64  `json:"pemasukan"`
		Pengeluaran int64  `json:"pengeluaran"`
		Net         int64  `json:"net"`
	}
	now := h.now()
	out := make([]*monthTotals, 0, months)
	byMonth := make(map[string]*monthTotals, months)
	for i := months - 1; i >= 0; i-- {
		m := now.AddDate(0, -i, 0).Format("2006-01")
		mt := &monthTotals{Month: m}
		byMonth[m] = mt
		out = append(out, mt)
	}
	for _, tx := range txs {
		mt, ok := byMonth[tx.CreatedAt.Format("2006-01")]
		if !ok {
			continue
		}
		if tx.Direction == model.DirectionIncome {
			mt.Pemasukan += tx.Amount
		} else {
			mt.Pengeluaran += tx.Amount
		}
		mt.Net = mt.Pemasukan - mt.Pengeluaran
	}

	middleware.WriteJSON(w, http.StatusOK, out)
}

// Balance handles GET /api/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	txs, err := h.all(r.Context())
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	var balance int64
	for i := range txs {
		balance += txs[i].SignedAmount()
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

// Categories handles GET /api/categories — expense totals per category.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	txs, err := h.all(r.Context())
	if err != nil {
		h.writeReadError(w, err)
		return
	}

	type catTotals struct {
		Category model.Category `json:"category"`
		Total    int64          `json:"total"`
		Count    int            `json:"count"`
	}
	byCat := make(map[model.Category]*catTotals)
	for _, tx := range txs {
		if tx.Direction != model.DirectionExpense {
			continue
		}
		ct, ok := byCat[tx.Category]
		if !ok {
			ct = &catTotals{Category: tx.Category}
			byCat[tx.Category] = ct
		}
		ct.Total += tx.Amount
		ct.Count++
	}

	out := make([]*catTotals, 0, len(byCat))
	for _, ct := range byCat {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })

	middleware.WriteJSON(w, http.StatusOK, out)
}

// ExportPDF handles GET /api/export/pdf?start_date=&end_date=
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	txs, err := h.queryRange(ctx, query.Get("start_date"), query.Get("end_date"))
	if err != nil {
		h.writeReadError(w, err)
		return
	}

	from, to := rangeOf(txs, h.now())
	data, err := report.Render(txs, from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to render PDF report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	filename := fmt.Sprintf("laporan-%s.pdf", h.now().Format("20060102"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// queryRange resolves optional start_date/end_date query params to a cached
// read: the whole sheet when both are empty, a period otherwise.
func (h *Handler) queryRange(ctx context.Context, startStr, endStr string) ([]model.Transaction, error) {
	if startStr == "" && endStr == "" {
		return h.all(ctx)
	}

	from := civil.DateOf(h.now()).AddDays(-365)
	to := civil.DateOf(h.now())
	if startStr != "" {
		d, err := civil.ParseDate(startStr)
		if err != nil {
			return nil, errBadDate
		}
		from = d
	}
	if endStr != "" {
		d, err := civil.ParseDate(endStr)
		if err != nil {
			return nil, errBadDate
		}
		to = d
	}
	return h.period(ctx, from, to)
}

var errBadDate = errors.New("invalid date, want YYYY-MM-DD")

// periodBounds maps a named period to a civil date range ending today.
func (h *Handler) periodBounds(period string) (civil.Date, civil.Date, error) {
	today := civil.DateOf(h.now())
	switch period {
	case "today":
		return today, today, nil
	case "week":
		return today.AddDays(-6), today, nil
	case "month":
		return today.AddDays(-29), today, nil
	default:
		return civil.Date{}, civil.Date{}, fmt.Errorf("unknown period %q", period)
	}
}

func (h *Handler) writeReadError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadDate) {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var miss *cache.MissError
	if errors.As(err, &miss) {
		h.log.Error().Err(err).Msg("Store unavailable and no cached value")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Data store temporarily unavailable, try again shortly")
		return
	}
	h.log.Error().Err(err).Msg("Failed to read transactions")
	middleware.WriteError(w, http.StatusInternalServerError, "Failed to read transactions")
}

func filterByDate(txs []model.Transaction, from, to civil.Date) []model.Transaction {
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		d := civil.DateOf(tx.CreatedAt)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func totals(txs []model.Transaction) (income, expense int64) {
	for _, tx := range txs {
		if tx.Direction == model.DirectionIncome {
			income += tx.Amount
		} else {
			expense += tx.Amount
		}
	}
	return income, expense
}

func rangeOf(txs []model.Transaction, fallback time.Time) (time.Time, time.Time) {
	if len(txs) == 0 {
		return fallback, fallback
	}
	from, to := txs[0].CreatedAt, txs[0].CreatedAt
	for _, tx := range txs[1:] {
		if tx.CreatedAt.Before(from) {
			from = tx.CreatedAt
		}
		if tx.CreatedAt.After(to) {
			to = tx.CreatedAt
		}
	}
	return from, to
}
