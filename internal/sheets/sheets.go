// Package sheets persists transactions to a Google Sheets spreadsheet.
// The sheet is the system of record: one row per transaction plus a running
// balance column, readable by a human opening the spreadsheet directly.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/hanifmaulana/kasbot/internal/model"
)

const (
	// The spreadsheet API quota is ~100 requests per 100 seconds; transient
	// 429/5xx responses are retried a few times before giving up.
	retryAttempts = 3
	retryDelay    = 2 * time.Second

	headerRange = "A1:I1"
	dataRange   = "A2:I"
	saldoRange  = "I2:I"

	dateLayout = "02/01/2006"
	timeLayout = "15:04:05"
)

var headerRow = []interface{}{
	"Tanggal", "Waktu", "Tipe", "Kategori", "Jumlah", "Keterangan", "Detail", "Sumber", "Saldo",
}

// Store reads and writes transactions in a single spreadsheet.
type Store struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	log           zerolog.Logger
}

// New connects to the spreadsheet using a service-account credentials file
// and makes sure the header row exists.
func New(ctx context.Context, credentialsFile, spreadsheetID string, log zerolog.Logger) (*Store, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets.New: creating service: %w", err)
	}

	s := &Store{svc: svc, spreadsheetID: spreadsheetID, log: log}
	if err := s.ensureHeader(ctx); err != nil {
		// Not fatal: appends still work, the sheet just lacks a header.
		log.Warn().Err(err).Msg("could not ensure sheet header")
	}
	return s, nil
}

// Append writes tx as a new row, extending the running balance column.
func (s *Store) Append(ctx context.Context, tx *model.Transaction) error {
	balance, err := s.lastBalance(ctx)
	if err != nil {
		return fmt.Errorf("Append: reading last balance: %w", err)
	}
	balance += tx.SignedAmount()

	row := []interface{}{
		tx.CreatedAt.Format(dateLayout),
		tx.CreatedAt.Format(timeLayout),
		tipeFromDirection(tx.Direction),
		string(tx.Category),
		tx.SignedAmount(),
		tx.Description,
		tx.Detail,
		tx.Source,
		balance,
	}

	vr := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
	err = s.withRetry(ctx, "append", func() error {
		_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, dataRange, vr).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("Append: appending row: %w", err)
	}

	s.log.Info().
		Int64("amount", tx.Amount).
		Str("direction", string(tx.Direction)).
		Str("category", string(tx.Category)).
		Int64("balance", balance).
		Msg("transaction appended")
	return nil
}

// ReadAll returns every transaction row in the sheet, oldest first.
// Malformed rows are skipped with a warning rather than failing the read.
func (s *Store) ReadAll(ctx context.Context) ([]model.Transaction, error) {
	var resp *sheetsapi.ValueRange
	err := s.withRetry(ctx, "read_all", func() error {
		var err error
		resp, err = s.svc.Spreadsheets.Values.Get(s.spreadsheetID, dataRange).
			ValueRenderOption("UNFORMATTED_VALUE").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ReadAll: reading rows: %w", err)
	}

	txs := make([]model.Transaction, 0, len(resp.Values))
	for i, row := range resp.Values {
		tx, err := transactionFromRow(row)
		if err != nil {
			s.log.Warn().Err(err).Int("row", i+2).Msg("skipping malformed sheet row")
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Balance returns the last value of the running balance column, zero for an
// empty sheet.
func (s *Store) Balance(ctx context.Context) (int64, error) {
	balance, err := s.lastBalance(ctx)
	if err != nil {
		return 0, fmt.Errorf("Balance: %w", err)
	}
	return balance, nil
}

func (s *Store) lastBalance(ctx context.Context) (int64, error) {
	var resp *sheetsapi.ValueRange
	err := s.withRetry(ctx, "last_balance", func() error {
		var err error
		resp, err = s.svc.Spreadsheets.Values.Get(s.spreadsheetID, saldoRange).
			ValueRenderOption("UNFORMATTED_VALUE").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, err
	}

	for i := len(resp.Values) - 1; i >= 0; i-- {
		row := resp.Values[i]
		if len(row) == 0 {
			continue
		}
		f, err := asFloat(row[0])
		if err != nil {
			continue
		}
		return int64(math.Round(f)), nil
	}
	return 0, nil
}

func (s *Store) ensureHeader(ctx context.Context) error {
	var resp *sheetsapi.ValueRange
	err := s.withRetry(ctx, "read_header", func() error {
		var err error
		resp, err = s.svc.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 && resp.Values[0][0] == "Tanggal" {
		return nil
	}

	vr := &sheetsapi.ValueRange{Values: [][]interface{}{headerRow}}
	err = s.withRetry(ctx, "write_header", func() error {
		_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, headerRange, vr).
			ValueInputOption("RAW").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}
	s.log.Info().Msg("sheet header created")
	return nil
}

// withRetry runs call, retrying transient spreadsheet API failures.
func (s *Store) withRetry(ctx context.Context, op string, call func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = call()
		if err == nil || attempt >= retryAttempts || !isRetryable(err) {
			return err
		}
		s.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).
			Msg("sheets call failed, retrying")
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// isRetryable reports whether err is a rate-limit or server-side failure.
func isRetryable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429 || gerr.Code >= 500
	}
	return false
}

func tipeFromDirection(d model.Direction) string {
	if d == model.DirectionIncome {
		return "Pemasukan"
	}
	return "Pengeluaran"
}

// transactionFromRow maps a sheet row back to a transaction. The row layout
// mirrors headerRow; Saldo is derived state and is not mapped back.
func transactionFromRow(row []interface{}) (model.Transaction, error) {
	if len(row) < 6 {
		return model.Transaction{}, fmt.Errorf("row has %d cells, want at least 6", len(row))
	}

	createdAt, err := parseRowTime(asString(row[0]), asString(row[1]))
	if err != nil {
		return model.Transaction{}, err
	}

	direction := model.DirectionExpense
	if asString(row[2]) == "Pemasukan" {
		direction = model.DirectionIncome
	}

	jumlah, err := asFloat(row[4])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount: %w", err)
	}
	amount := int64(math.Round(math.Abs(jumlah)))
	if amount == 0 {
		return model.Transaction{}, fmt.Errorf("zero amount")
	}

	tx := model.Transaction{
		Amount:      amount,
		Direction:   direction,
		Category:    model.Category(asString(row[3])),
		Description: asString(row[5]),
		CreatedAt:   createdAt,
	}
	if len(row) > 6 {
		tx.Detail = asString(row[6])
	}
	if len(row) > 7 {
		tx.Source = asString(row[7])
	}
	return tx, nil
}

func parseRowTime(date, clock string) (time.Time, error) {
	if clock != "" {
		if t, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, time.Local); err == nil {
			return t, nil
		}
	}
	t, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", date, err)
	}
	return t, nil
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", s))
	}
}

func asFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		return strconv.ParseFloat(cleaned, 64)
	default:
		return 0, fmt.Errorf("unexpected cell type %T", v)
	}
}
