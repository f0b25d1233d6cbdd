// Package parser converts free-form Indonesian transaction messages
// ("makan siang 25rb", "gaji 5jt") into structured transaction records.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hanifmaulana/kasbot/internal/model"
)

// ErrEmptyDescription is returned when a message contains an amount but no
// descriptive text around it. A bare number carries no category signal and is
// not accepted as a valid entry.
var ErrEmptyDescription = errors.New("no description besides the amount")

// RawMessage is a single inbound message before parsing.
type RawMessage struct {
	Text       string
	Sender     string
	ReceivedAt time.Time
}

// Parser turns raw messages into transactions. Parsing is pure: it performs
// no I/O, so a single Parser is safe for concurrent use.
type Parser struct {
	now func() time.Time
}

// New creates a Parser using the wall clock.
func New() *Parser {
	return &Parser{now: time.Now}
}

// NewWithClock creates a Parser with an injected clock.
func NewWithClock(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// Parse extracts the amount, direction and category from msg and assembles a
// transaction. It fails with ErrNoAmount when no amount expression is found
// and with ErrEmptyDescription when the amount is all the message contains.
func (p *Parser) Parse(msg RawMessage) (*model.Transaction, error) {
	expr, err := ExtractAmount(msg.Text)
	if err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}

	description := stripSpan(msg.Text, expr.Span)
	if description == "" {
		return nil, fmt.Errorf("Parse: %w", ErrEmptyDescription)
	}

	// Classification runs on the description with the amount span removed,
	// so the amount token itself cannot masquerade as a category keyword.
	direction := model.DirectionExpense
	category := Classify(description)
	if IsIncome(description) {
		direction = model.DirectionIncome
		category = model.CategoryPemasukan
	}

	return &model.Transaction{
		TransactionID: uuid.New().String(),
		Amount:        expr.Value,
		Direction:     direction,
		Category:      category,
		Description:   description,
		Source:        msg.Sender,
		CreatedAt:     p.now(),
	}, nil
}

// stripSpan removes the first occurrence of the matched amount span from text
// and collapses the remaining whitespace.
func stripSpan(text, span string) string {
	cleaned := strings.Replace(text, span, " ", 1)
	return strings.Join(strings.Fields(cleaned), " ")
}
