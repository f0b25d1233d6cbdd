package parser

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNoAmount is returned when a message contains no recognizable amount
// expression. Callers must treat this as "message carries no transaction".
var ErrNoAmount = errors.New("no amount found")

// minBareDigits is the minimum number of digits for a bare numeral (no
// multiplier suffix) to be accepted as a currency amount. Shorter numerals
// are too ambiguous to be money.
const minBareDigits = 3

// Shorthand multiplier suffixes, informal Indonesian numeral writing.
// "15rb" = 15 000, "50k" = 50 000, "1.5jt" = 1 500 000.
var multiplierFactors = map[string]int64{
	"rb":   1_000,
	"ribu": 1_000,
	"k":    1_000,
	"jt":   1_000_000,
	"juta": 1_000_000,
}

// AmountExpression is a resolved amount found inside a message.
type AmountExpression struct {
	// Span is the exact substring of the original text that matched,
	// so the caller can strip it out of the description.
	Span string
	// Numeral is the normalized numeral component ("15", "1.5").
	Numeral string
	// Multiplier is the resolved scale factor; 1 when no suffix was present.
	Multiplier int64
	// Value is the amount in whole rupiah.
	Value int64
}

// ExtractAmount scans text for the first (leftmost) valid amount expression
// and resolves it. The suffix may be glued to the numeral ("15rb") or be the
// adjacent token ("1.5 juta"). A comma is accepted as a decimal separator.
func ExtractAmount(text string) (AmountExpression, error) {
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		lower := strings.ReplaceAll(strings.ToLower(tok), ",", ".")

		numeral, suffix, ok := splitNumeral(lower)
		if !ok {
			continue
		}

		if suffix != "" {
			factor, known := multiplierFactors[suffix]
			if !known {
				// Numeral glued to an unknown word ("10x", "3pcs").
				continue
			}
			value, err := resolve(numeral, factor)
			if err != nil {
				continue
			}
			return AmountExpression{Span: tok, Numeral: numeral, Multiplier: factor, Value: value}, nil
		}

		// Bare numeral. A detached suffix in the next token still counts.
		if i+1 < len(tokens) {
			next := strings.ToLower(tokens[i+1])
			if factor, known := multiplierFactors[next]; known {
				value, err := resolve(numeral, factor)
				if err == nil {
					return AmountExpression{
						Span:       tok + " " + tokens[i+1],
						Numeral:    numeral,
						Multiplier: factor,
						Value:      value,
					}, nil
				}
			}
		}

		// No suffix anywhere: accept at face value only for plain integers
		// with enough digits to plausibly be money.
		if strings.Contains(numeral, ".") || len(numeral) < minBareDigits {
			continue
		}
		value, err := resolve(numeral, 1)
		if err != nil {
			continue
		}
		return AmountExpression{Span: tok, Numeral: numeral, Multiplier: 1, Value: value}, nil
	}
	return AmountExpression{}, ErrNoAmount
}

// splitNumeral splits a token into its leading numeral component and the
// trailing suffix candidate. ok is false when the token does not start with a
// digit or the numeral is malformed.
func splitNumeral(tok string) (numeral, suffix string, ok bool) {
	if tok == "" || tok[0] < '0' || tok[0] > '9' {
		return "", "", false
	}
	end := 0
	for end < len(tok) && (tok[end] >= '0' && tok[end] <= '9' || tok[end] == '.') {
		end++
	}
	numeral = tok[:end]
	// Reject "1.2.3" and trailing separators like "5000."
	if strings.Count(numeral, ".") > 1 || strings.HasSuffix(numeral, ".") {
		return "", "", false
	}
	return numeral, tok[end:], true
}

// resolve computes numeral × factor rounded to the nearest whole rupiah.
// Zero is rejected: a zero-value amount is not a transaction.
func resolve(numeral string, factor int64) (int64, error) {
	f, err := strconv.ParseFloat(numeral, 64)
	if err != nil {
		return 0, err
	}
	value := int64(math.Round(f * float64(factor)))
	if value <= 0 {
		return 0, errors.New("non-positive amount")
	}
	return value, nil
}
