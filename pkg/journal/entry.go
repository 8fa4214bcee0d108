// Package journal provides the ledger journal entry model built from payouts.
package journal

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the ledger status of a manual journal.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusPosted Status = "POSTED"
)

// LineAmountTypes tells the ledger how to treat tax in line amounts.
const LineAmountTypesInclusive = "Inclusive"

var (
	// ErrUnbalanced is returned when the lines of an entry do not sum to zero.
	ErrUnbalanced = errors.New("journal lines do not balance")
	// ErrNoLines is returned for an entry without lines.
	ErrNoLines = errors.New("journal has no lines")
)

// Entry represents a manual journal entry.
type Entry struct {
	Narration       string
	Status          Status
	Date            time.Time
	LineAmountTypes string
	Lines           []Line
}

// Line represents a single debit (positive) or credit (negative) line.
type Line struct {
	Amount      decimal.Decimal
	AccountCode string
	TaxType     string // Optional
	Description string // Optional
}

// Balance returns the sum of all line amounts.
func (e Entry) Balance() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range e.Lines {
		sum = sum.Add(line.Amount)
	}
	return sum
}

// Validate checks that the entry has lines and that they net to zero.
func (e Entry) Validate() error {
	if len(e.Lines) == 0 {
		return ErrNoLines
	}
	if balance := e.Balance(); !balance.IsZero() {
		return fmt.Errorf("%w: %q is off by %s", ErrUnbalanced, e.Narration, balance.String())
	}
	return nil
}

// FormatAmount renders an amount with two fixed decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
