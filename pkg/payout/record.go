// Package payout provides the processor-agnostic payout record and the
// reconciliation window shared by all importers.
package payout

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lookback is the trailing span scanned on every run, both in the ledger and
// at the processor.
const Lookback = 300 * 24 * time.Hour

// Record is a payout normalized from a processor-specific object.
// Records are built once by a fetcher and passed by value afterwards.
type Record struct {
	ID           string    // Unique within the processor
	Date         time.Time // Paid or created time
	Currency     string    // ISO 4217 code as reported by the processor
	Gross        decimal.Decimal
	Fee          decimal.Decimal
	Net          decimal.Decimal
	RefundGross  decimal.Decimal // Zero when the processor reports no refunds
	RefundFee    decimal.Decimal
	Counterparty string // Customer e-mail for item-based payouts (optional)
}

// HasRefund reports whether the record carries a non-zero refund gross.
func (r Record) HasRefund() bool {
	return !r.RefundGross.IsZero()
}

// Window is the time span a run reconciles.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window of length lookback ending at now.
func NewWindow(now time.Time, lookback time.Duration) Window {
	return Window{
		Start: now.Add(-lookback),
		End:   now,
	}
}

// Contains reports whether t falls strictly between Start and End.
func (w Window) Contains(t time.Time) bool {
	return t.After(w.Start) && t.Before(w.End)
}
