package gocardless

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/shunichi-ikebuchi/payout-sync/pkg/journal"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/payout"
)

const (
	// PayoutSourceName identifies payout-level reconciliation.
	PayoutSourceName = "gocardless"
	// BillSourceName identifies the legacy bill-level reconciliation.
	BillSourceName = "gocardless-bills"

	// ExemptTaxType is the tax type of GoCardless fees.
	ExemptTaxType = "EXEMPTINPUT"

	// currency is the only currency the legacy API collects in.
	currency = "GBP"
)

// Posted journals are found again through these narrations; do not change them.
var (
	payoutMarker = journal.NewMarker("GoCardless payout", `[0-9A-Z]+`)
	billMarker   = journal.NewMarker("GoCardless bill", `[0-9A-Z]+`)
)

// Accounts holds the ledger account codes GoCardless journals post to.
type Accounts struct {
	Sales      string
	Commission string
	Clearing   string // GoCardless clearing / bank account
}

// PayoutSource reconciles GoCardless payouts paid inside the window.
type PayoutSource struct {
	client   *Client
	accounts Accounts
}

// NewPayoutSource creates a new PayoutSource.
func NewPayoutSource(client *Client, accounts Accounts) *PayoutSource {
	return &PayoutSource{client: client, accounts: accounts}
}

// Name implements reconcile.Source.
func (s *PayoutSource) Name() string {
	return PayoutSourceName
}

// Marker implements reconcile.Source.
func (s *PayoutSource) Marker() *journal.Marker {
	return payoutMarker
}

// Payouts yields payouts whose paid_at falls strictly inside the window.
func (s *PayoutSource) Payouts(ctx context.Context, window payout.Window) iter.Seq2[payout.Record, error] {
	return func(yield func(payout.Record, error) bool) {
		for p, err := range s.client.Payouts(ctx) {
			if err != nil {
				yield(payout.Record{}, err)
				return
			}
			if !window.Contains(p.PaidAt) {
				continue
			}
			if !yield(RecordFromPayout(p), nil) {
				return
			}
		}
	}
}

// Build implements reconcile.Source.
func (s *PayoutSource) Build(rec payout.Record) (journal.Entry, error) {
	return buildEntry(payoutMarker.Narration(rec.ID), rec, s.accounts, "")
}

// RecordFromPayout normalizes a payout. The payout amount is net of fees, so
// gross sales are amount plus fees.
func RecordFromPayout(p Payout) payout.Record {
	return payout.Record{
		ID:       p.ID,
		Date:     p.PaidAt,
		Currency: currency,
		Gross:    p.Amount.Add(p.TransactionFees),
		Fee:      p.TransactionFees,
		Net:      p.Amount,
	}
}

// BillSource reconciles withdrawn GoCardless bills one journal per bill.
//
// Bills are selected by status only, with no time filter. A withdrawn bill
// whose journal has aged out of the ledger lookback is therefore posted
// again; such bills are logged as warnings.
type BillSource struct {
	client   *Client
	accounts Accounts
	logger   *slog.Logger
}

// NewBillSource creates a new BillSource.
func NewBillSource(client *Client, accounts Accounts, logger *slog.Logger) *BillSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BillSource{client: client, accounts: accounts, logger: logger}
}

// Name implements reconcile.Source.
func (s *BillSource) Name() string {
	return BillSourceName
}

// Marker implements reconcile.Source.
func (s *BillSource) Marker() *journal.Marker {
	return billMarker
}

// Payouts yields every withdrawn bill, with the customer e-mail attached.
func (s *BillSource) Payouts(ctx context.Context, window payout.Window) iter.Seq2[payout.Record, error] {
	return func(yield func(payout.Record, error) bool) {
		emails := make(map[string]string)

		for bill, err := range s.client.Bills(ctx) {
			if err != nil {
				yield(payout.Record{}, err)
				return
			}
			if bill.Status != BillStatusWithdrawn {
				continue
			}

			email, err := s.userEmail(ctx, emails, bill.UserID)
			if err != nil {
				yield(payout.Record{}, fmt.Errorf("failed to get user of bill %s: %w", bill.ID, err))
				return
			}

			rec := RecordFromBill(bill, email)
			if !window.Contains(rec.Date) {
				s.logger.Warn("Withdrawn bill outside the reconciliation window",
					"payout_id", rec.ID, "date", rec.Date.Format("2006-01-02"))
			}

			if !yield(rec, nil) {
				return
			}
		}
	}
}

// userEmail returns the e-mail of a user, caching lookups for the run.
func (s *BillSource) userEmail(ctx context.Context, cache map[string]string, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}
	if email, ok := cache[userID]; ok {
		return email, nil
	}

	user, err := s.client.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	cache[userID] = user.Email
	return user.Email, nil
}

// Build implements reconcile.Source.
func (s *BillSource) Build(rec payout.Record) (journal.Entry, error) {
	salesDescription := ""
	if rec.Counterparty != "" {
		salesDescription = fmt.Sprintf("Payment from %s", rec.Counterparty)
	}
	return buildEntry(billMarker.Narration(rec.ID), rec, s.accounts, salesDescription)
}

// RecordFromBill normalizes a bill. Net is amount minus GoCardless fees so
// the journal balances against the reported gross.
func RecordFromBill(b Bill, email string) payout.Record {
	date := b.CreatedAt
	if b.PaidAt != nil && !b.PaidAt.IsZero() {
		date = *b.PaidAt
	}

	cur := b.Currency
	if cur == "" {
		cur = currency
	}

	return payout.Record{
		ID:           b.ID,
		Date:         date,
		Currency:     cur,
		Gross:        b.Amount,
		Fee:          b.GoCardlessFees,
		Net:          b.Amount.Sub(b.GoCardlessFees),
		Counterparty: email,
	}
}

// buildEntry builds the sales / commission / clearing journal shared by
// payouts and bills.
func buildEntry(narration string, rec payout.Record, accounts Accounts, salesDescription string) (journal.Entry, error) {
	entry := journal.Entry{
		Narration:       narration,
		Status:          journal.StatusPosted,
		Date:            rec.Date,
		LineAmountTypes: journal.LineAmountTypesInclusive,
		Lines: []journal.Line{
			{
				Amount:      rec.Gross.Neg(),
				AccountCode: accounts.Sales,
				Description: salesDescription,
			},
			{
				Amount:      rec.Fee,
				AccountCode: accounts.Commission,
				TaxType:     ExemptTaxType,
			},
			{
				Amount:      rec.Net,
				AccountCode: accounts.Clearing,
			},
		},
	}
	return entry, entry.Validate()
}
