package stripe

import (
	"context"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/payout-sync/pkg/journal"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/payout"
)

// SourceName identifies Stripe transfers in logs and run history.
const SourceName = "stripe"

// Posted journals are found again through this narration; do not change it.
var transferMarker = journal.NewMarker("Stripe payout", `tr_[0-9A-Za-z]+`)

// Accounts holds the ledger account codes Stripe journals post to.
type Accounts struct {
	Sales                string
	Commission           string
	Clearing             string // Stripe balance / bank clearing account
	ReverseChargeTaxType string // Tax type applied to Stripe fees
}

// TransferSource reconciles Stripe transfers in the ledger base currency.
type TransferSource struct {
	client       *Client
	accounts     Accounts
	baseCurrency string
	logger       *slog.Logger
}

// NewTransferSource creates a new TransferSource.
func NewTransferSource(client *Client, accounts Accounts, baseCurrency string, logger *slog.Logger) *TransferSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferSource{
		client:       client,
		accounts:     accounts,
		baseCurrency: baseCurrency,
		logger:       logger,
	}
}

// Name implements reconcile.Source.
func (s *TransferSource) Name() string {
	return SourceName
}

// Marker implements reconcile.Source.
func (s *TransferSource) Marker() *journal.Marker {
	return transferMarker
}

// Payouts yields transfers created inside the window whose currency is the
// base currency. Transfers in other currencies are skipped because the ledger
// journals are single-currency.
func (s *TransferSource) Payouts(ctx context.Context, window payout.Window) iter.Seq2[payout.Record, error] {
	return func(yield func(payout.Record, error) bool) {
		skipped := 0
		defer func() {
			if skipped > 0 {
				s.logger.Info("Skipped transfers outside the base currency",
					"count", skipped, "base_currency", s.baseCurrency)
			}
		}()

		for transfer, err := range s.client.Transfers(ctx, window.Start, window.End) {
			if err != nil {
				yield(payout.Record{}, err)
				return
			}

			rec := RecordFromTransfer(transfer)
			if !window.Contains(rec.Date) {
				continue
			}
			if !strings.EqualFold(rec.Currency, s.baseCurrency) {
				s.logger.Debug("Skipping transfer", "payout_id", rec.ID, "currency", rec.Currency)
				skipped++
				continue
			}

			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Build implements reconcile.Source.
func (s *TransferSource) Build(rec payout.Record) (journal.Entry, error) {
	lines := []journal.Line{
		{
			Description: "Sales through Stripe",
			Amount:      rec.Gross.Neg(),
			AccountCode: s.accounts.Sales,
		},
		{
			Description: "Stripe commission",
			Amount:      rec.Fee,
			AccountCode: s.accounts.Commission,
			TaxType:     s.accounts.ReverseChargeTaxType,
		},
		{
			Description: "Payout received from Stripe",
			Amount:      rec.Net,
			AccountCode: s.accounts.Clearing,
		},
	}

	if rec.HasRefund() {
		lines = append(lines,
			journal.Line{
				Description: "Stripe refund",
				Amount:      rec.RefundGross.Neg(),
				AccountCode: s.accounts.Sales,
			},
			journal.Line{
				Description: "Stripe commission refund",
				Amount:      rec.RefundFee,
				AccountCode: s.accounts.Commission,
				TaxType:     s.accounts.ReverseChargeTaxType,
			},
		)
	}

	entry := journal.Entry{
		Narration:       transferMarker.Narration(rec.ID),
		Status:          journal.StatusPosted,
		Date:            rec.Date,
		LineAmountTypes: journal.LineAmountTypesInclusive,
		Lines:           lines,
	}
	return entry, entry.Validate()
}

// RecordFromTransfer normalizes a transfer. Minor units are scaled by 100
// exactly.
func RecordFromTransfer(t Transfer) payout.Record {
	return payout.Record{
		ID:          t.ID,
		Date:        time.Unix(t.Created, 0).UTC(),
		Currency:    t.Currency,
		Gross:       fromMinor(t.Summary.ChargeGross),
		Fee:         fromMinor(t.Summary.ChargeFees),
		Net:         fromMinor(t.Amount),
		RefundGross: fromMinor(t.Summary.RefundGross),
		RefundFee:   fromMinor(t.Summary.RefundFees),
	}
}

func fromMinor(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
