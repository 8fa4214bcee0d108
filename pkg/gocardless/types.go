// Package gocardless provides a GoCardless (legacy v1 API) client and the
// GoCardless payout and bill sources for reconciliation.
package gocardless

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill statuses reported by the legacy API.
const (
	BillStatusPending    = "pending"
	BillStatusPaid       = "paid"
	BillStatusWithdrawn  = "withdrawn" // Funds transferred to the merchant
	BillStatusFailed     = "failed"
	BillStatusChargeback = "chargedback"
	BillStatusRefunded   = "refunded"
	BillStatusCancelled  = "cancelled"
)

// Payout represents a transfer of collected funds to the merchant's bank
// account. Amounts are decimal strings in major units.
type Payout struct {
	ID              string          `json:"id"`
	Amount          decimal.Decimal `json:"amount"`           // Net amount paid out
	TransactionFees decimal.Decimal `json:"transaction_fees"` // Fees withheld
	BankReference   string          `json:"bank_reference,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	PaidAt          time.Time       `json:"paid_at"`
}

// Bill represents a single direct debit collection.
type Bill struct {
	ID              string          `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	GoCardlessFees  decimal.Decimal `json:"gocardless_fees"`
	PartnerFees     decimal.Decimal `json:"partner_fees"`
	AmountMinusFees decimal.Decimal `json:"amount_minus_fees"`
	Currency        string          `json:"currency,omitempty"`
	Status          string          `json:"status"`
	Description     *string         `json:"description,omitempty"`
	UserID          string          `json:"user_id"`
	MerchantID      string          `json:"merchant_id"`
	PayoutID        *string         `json:"payout_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
}

// User represents a customer of the merchant.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ErrorResponse represents an error response from the GoCardless API.
type ErrorResponse struct {
	Error []string `json:"error"`
}
