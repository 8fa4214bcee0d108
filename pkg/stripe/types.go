// Package stripe provides a Stripe transfers client and the Stripe payout
// source for reconciliation.
package stripe

// Transfer represents a transfer of the Stripe balance to the merchant's bank
// account. Amounts are in minor units.
type Transfer struct {
	ID       string  `json:"id"`
	Object   string  `json:"object"`
	Created  int64   `json:"created"` // Unix timestamp
	Currency string  `json:"currency"`
	Amount   int64   `json:"amount"`
	Status   string  `json:"status,omitempty"`
	Summary  Summary `json:"summary"`
}

// Summary breaks a transfer down into charges and refunds.
type Summary struct {
	ChargeGross int64 `json:"charge_gross"`
	ChargeFees  int64 `json:"charge_fees"`
	ChargeCount int   `json:"charge_count"`
	RefundGross int64 `json:"refund_gross"`
	RefundFees  int64 `json:"refund_fees"`
	RefundCount int   `json:"refund_count"`
}

// TransferList represents a page of the /v1/transfers endpoint.
type TransferList struct {
	Object  string     `json:"object"`
	Data    []Transfer `json:"data"`
	HasMore bool       `json:"has_more"`
}

// ErrorResponse represents an error response from the Stripe API.
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
		Message string `json:"message"`
	} `json:"error"`
}
