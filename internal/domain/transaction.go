package domain

import "time"

// TransactionStatus tracks a payment transaction on the ledger.
type TransactionStatus string

const (
	// TransactionStatusOpen means a stepper holds the transaction and it
	// can still be committed or aborted.
	TransactionStatusOpen TransactionStatus = "OPEN"

	// TransactionStatusCommitted means the stepper finalized the
	// transaction successfully.
	TransactionStatusCommitted TransactionStatus = "COMMITTED"

	// TransactionStatusAborted means the stepper rolled the transaction
	// back and the payer was not charged.
	TransactionStatusAborted TransactionStatus = "ABORTED"
)

// Terminal reports whether the transaction can no longer change state.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusCommitted || s == TransactionStatusAborted
}

// SettlementStatus is the settlement provider's verdict on a payment.
type SettlementStatus string

const (
	SettlementConfirmed SettlementStatus = "CONFIRMED"
	SettlementFailed    SettlementStatus = "FAILED"
	// SettlementPending means the provider accepted the payment but the
	// outcome will arrive asynchronously.
	SettlementPending SettlementStatus = "PENDING"
)

// Transaction is one payer-to-payee transfer on the ledger. Amount is
// in minor currency units.
type Transaction struct {
	ID         string            `json:"id"`
	PayerID    string            `json:"payer_id"`
	PayeeOrgID string            `json:"payee_org_id"`
	Amount     int64             `json:"amount"`
	CurrencyID string            `json:"currency_id"`
	Note       string            `json:"note,omitempty"`
	Status     TransactionStatus `json:"status"`
	Settlement SettlementStatus  `json:"settlement,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
