package provider

import (
	"context"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
)

// SettleInput holds the parameters for settling a payment with the
// external settlement network.
type SettleInput struct {
	TransactionID string
	PayerID       string
	PayeeOrgID    string
	Amount        int64
	CurrencyID    string
	Note          string
}

// SettleResult holds the settlement network's verdict. A PENDING status
// means the outcome will arrive later on the settlement results topic.
type SettleResult struct {
	ProviderRef   string
	Status        domain.SettlementStatus
	FailureReason string
}

// SettlementProvider defines the interface for settlement network
// integrations.
type SettlementProvider interface {
	// Name returns the provider name (e.g., "mock", "clearinghouse").
	Name() string

	// Settle submits a payment for settlement. An error means the
	// provider could not be reached, not that the payment failed.
	Settle(ctx context.Context, input *SettleInput) (*SettleResult, error)
}
