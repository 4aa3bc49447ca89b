package mock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/provider"
)

// Provider is a mock settlement provider with a fixed outcome.
// It is intended for development and testing purposes.
type Provider struct {
	status domain.SettlementStatus
	reason string
}

// NewProvider creates a mock provider that always confirms.
func NewProvider() *Provider {
	return &Provider{status: domain.SettlementConfirmed}
}

// NewProviderWithOutcome creates a mock provider returning the given
// verdict for every settlement.
func NewProviderWithOutcome(status domain.SettlementStatus, reason string) *Provider {
	return &Provider{status: status, reason: reason}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// Settle simulates a settlement with the configured outcome.
func (p *Provider) Settle(_ context.Context, _ *provider.SettleInput) (*provider.SettleResult, error) {
	// Simulate a small processing delay.
	time.Sleep(50 * time.Millisecond)

	return &provider.SettleResult{
		ProviderRef:   "mock_stl_" + uuid.New().String(),
		Status:        p.status,
		FailureReason: p.reason,
	}, nil
}
