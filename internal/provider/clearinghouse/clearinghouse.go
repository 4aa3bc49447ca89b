// Package clearinghouse implements the settlement provider against an
// HTTP clearing house API. Calls go through a circuit breaker so a
// degraded clearing house fails checkouts fast instead of piling up
// timed-out requests.
package clearinghouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/provider"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
	"github.com/miska12345/OpenMarket-sub000/pkg/httpclient"
)

// Provider settles payments against a clearing house HTTP API.
type Provider struct {
	baseURL string
	apiKey  string
	client  *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// New creates a clearing house settlement provider.
func New(baseURL, apiKey string, client *httpclient.CircuitBreakerClient, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "clearinghouse"
}

type settleRequest struct {
	TransactionID string `json:"transaction_id"`
	PayerID       string `json:"payer_id"`
	PayeeOrgID    string `json:"payee_org_id"`
	Amount        int64  `json:"amount"`
	CurrencyID    string `json:"currency_id"`
	Note          string `json:"note,omitempty"`
}

type settleResponse struct {
	Ref           string `json:"ref"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason"`
}

// Settle submits the payment to the clearing house. An open circuit or
// transport failure comes back as ErrServiceUnavail; a rejected payment
// is a normal result with Status FAILED.
func (p *Provider) Settle(ctx context.Context, input *provider.SettleInput) (*provider.SettleResult, error) {
	body, err := json.Marshal(settleRequest{
		TransactionID: input.TransactionID,
		PayerID:       input.PayerID,
		PayeeOrgID:    input.PayeeOrgID,
		Amount:        input.Amount,
		CurrencyID:    input.CurrencyID,
		Note:          input.Note,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal settle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/settlements", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build settle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		p.logger.WarnContext(ctx, "clearing house unreachable",
			slog.String("transaction_id", input.TransactionID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.ServiceUnavailable("settlement provider unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, apperrors.ServiceUnavailable(fmt.Sprintf("settlement provider returned status %d", resp.StatusCode))
	}

	var sr settleResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode settle response: %w", err)
	}

	status, err := parseStatus(sr.Status)
	if err != nil {
		return nil, err
	}

	return &provider.SettleResult{
		ProviderRef:   sr.Ref,
		Status:        status,
		FailureReason: sr.FailureReason,
	}, nil
}

func parseStatus(s string) (domain.SettlementStatus, error) {
	switch domain.SettlementStatus(s) {
	case domain.SettlementConfirmed, domain.SettlementFailed, domain.SettlementPending:
		return domain.SettlementStatus(s), nil
	default:
		return "", fmt.Errorf("unknown settlement status %q", s)
	}
}
