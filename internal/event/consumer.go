package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	pkgkafka "github.com/miska12345/OpenMarket-sub000/pkg/kafka"
)

// ConsumerGroupID identifies the settlement reconciliation consumer.
const ConsumerGroupID = "openmarket-settlement"

// SettlementResolver finalizes a pending transaction once the
// settlement network delivers its verdict.
type SettlementResolver interface {
	ResolveTransaction(ctx context.Context, transactionID string, status domain.SettlementStatus, reason string) error
}

// ConsumerHandler routes settlement result events to the resolver.
type ConsumerHandler struct {
	resolver SettlementResolver
	logger   *slog.Logger
}

// NewConsumerHandler creates a new settlement results consumer handler.
func NewConsumerHandler(resolver SettlementResolver, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// Handle processes an incoming Kafka event based on its event type.
func (h *ConsumerHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicSettlementResults:
		return h.handleSettlementResult(ctx, event)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (h *ConsumerHandler) handleSettlementResult(ctx context.Context, event *pkgkafka.Event) error {
	var data SettlementResultData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal settlement result: %w", err)
	}

	status := domain.SettlementStatus(data.Status)
	if status != domain.SettlementConfirmed && status != domain.SettlementFailed {
		h.logger.WarnContext(ctx, "ignoring non-terminal settlement result",
			slog.String("transaction_id", data.TransactionID),
			slog.String("status", data.Status),
		)
		return nil
	}

	h.logger.InfoContext(ctx, "settlement result received",
		slog.String("transaction_id", data.TransactionID),
		slog.String("status", data.Status),
	)

	return h.resolver.ResolveTransaction(ctx, data.TransactionID, status, data.Reason)
}
