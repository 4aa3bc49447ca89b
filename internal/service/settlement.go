package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
)

// SettlementService reconciles action-required orders once the
// settlement network delivers its asynchronous verdict. It runs the
// same commit/rollback branching the checkout applies synchronously: a
// confirmed settlement charges the buyer, a failed one returns the
// reserved stock.
type SettlementService struct {
	transactions repository.TransactionRepository
	accounts     repository.AccountRepository
	orders       repository.OrderRepository
	items        repository.ItemRepository
	events       EventPublisher
	logger       *slog.Logger
}

// NewSettlementService creates the settlement reconciliation service.
func NewSettlementService(
	transactions repository.TransactionRepository,
	accounts repository.AccountRepository,
	orders repository.OrderRepository,
	items repository.ItemRepository,
	events EventPublisher,
	logger *slog.Logger,
) *SettlementService {
	return &SettlementService{
		transactions: transactions,
		accounts:     accounts,
		orders:       orders,
		items:        items,
		events:       events,
		logger:       logger,
	}
}

// ResolveTransaction applies a terminal settlement verdict to a
// transaction that checkout left PENDING. Side effects run before the
// verdict is consumed, so a transient failure leaves the transaction
// PENDING and the consumer's redelivery starts over instead of finding
// the verdict already spent. The order status flip marks the side
// effects applied: a retry that finds the order terminal skips straight
// to consuming the verdict. Duplicate and late verdicts are ignored.
func (s *SettlementService) ResolveTransaction(ctx context.Context, transactionID string, status domain.SettlementStatus, reason string) error {
	if status != domain.SettlementConfirmed && status != domain.SettlementFailed {
		return fmt.Errorf("resolve transaction %s: %q is not a terminal settlement status", transactionID, status)
	}

	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", transactionID, err)
	}
	if tx.Status != domain.TransactionStatusCommitted || tx.Settlement != domain.SettlementPending {
		s.logger.InfoContext(ctx, "settlement verdict ignored",
			slog.String("transaction_id", transactionID),
			slog.String("status", string(status)),
		)
		return nil
	}

	order, err := s.orders.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("load order for transaction %s: %w", transactionID, err)
	}

	if order.Status == domain.OrderStatusPendingPayment {
		switch status {
		case domain.SettlementConfirmed:
			if err := s.accounts.Debit(ctx, tx.PayerID, tx.CurrencyID, tx.Amount); err != nil {
				return fmt.Errorf("debit payer %s for transaction %s: %w", tx.PayerID, transactionID, err)
			}
			if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPaymentConfirmed); err != nil {
				return fmt.Errorf("confirm order %s: %w", order.ID, err)
			}
			order.Status = domain.OrderStatusPaymentConfirmed

			s.logger.InfoContext(ctx, "pending settlement confirmed",
				slog.String("transaction_id", transactionID),
				slog.String("order_id", order.ID),
			)

		case domain.SettlementFailed:
			// The checkout reserved this stock when the settlement went
			// pending; a failed settlement returns it.
			quantities := make(map[int64]int, len(order.Lines))
			for _, line := range order.Lines {
				quantities[line.ItemID] = line.Quantity
			}
			if err := s.items.ReleaseStock(ctx, quantities); err != nil {
				return fmt.Errorf("release stock for transaction %s: %w", transactionID, err)
			}
			if err := s.events.PublishStockRolledBack(ctx, transactionID, quantities); err != nil {
				s.logger.WarnContext(ctx, "publish stock.rolled_back failed",
					slog.String("transaction_id", transactionID),
					slog.String("error", err.Error()),
				)
			}
			if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPaymentFailed); err != nil {
				return fmt.Errorf("fail order %s: %w", order.ID, err)
			}
			order.Status = domain.OrderStatusPaymentFailed

			s.logger.InfoContext(ctx, "pending settlement failed",
				slog.String("transaction_id", transactionID),
				slog.String("order_id", order.ID),
				slog.String("reason", reason),
			)
		}
	}

	applied, err := s.transactions.ResolveSettlement(ctx, transactionID, status)
	if err != nil {
		return fmt.Errorf("resolve transaction %s: %w", transactionID, err)
	}
	if !applied {
		// Another consumer resolved it between our load and here.
		s.logger.InfoContext(ctx, "settlement verdict ignored",
			slog.String("transaction_id", transactionID),
			slog.String("status", string(status)),
		)
		return nil
	}

	if err := s.events.PublishOrderPaymentResolved(ctx, order); err != nil {
		s.logger.WarnContext(ctx, "publish order.payment_resolved failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}
