package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/ledger"
	"github.com/miska12345/OpenMarket-sub000/internal/provider"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
)

// EventPublisher publishes marketplace domain events. Publishing is
// best-effort from the orchestrator's perspective: a failed publish is
// logged but never fails a checkout that already settled.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishOrderPaymentResolved(ctx context.Context, order *domain.Order) error
	PublishCheckoutCompleted(ctx context.Context, buyerID string, result *domain.CheckoutResult) error
	PublishStockRolledBack(ctx context.Context, transactionID string, quantities map[int64]int) error
}

// CheckoutService orchestrates multi-seller cart checkout: stock
// reservation, per-seller payment transactions, and compensating
// rollback when any step of a group fails partway.
type CheckoutService struct {
	items    repository.ItemRepository
	orgs     repository.OrganizationRepository
	orders   repository.OrderRepository
	ledger   ledger.Ledger
	provider provider.SettlementProvider
	events   EventPublisher
	logger   *slog.Logger
}

// NewCheckoutService creates the checkout orchestrator.
func NewCheckoutService(
	items repository.ItemRepository,
	orgs repository.OrganizationRepository,
	orders repository.OrderRepository,
	l ledger.Ledger,
	p provider.SettlementProvider,
	events EventPublisher,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		items:    items,
		orgs:     orgs,
		orders:   orders,
		ledger:   l,
		provider: p,
		events:   events,
		logger:   logger,
	}
}

// sellerGroup is the slice of a cart owned by one organization.
type sellerGroup struct {
	orgID string
	items []*domain.Item
}

func (g *sellerGroup) itemIDs() []int64 {
	ids := make([]int64, 0, len(g.items))
	for _, it := range g.items {
		ids = append(ids, it.ID)
	}
	return ids
}

func (g *sellerGroup) quantities(cart domain.Cart) map[int64]int {
	q := make(map[int64]int, len(g.items))
	for _, it := range g.items {
		q[it.ID] = cart[it.ID]
	}
	return q
}

func (g *sellerGroup) total(cart domain.Cart) int64 {
	var total int64
	for _, it := range g.items {
		total += it.Price * int64(cart[it.ID])
	}
	return total
}

// internalResult is returned when the stores cannot be trusted: a store
// fault discards all partial results so the caller never acts on a
// partition the fault may have invalidated.
func internalResult() *domain.CheckoutResult {
	return &domain.CheckoutResult{
		Code:        domain.CheckoutCodeInternalServiceError,
		FailedItems: map[int64]domain.FailureCause{},
	}
}

// Checkout processes the buyer's cart and partitions every item into
// paid orders, action-required orders, or the failed map. Business
// failures in one seller's group never disturb another group's
// committed work; only store-level faults abort the whole call.
func (s *CheckoutService) Checkout(ctx context.Context, buyerID string, cart domain.Cart) *domain.CheckoutResult {
	if err := cart.Validate(); err != nil {
		s.logger.WarnContext(ctx, "checkout rejected",
			slog.String("buyer_id", buyerID),
			slog.String("error", err.Error()),
		)
		return internalResult()
	}

	items, err := s.items.BatchGet(ctx, cart.ItemIDs())
	if err != nil {
		s.logger.ErrorContext(ctx, "checkout item load failed",
			slog.String("buyer_id", buyerID),
			slog.String("error", err.Error()),
		)
		return internalResult()
	}

	result := domain.NewCheckoutResult()

	// Pre-filter before any side effect: unknown items and obviously
	// depleted stock drop out here. Stock is re-checked atomically at
	// reservation time; this pass only reduces contention.
	groups := make(map[string]*sellerGroup)
	for _, itemID := range cart.ItemIDs() {
		it, ok := items[itemID]
		if !ok {
			result.Fail(itemID, domain.CauseItemDoesNotExist)
			continue
		}
		if !it.InStock(cart[itemID]) {
			result.Fail(itemID, domain.CauseOutOfStock)
			continue
		}
		g, ok := groups[it.OrgID]
		if !ok {
			g = &sellerGroup{orgID: it.OrgID}
			groups[it.OrgID] = g
		}
		g.items = append(g.items, it)
	}

	// Groups are processed in seller id order so a given cart always
	// replays the same way.
	orgIDs := make([]string, 0, len(groups))
	for orgID := range groups {
		orgIDs = append(orgIDs, orgID)
	}
	sort.Strings(orgIDs)

	for _, orgID := range orgIDs {
		if err := s.processGroup(ctx, buyerID, cart, groups[orgID], result); err != nil {
			s.logger.ErrorContext(ctx, "checkout aborted by store fault",
				slog.String("buyer_id", buyerID),
				slog.String("org_id", orgID),
				slog.String("error", err.Error()),
			)
			return internalResult()
		}
	}

	if err := s.events.PublishCheckoutCompleted(ctx, buyerID, result); err != nil {
		s.logger.WarnContext(ctx, "publish checkout.completed failed",
			slog.String("buyer_id", buyerID),
			slog.String("error", err.Error()),
		)
	}

	return result
}

// processGroup runs one seller group through the payment flow. A nil
// return means the group reached a business outcome (success, pending,
// or recorded failure); a non-nil error is a store fault that poisons
// the whole checkout.
func (s *CheckoutService) processGroup(ctx context.Context, buyerID string, cart domain.Cart, group *sellerGroup, result *domain.CheckoutResult) error {
	org, err := s.orgs.GetByID(ctx, group.orgID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// An item pointing at a seller that does not exist is treated
			// as if the item itself does not exist.
			result.FailAll(group.itemIDs(), domain.CauseItemDoesNotExist)
			return nil
		}
		return fmt.Errorf("resolve organization %s: %w", group.orgID, err)
	}

	total := group.total(cart)

	balance, err := s.ledger.Balance(ctx, buyerID, org.CurrencyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			balance = 0
		} else {
			return fmt.Errorf("load balance for %s: %w", buyerID, err)
		}
	}
	if balance < total {
		result.FailAll(group.itemIDs(), domain.CauseInsufficientBalance)
		return nil
	}

	stepper, err := s.ledger.Open(ctx, &domain.Transaction{
		PayerID:    buyerID,
		PayeeOrgID: org.ID,
		Amount:     total,
		CurrencyID: org.CurrencyID,
		Note:       fmt.Sprintf("checkout: %d items from %s", len(group.items), org.Name),
	})
	if err != nil {
		return fmt.Errorf("open payment for org %s: %w", org.ID, err)
	}

	undo := newUndoStack(s.logger)
	undo.push("abort payment "+stepper.TransactionID(), func(ctx context.Context) error {
		return stepper.Abort(ctx)
	})

	// The order is persisted before reservation on purpose: a pending
	// order is the audit trail for the reservation attempt that follows.
	order := s.buildOrder(buyerID, org, group, cart, stepper.TransactionID())
	if err := s.orders.Create(ctx, order); err != nil {
		undo.run(ctx)
		return fmt.Errorf("persist order for org %s: %w", org.ID, err)
	}

	quantities := group.quantities(cart)
	failedIDs, err := s.items.ReserveStock(ctx, quantities)
	if err != nil {
		undo.run(ctx)
		return fmt.Errorf("reserve stock for org %s: %w", org.ID, err)
	}

	if len(failedIDs) > 0 {
		// The group is all-or-nothing: losers make winners' reservations
		// moot, so every reserved quantity is compensated back.
		reserved := make(map[int64]int, len(quantities))
		for id, qty := range quantities {
			reserved[id] = qty
		}
		for _, id := range failedIDs {
			delete(reserved, id)
		}
		if len(reserved) > 0 {
			undo.push("release stock "+stepper.TransactionID(), func(ctx context.Context) error {
				return s.items.ReleaseStock(ctx, reserved)
			})
		}
		undo.run(ctx)
		s.markOrderFailed(ctx, order)
		s.publishRollback(ctx, stepper.TransactionID(), reserved)
		result.FailAll(group.itemIDs(), domain.CauseOutOfStock)
		return nil
	}

	undo.push("release stock "+stepper.TransactionID(), func(ctx context.Context) error {
		return s.items.ReleaseStock(ctx, quantities)
	})

	settle, err := s.provider.Settle(ctx, &provider.SettleInput{
		TransactionID: stepper.TransactionID(),
		PayerID:       buyerID,
		PayeeOrgID:    org.ID,
		Amount:        total,
		CurrencyID:    org.CurrencyID,
		Note:          order.ID,
	})
	if err != nil {
		undo.run(ctx)
		s.markOrderFailed(ctx, order)
		s.publishRollback(ctx, stepper.TransactionID(), quantities)
		return fmt.Errorf("settle payment %s: %w", stepper.TransactionID(), err)
	}

	switch settle.Status {
	case domain.SettlementConfirmed:
		undo.discard()
		if err := stepper.Commit(ctx, domain.SettlementConfirmed); err != nil {
			s.releaseBestEffort(ctx, stepper.TransactionID(), quantities)
			return fmt.Errorf("commit payment %s: %w", stepper.TransactionID(), err)
		}
		if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPaymentConfirmed); err != nil {
			// The payment is committed; a stale order status is repairable
			// and must not unwind a settled payment.
			s.logger.ErrorContext(ctx, "order status update failed after commit",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
		order.Status = domain.OrderStatusPaymentConfirmed
		result.Orders = append(result.Orders, *order)
		s.publishOrderCreated(ctx, order)
		return nil

	case domain.SettlementFailed:
		undo.run(ctx)
		s.markOrderFailed(ctx, order)
		s.publishRollback(ctx, stepper.TransactionID(), quantities)
		result.FailAll(group.itemIDs(), domain.CauseInsufficientBalance)
		return nil

	case domain.SettlementPending:
		// The payment stays in flight: commit finalizes the pending
		// transaction so asynchronous settlement can proceed, the stock
		// stays reserved, and the order surfaces as action-required.
		undo.discard()
		if err := stepper.Commit(ctx, domain.SettlementPending); err != nil {
			s.releaseBestEffort(ctx, stepper.TransactionID(), quantities)
			return fmt.Errorf("commit pending payment %s: %w", stepper.TransactionID(), err)
		}
		result.ActionRequired = append(result.ActionRequired, *order)
		s.publishOrderCreated(ctx, order)
		return nil

	default:
		undo.run(ctx)
		s.markOrderFailed(ctx, order)
		s.publishRollback(ctx, stepper.TransactionID(), quantities)
		return fmt.Errorf("settle payment %s: unknown settlement status %q", stepper.TransactionID(), settle.Status)
	}
}

func (s *CheckoutService) buildOrder(buyerID string, org *domain.Organization, group *sellerGroup, cart domain.Cart, transactionID string) *domain.Order {
	order := &domain.Order{
		BuyerID:       buyerID,
		OrgID:         org.ID,
		CurrencyID:    org.CurrencyID,
		Status:        domain.OrderStatusPendingPayment,
		TransactionID: transactionID,
	}
	for _, it := range group.items {
		order.Lines = append(order.Lines, domain.OrderLine{
			ItemID:    it.ID,
			Name:      it.Name,
			UnitPrice: it.Price,
			Quantity:  cart[it.ID],
		})
	}
	order.TotalAmount = order.ComputeTotal()
	return order
}

func (s *CheckoutService) markOrderFailed(ctx context.Context, order *domain.Order) {
	if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPaymentFailed); err != nil {
		s.logger.ErrorContext(ctx, "order status update failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	order.Status = domain.OrderStatusPaymentFailed
}

func (s *CheckoutService) releaseBestEffort(ctx context.Context, transactionID string, quantities map[int64]int) {
	if err := s.items.ReleaseStock(ctx, quantities); err != nil {
		s.logger.ErrorContext(ctx, "stock release failed",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.publishRollback(ctx, transactionID, quantities)
}

func (s *CheckoutService) publishOrderCreated(ctx context.Context, order *domain.Order) {
	if err := s.events.PublishOrderCreated(ctx, order); err != nil {
		s.logger.WarnContext(ctx, "publish order.created failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CheckoutService) publishRollback(ctx context.Context, transactionID string, quantities map[int64]int) {
	if len(quantities) == 0 {
		return
	}
	if err := s.events.PublishStockRolledBack(ctx, transactionID, quantities); err != nil {
		s.logger.WarnContext(ctx, "publish stock.rolled_back failed",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()),
		)
	}
}
