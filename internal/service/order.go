package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
	"github.com/miska12345/OpenMarket-sub000/pkg/pagination"
)

// OrderService exposes read access to orders. Orders are created only
// by checkout and mutated only by settlement reconciliation.
type OrderService struct {
	orders repository.OrderRepository
	logger *slog.Logger
}

// NewOrderService creates the order service.
func NewOrderService(orders repository.OrderRepository, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		logger: logger,
	}
}

// Get retrieves an order, restricted to its buyer.
func (s *OrderService) Get(ctx context.Context, buyerID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("order", orderID)
		}
		return nil, err
	}
	if order.BuyerID != buyerID {
		// Do not reveal that the order exists.
		return nil, apperrors.NotFound("order", orderID)
	}
	return order, nil
}

// ListByBuyer returns the buyer's orders, optionally filtered by
// status, paginated newest first.
func (s *OrderService) ListByBuyer(ctx context.Context, buyerID string, status *string, params pagination.Params) (*pagination.Result[domain.Order], error) {
	filter := repository.OrderFilter{
		BuyerID: &buyerID,
		Status:  status,
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := pagination.NewResult(orders, total, params)
	return &result, nil
}

// ListByOrg returns a seller's orders, paginated newest first.
func (s *OrderService) ListByOrg(ctx context.Context, orgID string, params pagination.Params) (*pagination.Result[domain.Order], error) {
	filter := repository.OrderFilter{
		OrgID:   &orgID,
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := pagination.NewResult(orders, total, params)
	return &result, nil
}
