package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
)

// CartService manages the buyer's saved cart. The cart is advisory
// state: checkout revalidates everything, so a stale cart costs the
// buyer a failed item, never an inconsistent order.
type CartService struct {
	carts  repository.CartRepository
	items  repository.ItemRepository
	logger *slog.Logger
}

// NewCartService creates the cart service.
func NewCartService(carts repository.CartRepository, items repository.ItemRepository, logger *slog.Logger) *CartService {
	return &CartService{
		carts:  carts,
		items:  items,
		logger: logger,
	}
}

// Get returns the buyer's cart.
func (s *CartService) Get(ctx context.Context, buyerID string) (domain.Cart, error) {
	return s.carts.Get(ctx, buyerID)
}

// SetItem sets the quantity for one item in the buyer's cart. The item
// must exist; stock is not checked here since it can change before
// checkout anyway.
func (s *CartService) SetItem(ctx context.Context, buyerID string, itemID int64, qty int) error {
	if qty < 0 {
		return apperrors.InvalidInput("quantity must not be negative")
	}

	if qty > 0 {
		if _, err := s.items.GetByID(ctx, itemID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NotFound("item", strconv.FormatInt(itemID, 10))
			}
			return err
		}
	}

	return s.carts.SetItem(ctx, buyerID, itemID, qty)
}

// Clear removes the buyer's cart.
func (s *CartService) Clear(ctx context.Context, buyerID string) error {
	return s.carts.Clear(ctx, buyerID)
}
