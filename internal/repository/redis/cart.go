package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
)

const keyPrefix = "cart:"

// CartRepository implements repository.CartRepository using Redis. The
// cart is a hash keyed by item id so single-item updates do not rewrite
// the whole cart.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a buyer's cart. A missing cart is not an error; it
// comes back empty.
func (r *CartRepository) Get(ctx context.Context, buyerID string) (domain.Cart, error) {
	key := keyPrefix + buyerID

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	cart := make(domain.Cart, len(fields))
	for rawID, rawQty := range fields {
		itemID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse cart item id %q: %w", rawID, err)
		}
		qty, err := strconv.Atoi(rawQty)
		if err != nil {
			return nil, fmt.Errorf("parse cart quantity %q: %w", rawQty, err)
		}
		cart[itemID] = qty
	}

	return cart, nil
}

// SetItem sets the quantity for a single item and refreshes the cart
// TTL. A zero quantity removes the item.
func (r *CartRepository) SetItem(ctx context.Context, buyerID string, itemID int64, qty int) error {
	key := keyPrefix + buyerID
	field := strconv.FormatInt(itemID, 10)

	if qty <= 0 {
		if err := r.client.HDel(ctx, key, field).Err(); err != nil {
			return fmt.Errorf("redis del cart item: %w", err)
		}
		return nil
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, field, qty)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set cart item: %w", err)
	}

	return nil
}

// Clear removes the buyer's cart entirely.
func (r *CartRepository) Clear(ctx context.Context, buyerID string) error {
	if err := r.client.Del(ctx, keyPrefix+buyerID).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}
