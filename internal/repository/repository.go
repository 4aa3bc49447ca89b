package repository

import (
	"context"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
)

// ItemFilter defines filter criteria for listing items.
type ItemFilter struct {
	OrgID    *string
	Category *string
	Page     int
	PerPage  int
}

// ItemRepository defines persistence operations for marketplace items,
// including the atomic stock reservation used during checkout.
type ItemRepository interface {
	// Create inserts a new item.
	Create(ctx context.Context, item *domain.Item) error

	// GetByID retrieves an item by id.
	GetByID(ctx context.Context, id int64) (*domain.Item, error)

	// BatchGet loads the requested items in one round trip. Ids with no
	// matching row are simply absent from the returned map.
	BatchGet(ctx context.Context, ids []int64) (map[int64]*domain.Item, error)

	// List returns items matching the filter and the total count.
	List(ctx context.Context, filter ItemFilter) ([]domain.Item, int, error)

	// ReserveStock atomically decrements stock for every requested item
	// whose remaining stock covers the quantity. Items that lost the race
	// are returned untouched; winners are decremented.
	ReserveStock(ctx context.Context, quantities map[int64]int) (failed []int64, err error)

	// ReleaseStock returns previously reserved stock. Used when a payment
	// is aborted or a pending settlement ultimately fails.
	ReleaseStock(ctx context.Context, quantities map[int64]int) error

	// AdjustStock applies a signed stock delta to one item, failing if it
	// would take the stock below zero. Returns the updated item.
	AdjustStock(ctx context.Context, id int64, delta int) (*domain.Item, error)
}

// OrganizationRepository defines persistence operations for sellers.
type OrganizationRepository interface {
	// Create inserts a new organization.
	Create(ctx context.Context, org *domain.Organization) error

	// GetByID retrieves an organization by id.
	GetByID(ctx context.Context, id string) (*domain.Organization, error)

	// List returns all organizations, paginated, with the total count.
	List(ctx context.Context, page, perPage int) ([]domain.Organization, int, error)
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	BuyerID *string
	OrgID   *string
	Status  *string
	Page    int
	PerPage int
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create inserts a new order with its lines.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by id.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByTransactionID retrieves the order attached to a payment
	// transaction. Settlement reconciliation looks orders up this way.
	GetByTransactionID(ctx context.Context, txID string) (*domain.Order, error)

	// List returns orders matching the filter and the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus moves an order to a new payment status.
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

// TransactionRepository defines persistence operations for ledger
// transactions.
type TransactionRepository interface {
	// Create inserts a new transaction in the OPEN state.
	Create(ctx context.Context, tx *domain.Transaction) error

	// GetByID retrieves a transaction by id.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)

	// Finalize moves an OPEN transaction to a terminal status and records
	// the settlement verdict. It fails if the transaction is not OPEN, so
	// a transaction can be finalized at most once.
	Finalize(ctx context.Context, id string, status domain.TransactionStatus, settlement domain.SettlementStatus) error

	// ResolveSettlement replaces a PENDING settlement verdict on a
	// committed transaction with the final one. It reports false when the
	// transaction was not awaiting resolution, so late or duplicate
	// verdicts are applied at most once.
	ResolveSettlement(ctx context.Context, id string, settlement domain.SettlementStatus) (bool, error)
}

// AccountRepository defines persistence operations for buyer balances.
// A user holds one balance per currency; amounts are in minor units of
// that currency.
type AccountRepository interface {
	// GetBalance returns the user's balance in the given currency.
	GetBalance(ctx context.Context, userID, currencyID string) (int64, error)

	// Debit atomically subtracts amount from the user's balance in the
	// given currency, failing if the remaining balance does not cover it.
	Debit(ctx context.Context, userID, currencyID string, amount int64) error

	// Credit atomically adds amount to the user's balance in the given
	// currency.
	Credit(ctx context.Context, userID, currencyID string, amount int64) error
}

// StampRepository defines persistence operations for loyalty stamp
// events.
type StampRepository interface {
	// Create inserts a new stamp event.
	Create(ctx context.Context, ev *domain.StampEvent) error

	// GetBySlug retrieves a stamp event by its URL slug.
	GetBySlug(ctx context.Context, slug string) (*domain.StampEvent, error)

	// ListByOrg returns an organization's stamp events, newest first.
	ListByOrg(ctx context.Context, orgID string) ([]domain.StampEvent, error)
}

// CartRepository defines operations on a buyer's saved cart.
type CartRepository interface {
	// Get returns the buyer's cart. A missing cart returns an empty one.
	Get(ctx context.Context, buyerID string) (domain.Cart, error)

	// SetItem sets the quantity for one item, removing it when qty is 0.
	SetItem(ctx context.Context, buyerID string, itemID int64, qty int) error

	// Clear removes the buyer's cart entirely.
	Clear(ctx context.Context, buyerID string) error
}
