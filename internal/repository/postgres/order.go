package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
	"github.com/miska12345/OpenMarket-sub000/pkg/database"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using
// PostgreSQL. Order lines are stored denormalized as JSONB; they are a
// checkout-time snapshot and never updated independently.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, buyer_id, org_id, currency_id, lines, total_amount, status, transaction_id, created_at, updated_at`

// Create inserts a new order, generating its id.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	linesJSON, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("marshal order lines: %w", err)
	}

	query := `
		INSERT INTO orders (id, buyer_id, org_id, currency_id, lines, total_amount, status, transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now().UTC()
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := r.pool.Exec(ctx, query,
		order.ID,
		order.BuyerID,
		order.OrgID,
		order.CurrencyID,
		linesJSON,
		order.TotalAmount,
		order.Status,
		order.TransactionID,
		order.CreatedAt,
		order.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o         domain.Order
		linesJSON []byte
	)
	err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&o.OrgID,
		&o.CurrencyID,
		&linesJSON,
		&o.TotalAmount,
		&o.Status,
		&o.TransactionID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(linesJSON) > 0 && string(linesJSON) != "null" {
		if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal order lines: %w", err)
		}
	} else {
		o.Lines = []domain.OrderLine{}
	}

	return &o, nil
}

// GetByID retrieves an order by id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	return o, nil
}

// GetByTransactionID retrieves the order attached to a transaction.
func (r *OrderRepository) GetByTransactionID(ctx context.Context, txID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE transaction_id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, txID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	return o, nil
}

// List returns orders matching the filter with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.BuyerID != nil {
		conditions = append(conditions, fmt.Sprintf("buyer_id = $%d", argIndex))
		args = append(args, *filter.BuyerID)
		argIndex++
	}

	if filter.OrgID != nil {
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", argIndex))
		args = append(args, *filter.OrgID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 20
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM orders
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, orderColumns, whereClause, argIndex, argIndex+1)

	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []domain.Order
		total  int
	)
	for rows.Next() {
		var (
			o         domain.Order
			linesJSON []byte
		)
		err := rows.Scan(
			&o.ID,
			&o.BuyerID,
			&o.OrgID,
			&o.CurrencyID,
			&linesJSON,
			&o.TotalAmount,
			&o.Status,
			&o.TransactionID,
			&o.CreatedAt,
			&o.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		if len(linesJSON) > 0 && string(linesJSON) != "null" {
			if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
				return nil, 0, fmt.Errorf("unmarshal order lines: %w", err)
			}
		} else {
			o.Lines = []domain.OrderLine{}
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, total, nil
}

// UpdateStatus moves an order to a new payment status. The transition
// is enforced in SQL so a terminal order can never be reopened.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`

	tag, err := r.pool.Exec(ctx, query, id, status, domain.OrderStatusPendingPayment)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
