package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
	"github.com/miska12345/OpenMarket-sub000/pkg/database"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
)

// ItemRepository implements repository.ItemRepository using PostgreSQL.
type ItemRepository struct {
	pool database.DBTX
}

// NewItemRepository creates a new PostgreSQL-backed item repository.
func NewItemRepository(pool database.DBTX) *ItemRepository {
	return &ItemRepository{pool: pool}
}

const itemColumns = `id, org_id, name, description, category, image_url, price, currency_id, stock, created_at, updated_at`

func scanItem(row pgx.Row) (*domain.Item, error) {
	var it domain.Item
	err := row.Scan(
		&it.ID,
		&it.OrgID,
		&it.Name,
		&it.Description,
		&it.Category,
		&it.ImageURL,
		&it.Price,
		&it.CurrencyID,
		&it.Stock,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Create inserts a new item and backfills the generated id.
func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (org_id, name, description, category, image_url, price, currency_id, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	err := r.pool.QueryRow(ctx, query,
		item.OrgID,
		item.Name,
		item.Description,
		item.Category,
		item.ImageURL,
		item.Price,
		item.CurrencyID,
		item.Stock,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

// GetByID retrieves an item by id.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	it, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}

	return it, nil
}

// BatchGet loads all requested items in a single query. Missing ids are
// not an error; callers detect them by absence from the map.
func (r *ItemRepository) BatchGet(ctx context.Context, ids []int64) (map[int64]*domain.Item, error) {
	if len(ids) == 0 {
		return map[int64]*domain.Item{}, nil
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64]*domain.Item, len(ids))
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}

// List returns items matching the filter with the total count.
func (r *ItemRepository) List(ctx context.Context, filter repository.ItemFilter) ([]domain.Item, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.OrgID != nil {
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", argIndex))
		args = append(args, *filter.OrgID)
		argIndex++
	}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
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
		FROM items
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, itemColumns, whereClause, argIndex, argIndex+1)

	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var (
		items []domain.Item
		total int
	)
	for rows.Next() {
		var it domain.Item
		err := rows.Scan(
			&it.ID,
			&it.OrgID,
			&it.Name,
			&it.Description,
			&it.Category,
			&it.ImageURL,
			&it.Price,
			&it.CurrencyID,
			&it.Stock,
			&it.CreatedAt,
			&it.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate items: %w", err)
	}

	return items, total, nil
}

// ReserveStock decrements stock for every item whose remaining stock
// covers the requested quantity. The conditional UPDATE makes each
// reservation atomic under concurrent checkouts: two buyers racing for
// the last unit cannot both win. Items are processed in ascending id
// order so concurrent multi-item reservations cannot deadlock.
func (r *ItemRepository) ReserveStock(ctx context.Context, quantities map[int64]int) ([]int64, error) {
	query := `UPDATE items SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`

	var failed []int64
	for _, id := range sortedIDs(quantities) {
		tag, err := r.pool.Exec(ctx, query, id, quantities[id])
		if err != nil {
			return nil, fmt.Errorf("reserve stock for item %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			failed = append(failed, id)
		}
	}

	return failed, nil
}

// ReleaseStock returns previously reserved stock.
func (r *ItemRepository) ReleaseStock(ctx context.Context, quantities map[int64]int) error {
	query := `UPDATE items SET stock = stock + $2, updated_at = NOW() WHERE id = $1`

	for _, id := range sortedIDs(quantities) {
		if _, err := r.pool.Exec(ctx, query, id, quantities[id]); err != nil {
			return fmt.Errorf("release stock for item %d: %w", id, err)
		}
	}

	return nil
}

// AdjustStock applies a signed stock delta, refusing to go below zero.
func (r *ItemRepository) AdjustStock(ctx context.Context, id int64, delta int) (*domain.Item, error) {
	query := `
		UPDATE items SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING ` + itemColumns

	it, err := scanItem(r.pool.QueryRow(ctx, query, id, delta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the item does not exist or the delta would make
			// stock negative. Disambiguate for the caller.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("stock for item %d cannot go negative: %w", id, apperrors.ErrInvalidInput)
		}
		return nil, fmt.Errorf("adjust stock for item %d: %w", id, err)
	}

	return it, nil
}

func sortedIDs(quantities map[int64]int) []int64 {
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
