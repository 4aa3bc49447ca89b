package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/pkg/database"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
)

// StampRepository implements repository.StampRepository using
// PostgreSQL.
type StampRepository struct {
	pool database.DBTX
}

// NewStampRepository creates a new PostgreSQL-backed stamp event
// repository.
func NewStampRepository(pool database.DBTX) *StampRepository {
	return &StampRepository{pool: pool}
}

const stampColumns = `id, org_id, title, slug, description, reward_points, starts_at, ends_at, created_at, updated_at`

// Create inserts a new stamp event, generating its id.
func (r *StampRepository) Create(ctx context.Context, ev *domain.StampEvent) error {
	query := `
		INSERT INTO stamp_events (id, org_id, title, slug, description, reward_points, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now().UTC()
	ev.ID = uuid.New().String()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	if _, err := r.pool.Exec(ctx, query,
		ev.ID,
		ev.OrgID,
		ev.Title,
		ev.Slug,
		ev.Description,
		ev.RewardPoints,
		ev.StartsAt,
		ev.EndsAt,
		ev.CreatedAt,
		ev.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert stamp event: %w", err)
	}

	return nil
}

func scanStampEvent(row pgx.Row) (*domain.StampEvent, error) {
	var ev domain.StampEvent
	err := row.Scan(
		&ev.ID,
		&ev.OrgID,
		&ev.Title,
		&ev.Slug,
		&ev.Description,
		&ev.RewardPoints,
		&ev.StartsAt,
		&ev.EndsAt,
		&ev.CreatedAt,
		&ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// GetBySlug retrieves a stamp event by its URL slug.
func (r *StampRepository) GetBySlug(ctx context.Context, slug string) (*domain.StampEvent, error) {
	query := `SELECT ` + stampColumns + ` FROM stamp_events WHERE slug = $1`

	ev, err := scanStampEvent(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan stamp event: %w", err)
	}

	return ev, nil
}

// ListByOrg returns an organization's stamp events, newest first.
func (r *StampRepository) ListByOrg(ctx context.Context, orgID string) ([]domain.StampEvent, error) {
	query := `SELECT ` + stampColumns + ` FROM stamp_events WHERE org_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("query stamp events: %w", err)
	}
	defer rows.Close()

	var events []domain.StampEvent
	for rows.Next() {
		ev, err := scanStampEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stamp event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stamp events: %w", err)
	}

	return events, nil
}
