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

// OrganizationRepository implements repository.OrganizationRepository
// using PostgreSQL.
type OrganizationRepository struct {
	pool database.DBTX
}

// NewOrganizationRepository creates a new PostgreSQL-backed organization
// repository.
func NewOrganizationRepository(pool database.DBTX) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

// Create inserts a new organization, generating its id.
func (r *OrganizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (id, name, description, logo_url, currency_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now().UTC()
	org.ID = uuid.New().String()
	org.CreatedAt = now
	org.UpdatedAt = now

	if _, err := r.pool.Exec(ctx, query,
		org.ID,
		org.Name,
		org.Description,
		org.LogoURL,
		org.CurrencyID,
		org.CreatedAt,
		org.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}

	return nil
}

// GetByID retrieves an organization by id.
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `
		SELECT id, name, description, logo_url, currency_id, created_at, updated_at
		FROM organizations
		WHERE id = $1`

	var org domain.Organization
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Description,
		&org.LogoURL,
		&org.CurrencyID,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan organization: %w", err)
	}

	return &org, nil
}

// List returns organizations with the total count, newest first.
func (r *OrganizationRepository) List(ctx context.Context, page, perPage int) ([]domain.Organization, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	query := `
		SELECT id, name, description, logo_url, currency_id, created_at, updated_at, COUNT(*) OVER() AS total
		FROM organizations
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("query organizations: %w", err)
	}
	defer rows.Close()

	var (
		orgs  []domain.Organization
		total int
	)
	for rows.Next() {
		var org domain.Organization
		err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.Description,
			&org.LogoURL,
			&org.CurrencyID,
			&org.CreatedAt,
			&org.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate organizations: %w", err)
	}

	return orgs, total, nil
}
