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

// TransactionRepository implements repository.TransactionRepository
// using PostgreSQL.
type TransactionRepository struct {
	pool database.DBTX
}

// NewTransactionRepository creates a new PostgreSQL-backed transaction
// repository.
func NewTransactionRepository(pool database.DBTX) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a new transaction in the OPEN state.
func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, payer_id, payee_org_id, amount, currency_id, note, status, settlement, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now().UTC()
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.Status = domain.TransactionStatusOpen
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if _, err := r.pool.Exec(ctx, query,
		tx.ID,
		tx.PayerID,
		tx.PayeeOrgID,
		tx.Amount,
		tx.CurrencyID,
		tx.Note,
		tx.Status,
		tx.Settlement,
		tx.CreatedAt,
		tx.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by id.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `
		SELECT id, payer_id, payee_org_id, amount, currency_id, note, status, settlement, created_at, updated_at
		FROM transactions
		WHERE id = $1`

	var tx domain.Transaction
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tx.ID,
		&tx.PayerID,
		&tx.PayeeOrgID,
		&tx.Amount,
		&tx.CurrencyID,
		&tx.Note,
		&tx.Status,
		&tx.Settlement,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	return &tx, nil
}

// Finalize moves an OPEN transaction to a terminal status. The WHERE
// clause guards exactly-once finalization: a second attempt matches no
// rows and returns ErrAlreadyExists so the caller fails loudly instead
// of silently double-settling.
func (r *TransactionRepository) Finalize(ctx context.Context, id string, status domain.TransactionStatus, settlement domain.SettlementStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("finalize transaction %s: %q is not a terminal status", id, status)
	}

	query := `
		UPDATE transactions
		SET status = $2, settlement = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`

	tag, err := r.pool.Exec(ctx, query, id, status, settlement, domain.TransactionStatusOpen)
	if err != nil {
		return fmt.Errorf("finalize transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("transaction %s already finalized as %s: %w", id, existing.Status, apperrors.ErrAlreadyExists)
	}

	return nil
}

// ResolveSettlement records the final settlement verdict for a
// committed transaction that was left PENDING. The WHERE clause makes
// resolution exactly-once: a duplicate verdict matches no rows.
func (r *TransactionRepository) ResolveSettlement(ctx context.Context, id string, settlement domain.SettlementStatus) (bool, error) {
	query := `
		UPDATE transactions
		SET settlement = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3 AND settlement = $4`

	tag, err := r.pool.Exec(ctx, query, id, settlement, domain.TransactionStatusCommitted, domain.SettlementPending)
	if err != nil {
		return false, fmt.Errorf("resolve settlement: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
