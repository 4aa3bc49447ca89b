package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/miska12345/OpenMarket-sub000/pkg/database"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
)

// AccountRepository implements repository.AccountRepository using
// PostgreSQL.
type AccountRepository struct {
	pool database.DBTX
}

// NewAccountRepository creates a new PostgreSQL-backed account
// repository.
func NewAccountRepository(pool database.DBTX) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// GetBalance returns the user's balance in the given currency, in
// minor units. A user with no account row in that currency has no
// balance to spend.
func (r *AccountRepository) GetBalance(ctx context.Context, userID, currencyID string) (int64, error) {
	query := `SELECT balance FROM accounts WHERE user_id = $1 AND currency_id = $2`

	var balance int64
	err := r.pool.QueryRow(ctx, query, userID, currencyID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("scan balance: %w", err)
	}

	return balance, nil
}

// Debit subtracts amount from the user's balance in the given
// currency. The conditional UPDATE makes the check-and-subtract
// atomic; an uncovered debit, or a currency the user holds no account
// in, matches no rows and returns ErrPaymentFailed.
func (r *AccountRepository) Debit(ctx context.Context, userID, currencyID string, amount int64) error {
	query := `
		UPDATE accounts
		SET balance = balance - $3, updated_at = NOW()
		WHERE user_id = $1 AND currency_id = $2 AND balance >= $3`

	tag, err := r.pool.Exec(ctx, query, userID, currencyID, amount)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPaymentFailed
	}

	return nil
}

// Credit adds amount to the user's balance in the given currency.
func (r *AccountRepository) Credit(ctx context.Context, userID, currencyID string, amount int64) error {
	query := `
		UPDATE accounts
		SET balance = balance + $3, updated_at = NOW()
		WHERE user_id = $1 AND currency_id = $2`

	tag, err := r.pool.Exec(ctx, query, userID, currencyID, amount)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
