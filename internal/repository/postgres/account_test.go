package postgres

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miska12345/OpenMarket-sub000/pkg/database"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
)

func newAccountTestRepo(t *testing.T) (*AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewAccountRepository(mock), mock
}

func TestAccountRepository_GetBalance_FiltersByCurrency(t *testing.T) {
	repo, mock := newAccountTestRepo(t)

	mock.ExpectQuery("SELECT balance FROM accounts WHERE user_id = \\$1 AND currency_id = \\$2").
		WithArgs("user-1", "USD").
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(5000)))

	balance, err := repo.GetBalance(context.Background(), "user-1", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetBalance_NoAccountInCurrency(t *testing.T) {
	repo, mock := newAccountTestRepo(t)

	// The user holds a EUR account but the query asks for USD; the
	// currency filter matches no row.
	mock.ExpectQuery("SELECT balance FROM accounts WHERE user_id = \\$1 AND currency_id = \\$2").
		WithArgs("user-1", "USD").
		WillReturnRows(pgxmock.NewRows([]string{"balance"}))

	_, err := repo.GetBalance(context.Background(), "user-1", "USD")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Debit_Success(t *testing.T) {
	repo, mock := newAccountTestRepo(t)

	mock.ExpectExec("UPDATE accounts").
		WithArgs("user-1", "USD", int64(3400)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Debit(context.Background(), "user-1", "USD", 3400)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Debit_WrongCurrencyFails(t *testing.T) {
	repo, mock := newAccountTestRepo(t)

	mock.ExpectExec("UPDATE accounts").
		WithArgs("user-1", "JPY", int64(3400)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Debit(context.Background(), "user-1", "JPY", 3400)
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Debit_InsufficientBalanceFails(t *testing.T) {
	repo, mock := newAccountTestRepo(t)

	mock.ExpectExec("UPDATE accounts").
		WithArgs("user-1", "USD", int64(999999)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Debit(context.Background(), "user-1", "USD", 999999)
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Credit_Success(t *testing.T) {
	repo, mock := newAccountTestRepo(t)

	mock.ExpectExec("UPDATE accounts").
		WithArgs("user-1", "USD", int64(500)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Credit(context.Background(), "user-1", "USD", 500)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
