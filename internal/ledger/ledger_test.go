package ledger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
)

// --- Mock Transaction Repository ---

type mockTransactionRepo struct {
	mock.Mock
}

func (m *mockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTransactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) Finalize(ctx context.Context, id string, status domain.TransactionStatus, settlement domain.SettlementStatus) error {
	args := m.Called(ctx, id, status, settlement)
	return args.Error(0)
}

func (m *mockTransactionRepo) ResolveSettlement(ctx context.Context, id string, settlement domain.SettlementStatus) (bool, error) {
	args := m.Called(ctx, id, settlement)
	return args.Bool(0), args.Error(1)
}

// --- Mock Account Repository ---

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) GetBalance(ctx context.Context, userID, currencyID string) (int64, error) {
	args := m.Called(ctx, userID, currencyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccountRepo) Debit(ctx context.Context, userID, currencyID string, amount int64) error {
	args := m.Called(ctx, userID, currencyID, amount)
	return args.Error(0)
}

func (m *mockAccountRepo) Credit(ctx context.Context, userID, currencyID string, amount int64) error {
	args := m.Called(ctx, userID, currencyID, amount)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleTx() *domain.Transaction {
	return &domain.Transaction{
		PayerID:    "buyer-1",
		PayeeOrgID: "org-1",
		Amount:     3400,
		CurrencyID: "USD",
	}
}

func TestLedger_Open_CreatesOpenTransaction(t *testing.T) {
	txRepo := new(mockTransactionRepo)
	accRepo := new(mockAccountRepo)
	l := New(txRepo, accRepo, testLogger())

	tx := sampleTx()
	txRepo.On("Create", mock.Anything, tx).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Transaction).ID = "tx-1"
	}).Return(nil)

	st, err := l.Open(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "tx-1", st.TransactionID())

	txRepo.AssertExpectations(t)
}

func TestLedger_Open_RejectsNonPositiveAmount(t *testing.T) {
	l := New(new(mockTransactionRepo), new(mockAccountRepo), testLogger())

	tx := sampleTx()
	tx.Amount = 0

	_, err := l.Open(context.Background(), tx)
	assert.Error(t, err)
}

func TestStepper_Commit_ConfirmedDebitsPayer(t *testing.T) {
	txRepo := new(mockTransactionRepo)
	accRepo := new(mockAccountRepo)
	l := New(txRepo, accRepo, testLogger())

	tx := sampleTx()
	txRepo.On("Create", mock.Anything, tx).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Transaction).ID = "tx-1"
	}).Return(nil)
	txRepo.On("Finalize", mock.Anything, "tx-1", domain.TransactionStatusCommitted, domain.SettlementConfirmed).Return(nil)
	accRepo.On("Debit", mock.Anything, "buyer-1", "USD", int64(3400)).Return(nil)

	st, err := l.Open(context.Background(), tx)
	require.NoError(t, err)

	require.NoError(t, st.Commit(context.Background(), domain.SettlementConfirmed))
	assert.Equal(t, domain.TransactionStatusCommitted, tx.Status)

	txRepo.AssertExpectations(t)
	accRepo.AssertExpectations(t)
}

func TestStepper_Commit_PendingSkipsDebit(t *testing.T) {
	txRepo := new(mockTransactionRepo)
	accRepo := new(mockAccountRepo)
	l := New(txRepo, accRepo, testLogger())

	tx := sampleTx()
	txRepo.On("Create", mock.Anything, tx).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Transaction).ID = "tx-1"
	}).Return(nil)
	txRepo.On("Finalize", mock.Anything, "tx-1", domain.TransactionStatusCommitted, domain.SettlementPending).Return(nil)

	st, err := l.Open(context.Background(), tx)
	require.NoError(t, err)

	require.NoError(t, st.Commit(context.Background(), domain.SettlementPending))

	accRepo.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	txRepo.AssertExpectations(t)
}

func TestStepper_Abort_DoesNotCharge(t *testing.T) {
	txRepo := new(mockTransactionRepo)
	accRepo := new(mockAccountRepo)
	l := New(txRepo, accRepo, testLogger())

	tx := sampleTx()
	txRepo.On("Create", mock.Anything, tx).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Transaction).ID = "tx-1"
	}).Return(nil)
	txRepo.On("Finalize", mock.Anything, "tx-1", domain.TransactionStatusAborted, domain.SettlementFailed).Return(nil)

	st, err := l.Open(context.Background(), tx)
	require.NoError(t, err)

	require.NoError(t, st.Abort(context.Background()))
	assert.Equal(t, domain.TransactionStatusAborted, tx.Status)

	accRepo.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	txRepo.AssertExpectations(t)
}

func TestStepper_DoubleFinalizeFailsLoudly(t *testing.T) {
	txRepo := new(mockTransactionRepo)
	accRepo := new(mockAccountRepo)
	l := New(txRepo, accRepo, testLogger())

	tx := sampleTx()
	txRepo.On("Create", mock.Anything, tx).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Transaction).ID = "tx-1"
	}).Return(nil)
	txRepo.On("Finalize", mock.Anything, "tx-1", domain.TransactionStatusCommitted, domain.SettlementConfirmed).Return(nil).Once()
	accRepo.On("Debit", mock.Anything, "buyer-1", "USD", int64(3400)).Return(nil).Once()

	st, err := l.Open(context.Background(), tx)
	require.NoError(t, err)

	require.NoError(t, st.Commit(context.Background(), domain.SettlementConfirmed))

	assert.Error(t, st.Commit(context.Background(), domain.SettlementConfirmed))
	assert.Error(t, st.Abort(context.Background()))

	txRepo.AssertExpectations(t)
}

func TestStepper_Commit_FinalizeErrorPropagates(t *testing.T) {
	txRepo := new(mockTransactionRepo)
	accRepo := new(mockAccountRepo)
	l := New(txRepo, accRepo, testLogger())

	tx := sampleTx()
	txRepo.On("Create", mock.Anything, tx).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Transaction).ID = "tx-1"
	}).Return(nil)
	txRepo.On("Finalize", mock.Anything, "tx-1", domain.TransactionStatusCommitted, domain.SettlementConfirmed).
		Return(errors.New("connection refused"))

	st, err := l.Open(context.Background(), tx)
	require.NoError(t, err)

	assert.Error(t, st.Commit(context.Background(), domain.SettlementConfirmed))

	txRepo.AssertExpectations(t)
}
