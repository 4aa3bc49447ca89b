package service

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

type mockTxRepo struct {
	mock.Mock
}

func (m *mockTxRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTxRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *mockTxRepo) Finalize(ctx context.Context, id string, status domain.TransactionStatus, settlement domain.SettlementStatus) error {
	args := m.Called(ctx, id, status, settlement)
	return args.Error(0)
}

func (m *mockTxRepo) ResolveSettlement(ctx context.Context, id string, settlement domain.SettlementStatus) (bool, error) {
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

// --- Fixtures ---

type settlementFixture struct {
	txs      *mockTxRepo
	accounts *mockAccountRepo
	orders   *mockOrderRepo
	items    *mockItemRepo
	events   *mockEvents
	svc      *SettlementService
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	f := &settlementFixture{
		txs:      new(mockTxRepo),
		accounts: new(mockAccountRepo),
		orders:   new(mockOrderRepo),
		items:    new(mockItemRepo),
		events:   new(mockEvents),
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	f.svc = NewSettlementService(f.txs, f.accounts, f.orders, f.items, f.events, logger)

	f.events.On("PublishOrderPaymentResolved", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.events.On("PublishStockRolledBack", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return f
}

func pendingTx() *domain.Transaction {
	return &domain.Transaction{
		ID:         "tx-1",
		PayerID:    buyerID,
		PayeeOrgID: "org-a",
		Amount:     3400,
		CurrencyID: "USD",
		Status:     domain.TransactionStatusCommitted,
		Settlement: domain.SettlementPending,
	}
}

func pendingOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-1",
		BuyerID:       buyerID,
		OrgID:         "org-a",
		TransactionID: "tx-1",
		Status:        domain.OrderStatusPendingPayment,
		Lines: []domain.OrderLine{
			{ItemID: 1, UnitPrice: 1250, Quantity: 2},
			{ItemID: 2, UnitPrice: 900, Quantity: 1},
		},
		TotalAmount: 3400,
	}
}

// --- Tests ---

func TestResolveTransaction_ConfirmedChargesBuyer(t *testing.T) {
	f := newSettlementFixture(t)

	f.txs.On("GetByID", mock.Anything, "tx-1").Return(pendingTx(), nil)
	f.orders.On("GetByTransactionID", mock.Anything, "tx-1").Return(pendingOrder(), nil)
	f.accounts.On("Debit", mock.Anything, buyerID, "USD", int64(3400)).Return(nil)
	f.orders.On("UpdateStatus", mock.Anything, "order-1", domain.OrderStatusPaymentConfirmed).Return(nil)
	f.txs.On("ResolveSettlement", mock.Anything, "tx-1", domain.SettlementConfirmed).Return(true, nil)

	err := f.svc.ResolveTransaction(context.Background(), "tx-1", domain.SettlementConfirmed, "")
	require.NoError(t, err)

	// A confirmed settlement keeps the reservation; nothing is released.
	f.items.AssertNotCalled(t, "ReleaseStock", mock.Anything, mock.Anything)
	f.txs.AssertExpectations(t)
	f.accounts.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestResolveTransaction_FailedReturnsReservedStock(t *testing.T) {
	f := newSettlementFixture(t)

	f.txs.On("GetByID", mock.Anything, "tx-1").Return(pendingTx(), nil)
	f.orders.On("GetByTransactionID", mock.Anything, "tx-1").Return(pendingOrder(), nil)
	f.items.On("ReleaseStock", mock.Anything, map[int64]int{1: 2, 2: 1}).Return(nil)
	f.orders.On("UpdateStatus", mock.Anything, "order-1", domain.OrderStatusPaymentFailed).Return(nil)
	f.txs.On("ResolveSettlement", mock.Anything, "tx-1", domain.SettlementFailed).Return(true, nil)

	err := f.svc.ResolveTransaction(context.Background(), "tx-1", domain.SettlementFailed, "declined")
	require.NoError(t, err)

	f.accounts.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.items.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestResolveTransaction_DuplicateVerdictIgnored(t *testing.T) {
	f := newSettlementFixture(t)

	resolved := pendingTx()
	resolved.Settlement = domain.SettlementConfirmed
	f.txs.On("GetByID", mock.Anything, "tx-1").Return(resolved, nil)

	err := f.svc.ResolveTransaction(context.Background(), "tx-1", domain.SettlementConfirmed, "")
	require.NoError(t, err)

	f.txs.AssertNotCalled(t, "ResolveSettlement", mock.Anything, mock.Anything, mock.Anything)
	f.accounts.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.items.AssertNotCalled(t, "ReleaseStock", mock.Anything, mock.Anything)
}

func TestResolveTransaction_RejectsNonTerminalStatus(t *testing.T) {
	f := newSettlementFixture(t)

	err := f.svc.ResolveTransaction(context.Background(), "tx-1", domain.SettlementPending, "")
	assert.Error(t, err)

	f.txs.AssertNotCalled(t, "ResolveSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveTransaction_DebitErrorPropagatesForRetry(t *testing.T) {
	f := newSettlementFixture(t)

	f.txs.On("GetByID", mock.Anything, "tx-1").Return(pendingTx(), nil)
	f.orders.On("GetByTransactionID", mock.Anything, "tx-1").Return(pendingOrder(), nil)
	f.accounts.On("Debit", mock.Anything, buyerID, "USD", int64(3400)).Return(errors.New("connection refused"))

	err := f.svc.ResolveTransaction(context.Background(), "tx-1", domain.SettlementConfirmed, "")
	assert.Error(t, err)

	// The verdict stays PENDING so the consumer's redelivery can try again.
	f.txs.AssertNotCalled(t, "ResolveSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveTransaction_RetryAfterTransientDebitFailure(t *testing.T) {
	f := newSettlementFixture(t)

	f.txs.On("GetByID", mock.Anything, "tx-1").Return(pendingTx(), nil)
	f.orders.On("GetByTransactionID", mock.Anything, "tx-1").Return(pendingOrder(), nil)
	f.accounts.On("Debit", mock.Anything, buyerID, "USD", int64(3400)).Return(errors.New("connection refused")).Once()
	f.accounts.On("Debit", mock.Anything, buyerID, "USD", int64(3400)).Return(nil).Once()
	f.orders.On("UpdateStatus", mock.Anything, "order-1", domain.OrderStatusPaymentConfirmed).Return(nil)
	f.txs.On("ResolveSettlement", mock.Anything, "tx-1", domain.SettlementConfirmed).Return(true, nil)

	// First delivery fails mid-flight; the redelivered event must still charge the buyer.
	err := f.svc.ResolveTransaction(context.Background(), "tx-1", domain.SettlementConfirmed, "")
	require.Error(t, err)

	err = f.svc.ResolveTransaction(context.Background(), "tx-1", domain.SettlementConfirmed, "")
	require.NoError(t, err)

	f.accounts.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.txs.AssertExpectations(t)
}

func TestResolveTransaction_ResumesAfterOrderAlreadyFlipped(t *testing.T) {
	f := newSettlementFixture(t)

	// A prior delivery applied the side effects but crashed before consuming
	// the verdict. The retry must consume it without charging twice.
	confirmed := pendingOrder()
	confirmed.Status = domain.OrderStatusPaymentConfirmed
	f.txs.On("GetByID", mock.Anything, "tx-1").Return(pendingTx(), nil)
	f.orders.On("GetByTransactionID", mock.Anything, "tx-1").Return(confirmed, nil)
	f.txs.On("ResolveSettlement", mock.Anything, "tx-1", domain.SettlementConfirmed).Return(true, nil)

	err := f.svc.ResolveTransaction(context.Background(), "tx-1", domain.SettlementConfirmed, "")
	require.NoError(t, err)

	f.accounts.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	f.txs.AssertExpectations(t)
}
