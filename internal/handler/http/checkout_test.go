package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/ledger"
	"github.com/miska12345/OpenMarket-sub000/internal/provider"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
	"github.com/miska12345/OpenMarket-sub000/internal/service"
	"github.com/miska12345/OpenMarket-sub000/pkg/middleware"
)

const testBuyerID = "7b0e65a1-55c1-4cc7-960e-1fd3b1c0f0a1"

// --- Mocks ---

type mockItemRepo struct {
	mock.Mock
}

func (m *mockItemRepo) Create(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockItemRepo) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *mockItemRepo) BatchGet(ctx context.Context, ids []int64) (map[int64]*domain.Item, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*domain.Item), args.Error(1)
}

func (m *mockItemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]domain.Item, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Item), args.Int(1), args.Error(2)
}

func (m *mockItemRepo) ReserveStock(ctx context.Context, quantities map[int64]int) ([]int64, error) {
	args := m.Called(ctx, quantities)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockItemRepo) ReleaseStock(ctx context.Context, quantities map[int64]int) error {
	args := m.Called(ctx, quantities)
	return args.Error(0)
}

func (m *mockItemRepo) AdjustStock(ctx context.Context, id int64, delta int) (*domain.Item, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

type mockOrgRepo struct {
	mock.Mock
}

func (m *mockOrgRepo) Create(ctx context.Context, org *domain.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *mockOrgRepo) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *mockOrgRepo) List(ctx context.Context, page, perPage int) ([]domain.Organization, int, error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).([]domain.Organization), args.Int(1), args.Error(2)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) GetByTransactionID(ctx context.Context, txID string) (*domain.Order, error) {
	args := m.Called(ctx, txID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Balance(ctx context.Context, userID, currencyID string) (int64, error) {
	args := m.Called(ctx, userID, currencyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLedger) Open(ctx context.Context, tx *domain.Transaction) (ledger.Stepper, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ledger.Stepper), args.Error(1)
}

func (m *mockLedger) Transaction(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

type mockStepper struct {
	mock.Mock
}

func (m *mockStepper) TransactionID() string {
	return "tx-1"
}

func (m *mockStepper) Commit(ctx context.Context, settlement domain.SettlementStatus) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}

func (m *mockStepper) Abort(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "test" }

func (m *mockProvider) Settle(ctx context.Context, input *provider.SettleInput) (*provider.SettleResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SettleResult), args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockEvents) PublishOrderPaymentResolved(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockEvents) PublishCheckoutCompleted(ctx context.Context, buyerID string, result *domain.CheckoutResult) error {
	return m.Called(ctx, buyerID, result).Error(0)
}

func (m *mockEvents) PublishStockRolledBack(ctx context.Context, transactionID string, quantities map[int64]int) error {
	return m.Called(ctx, transactionID, quantities).Error(0)
}

type mockCartRepo struct {
	mock.Mock
}

func (m *mockCartRepo) Get(ctx context.Context, buyerID string) (domain.Cart, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *mockCartRepo) SetItem(ctx context.Context, buyerID string, itemID int64, qty int) error {
	return m.Called(ctx, buyerID, itemID, qty).Error(0)
}

func (m *mockCartRepo) Clear(ctx context.Context, buyerID string) error {
	return m.Called(ctx, buyerID).Error(0)
}

// --- Fixture ---

type handlerFixture struct {
	items    *mockItemRepo
	orgs     *mockOrgRepo
	orders   *mockOrderRepo
	ledger   *mockLedger
	provider *mockProvider
	events   *mockEvents
	carts    *mockCartRepo
	handler  *CheckoutHandler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		items:    new(mockItemRepo),
		orgs:     new(mockOrgRepo),
		orders:   new(mockOrderRepo),
		ledger:   new(mockLedger),
		provider: new(mockProvider),
		events:   new(mockEvents),
		carts:    new(mockCartRepo),
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	checkoutSvc := service.NewCheckoutService(f.items, f.orgs, f.orders, f.ledger, f.provider, f.events, logger)
	cartSvc := service.NewCartService(f.carts, f.items, logger)
	f.handler = NewCheckoutHandler(checkoutSvc, cartSvc, logger)

	f.events.On("PublishCheckoutCompleted", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.events.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.events.On("PublishStockRolledBack", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return f
}

func doCheckout(t *testing.T, f *handlerFixture, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req = req.WithContext(middleware.ContextWithUserID(req.Context(), testBuyerID))
	}

	rec := httptest.NewRecorder()
	f.handler.Checkout(rec, req)
	return rec
}

// --- Tests ---

func TestCheckoutHandler_RequiresAuth(t *testing.T) {
	f := newHandlerFixture(t)

	rec := doCheckout(t, f, CheckoutRequest{Items: map[int64]int{1: 1}}, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutHandler_Success(t *testing.T) {
	f := newHandlerFixture(t)
	st := new(mockStepper)

	f.items.On("BatchGet", mock.Anything, []int64{1}).Return(map[int64]*domain.Item{
		1: {ID: 1, OrgID: "org-a", Name: "Mug", Price: 1250, CurrencyID: "USD", Stock: 5},
	}, nil)
	f.orgs.On("GetByID", mock.Anything, "org-a").Return(&domain.Organization{ID: "org-a", Name: "Shop", CurrencyID: "USD"}, nil)
	f.ledger.On("Balance", mock.Anything, testBuyerID, "USD").Return(int64(10000), nil)
	f.ledger.On("Open", mock.Anything, mock.Anything).Return(st, nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Order).ID = "order-1"
	}).Return(nil)
	f.items.On("ReserveStock", mock.Anything, map[int64]int{1: 2}).Return([]int64{}, nil)
	f.provider.On("Settle", mock.Anything, mock.Anything).Return(&provider.SettleResult{Status: domain.SettlementConfirmed}, nil)
	st.On("Commit", mock.Anything, domain.SettlementConfirmed).Return(nil)
	f.orders.On("UpdateStatus", mock.Anything, "order-1", domain.OrderStatusPaymentConfirmed).Return(nil)
	f.carts.On("Clear", mock.Anything, testBuyerID).Return(nil)

	rec := doCheckout(t, f, CheckoutRequest{Items: map[int64]int{1: 2}}, true)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.CheckoutResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.CheckoutCodeNone, resp.Data.Code)
	require.Len(t, resp.Data.Orders, 1)
	assert.Equal(t, "order-1", resp.Data.Orders[0].ID)
}

func TestCheckoutHandler_InvalidBody(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader([]byte("{not json")))
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), testBuyerID))
	rec := httptest.NewRecorder()

	f.handler.Checkout(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutHandler_EmptyBodyFallsBackToSavedCart(t *testing.T) {
	f := newHandlerFixture(t)

	// Saved cart is empty too; the orchestrator rejects the request.
	f.carts.On("Get", mock.Anything, testBuyerID).Return(domain.Cart{}, nil)

	rec := doCheckout(t, f, CheckoutRequest{}, true)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Data domain.CheckoutResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.CheckoutCodeInternalServiceError, resp.Data.Code)
	assert.Empty(t, resp.Data.Orders)
	f.carts.AssertExpectations(t)
}

func TestCheckoutHandler_PartialFailureKeepsCart(t *testing.T) {
	f := newHandlerFixture(t)

	f.items.On("BatchGet", mock.Anything, []int64{9}).Return(map[int64]*domain.Item{}, nil)

	rec := doCheckout(t, f, CheckoutRequest{Items: map[int64]int{9: 1}}, true)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Code        string            `json:"code"`
			FailedItems map[string]string `json:"failed_items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NONE", resp.Data.Code)
	assert.Equal(t, "ITEM_DOES_NOT_EXIST", resp.Data.FailedItems["9"])

	// Nothing was purchased, so the saved cart survives.
	f.carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}
