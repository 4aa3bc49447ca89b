package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
	"github.com/miska12345/OpenMarket-sub000/pkg/database"
	apperrors "github.com/miska12345/OpenMarket-sub000/pkg/errors"
)

func newOrderTestRepo(t *testing.T) (*OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewOrderRepository(mock), mock
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		BuyerID:    "buyer-1",
		OrgID:      "org-1",
		CurrencyID: "USD",
		Lines: []domain.OrderLine{
			{ItemID: 1, Name: "Ceramic Mug", UnitPrice: 1250, Quantity: 2},
			{ItemID: 2, Name: "Dinner Plate", UnitPrice: 900, Quantity: 1},
		},
		TotalAmount:   3400,
		Status:        domain.OrderStatusPendingPayment,
		TransactionID: "tx-1",
	}
}

func orderRowValues(o *domain.Order, now time.Time) []any {
	linesJSON, _ := json.Marshal(o.Lines)
	return []any{
		o.ID, o.BuyerID, o.OrgID, o.CurrencyID, linesJSON,
		o.TotalAmount, o.Status, o.TransactionID, now, now,
	}
}

func orderRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "buyer_id", "org_id", "currency_id", "lines",
		"total_amount", "status", "transaction_id", "created_at", "updated_at",
	})
}

func TestOrderRepository_Create_Success(t *testing.T) {
	repo, mock := newOrderTestRepo(t)

	o := sampleOrder()

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(pgxmock.AnyArg(), o.BuyerID, o.OrgID, o.CurrencyID,
			pgxmock.AnyArg(), o.TotalAmount, o.Status, o.TransactionID,
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), o)
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByTransactionID(t *testing.T) {
	repo, mock := newOrderTestRepo(t)

	o := sampleOrder()
	o.ID = "order-1"
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE transaction_id").
		WithArgs("tx-1").
		WillReturnRows(orderRows().AddRow(orderRowValues(o, now)...))

	got, err := repo.GetByTransactionID(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", got.ID)
	assert.Len(t, got.Lines, 2)
	assert.Equal(t, int64(1250), got.Lines[0].UnitPrice)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newOrderTestRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs("missing").
		WillReturnRows(orderRows())

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List_FiltersByBuyer(t *testing.T) {
	repo, mock := newOrderTestRepo(t)

	o := sampleOrder()
	o.ID = "order-1"
	now := time.Now().UTC()
	linesJSON, _ := json.Marshal(o.Lines)

	buyerID := "buyer-1"
	mock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs(buyerID, 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "buyer_id", "org_id", "currency_id", "lines",
			"total_amount", "status", "transaction_id", "created_at", "updated_at", "total",
		}).AddRow(
			o.ID, o.BuyerID, o.OrgID, o.CurrencyID, linesJSON,
			o.TotalAmount, o.Status, o.TransactionID, now, now, 1,
		))

	orders, total, err := repo.List(context.Background(), repository.OrderFilter{BuyerID: &buyerID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "order-1", orders[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_Success(t *testing.T) {
	repo, mock := newOrderTestRepo(t)

	mock.ExpectExec("UPDATE orders").
		WithArgs("order-1", domain.OrderStatusPaymentFailed, domain.OrderStatusPendingPayment).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateStatus(context.Background(), "order-1", domain.OrderStatusPaymentFailed)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
