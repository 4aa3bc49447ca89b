package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	pkgkafka "github.com/miska12345/OpenMarket-sub000/pkg/kafka"
)

// Kafka topic constants for marketplace domain events.
const (
	TopicOrderCreated         = "openmarket.order.created"
	TopicOrderPaymentResolved = "openmarket.order.payment_resolved"
	TopicCheckoutCompleted    = "openmarket.checkout.completed"
	TopicStockRolledBack      = "openmarket.stock.rolled_back"

	// TopicSettlementResults carries asynchronous verdicts from the
	// settlement network. The reconciliation consumer reads it.
	TopicSettlementResults = "openmarket.settlement.results"
)

// Aggregate type constants.
const (
	AggregateTypeOrder    = "order"
	AggregateTypeCheckout = "checkout"
	AggregateTypeItem     = "item"
)

// Source identifier for events originating from this service.
const SourceMarketplace = "openmarket"

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID       string `json:"order_id"`
	BuyerID       string `json:"buyer_id"`
	OrgID         string `json:"org_id"`
	TotalAmount   int64  `json:"total_amount"`
	CurrencyID    string `json:"currency_id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// OrderPaymentResolvedData is the payload for an order.payment_resolved
// event, emitted when a pending order reaches a terminal status.
type OrderPaymentResolvedData struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// CheckoutCompletedData is the payload for a checkout.completed event.
type CheckoutCompletedData struct {
	BuyerID       string   `json:"buyer_id"`
	OrderIDs      []string `json:"order_ids"`
	PendingOrders []string `json:"pending_orders"`
	FailedItems   int      `json:"failed_items"`
	Code          string   `json:"code"`
}

// StockRolledBackData is the payload for a stock.rolled_back event.
type StockRolledBackData struct {
	TransactionID string        `json:"transaction_id"`
	Quantities    map[int64]int `json:"quantities"`
}

// SettlementResultData is the payload carried on the settlement results
// topic by the settlement network.
type SettlementResultData struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
}

// Producer publishes marketplace domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	data := OrderCreatedData{
		OrderID:       order.ID,
		BuyerID:       order.BuyerID,
		OrgID:         order.OrgID,
		TotalAmount:   order.TotalAmount,
		CurrencyID:    order.CurrencyID,
		Status:        string(order.Status),
		TransactionID: order.TransactionID,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, order.ID, AggregateTypeOrder, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	return p.kafka.Publish(ctx, TopicOrderCreated, event)
}

// PublishOrderPaymentResolved publishes an order.payment_resolved event.
func (p *Producer) PublishOrderPaymentResolved(ctx context.Context, order *domain.Order) error {
	data := OrderPaymentResolvedData{
		OrderID:       order.ID,
		TransactionID: order.TransactionID,
		Status:        string(order.Status),
	}

	event, err := pkgkafka.NewEvent(TopicOrderPaymentResolved, order.ID, AggregateTypeOrder, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create order.payment_resolved event: %w", err)
	}

	return p.kafka.Publish(ctx, TopicOrderPaymentResolved, event)
}

// PublishCheckoutCompleted publishes a checkout.completed event.
func (p *Producer) PublishCheckoutCompleted(ctx context.Context, buyerID string, result *domain.CheckoutResult) error {
	data := CheckoutCompletedData{
		BuyerID:     buyerID,
		FailedItems: len(result.FailedItems),
		Code:        string(result.Code),
	}
	for _, o := range result.Orders {
		data.OrderIDs = append(data.OrderIDs, o.ID)
	}
	for _, o := range result.ActionRequired {
		data.PendingOrders = append(data.PendingOrders, o.ID)
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutCompleted, buyerID, AggregateTypeCheckout, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create checkout.completed event: %w", err)
	}

	return p.kafka.Publish(ctx, TopicCheckoutCompleted, event)
}

// PublishStockRolledBack publishes a stock.rolled_back event.
func (p *Producer) PublishStockRolledBack(ctx context.Context, transactionID string, quantities map[int64]int) error {
	data := StockRolledBackData{
		TransactionID: transactionID,
		Quantities:    quantities,
	}

	event, err := pkgkafka.NewEvent(TopicStockRolledBack, transactionID, AggregateTypeItem, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create stock.rolled_back event: %w", err)
	}

	return p.kafka.Publish(ctx, TopicStockRolledBack, event)
}
