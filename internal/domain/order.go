package domain

import "time"

// OrderStatus tracks an order through the payment lifecycle.
type OrderStatus string

const (
	// OrderStatusPendingPayment means the stepper was committed with the
	// settlement still in flight; the order awaits asynchronous resolution.
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"

	// OrderStatusPaymentConfirmed means the settlement succeeded and the
	// reserved stock is permanently consumed.
	OrderStatusPaymentConfirmed OrderStatus = "PAYMENT_CONFIRMED"

	// OrderStatusPaymentFailed means the settlement failed; any stock
	// reserved for this order has been returned.
	OrderStatusPaymentFailed OrderStatus = "PAYMENT_FAILED"
)

// CanTransitionTo reports whether the status change is legal. Only
// pending orders move; confirmed and failed are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s != OrderStatusPendingPayment {
		return false
	}
	return next == OrderStatusPaymentConfirmed || next == OrderStatusPaymentFailed
}

// OrderLine is a single purchased item within an order. UnitPrice is a
// snapshot taken at checkout time in minor currency units.
type OrderLine struct {
	ItemID    int64  `json:"item_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Subtotal returns the line total in minor currency units.
func (l OrderLine) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Order groups the items a buyer purchased from a single seller in one
// checkout. A multi-seller cart produces one order per seller.
type Order struct {
	ID            string      `json:"id"`
	BuyerID       string      `json:"buyer_id"`
	OrgID         string      `json:"org_id"`
	CurrencyID    string      `json:"currency_id"`
	Lines         []OrderLine `json:"lines"`
	TotalAmount   int64       `json:"total_amount"`
	Status        OrderStatus `json:"status"`
	TransactionID string      `json:"transaction_id"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ComputeTotal sums the order lines in minor currency units.
func (o *Order) ComputeTotal() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.Subtotal()
	}
	return total
}
