package domain

// FailureCause explains why a single cart item could not be purchased.
type FailureCause string

const (
	CauseItemDoesNotExist    FailureCause = "ITEM_DOES_NOT_EXIST"
	CauseOutOfStock          FailureCause = "OUT_OF_STOCK"
	CauseInsufficientBalance FailureCause = "INSUFFICIENT_BALANCE"
)

// CheckoutCode is the overall outcome of a checkout call. Per-item
// failures do not raise it; only infrastructure faults do.
type CheckoutCode string

const (
	CheckoutCodeNone                 CheckoutCode = "NONE"
	CheckoutCodeInternalServiceError CheckoutCode = "INTERNAL_SERVICE_ERROR"
)

// CheckoutResult partitions a checkout attempt. Each cart item lands in
// exactly one bucket: a line of a confirmed order, a line of an
// action-required order, or the failed map with its cause.
type CheckoutResult struct {
	Code CheckoutCode `json:"code"`

	// Orders were paid in full and their stock is consumed.
	Orders []Order `json:"orders"`

	// ActionRequired orders are persisted with payment still pending;
	// the buyer must complete an out-of-band step.
	ActionRequired []Order `json:"action_required"`

	// FailedItems maps item ids that could not be purchased to the
	// reason they were excluded.
	FailedItems map[int64]FailureCause `json:"failed_items"`
}

// NewCheckoutResult returns an empty result with Code NONE.
func NewCheckoutResult() *CheckoutResult {
	return &CheckoutResult{
		Code:        CheckoutCodeNone,
		FailedItems: make(map[int64]FailureCause),
	}
}

// Fail records a single item failure.
func (r *CheckoutResult) Fail(itemID int64, cause FailureCause) {
	r.FailedItems[itemID] = cause
}

// FailAll records the same failure cause for a batch of items.
func (r *CheckoutResult) FailAll(itemIDs []int64, cause FailureCause) {
	for _, id := range itemIDs {
		r.FailedItems[id] = cause
	}
}
