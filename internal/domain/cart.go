package domain

import (
	"fmt"
	"sort"
)

// Cart maps item ids to requested quantities.
type Cart map[int64]int

// Validate rejects empty carts and carts containing any non-positive
// quantity. A single bad line invalidates the whole cart.
func (c Cart) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("cart is empty")
	}
	for itemID, qty := range c {
		if qty <= 0 {
			return fmt.Errorf("item %d: quantity must be positive, got %d", itemID, qty)
		}
	}
	return nil
}

// ItemIDs returns the cart's item ids in ascending order.
func (c Cart) ItemIDs() []int64 {
	ids := make([]int64, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
