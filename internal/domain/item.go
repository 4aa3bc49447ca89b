package domain

import "time"

// Item is a listing owned by a seller organization. Price is stored in
// minor currency units (cents) to avoid floating point arithmetic.
type Item struct {
	ID          int64     `json:"id"`
	OrgID       string    `json:"org_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Price       int64     `json:"price"`
	CurrencyID  string    `json:"currency_id"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InStock reports whether the item can satisfy the requested quantity
// based on the last observed stock level. It is a pre-filter only; the
// authoritative check happens at reservation time.
func (i *Item) InStock(qty int) bool {
	return i.Stock >= qty
}
