package domain

import "time"

// Organization is a seller on the marketplace. Every item belongs to
// exactly one organization and every order settles against one.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	CurrencyID  string    `json:"currency_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
