package domain

import "time"

// StampEvent is a seller-run loyalty campaign. Buyers collect stamps by
// purchasing from the organization while the event is active.
type StampEvent struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	RewardPoints int       `json:"reward_points"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Active reports whether the event is running at the given instant.
func (e *StampEvent) Active(now time.Time) bool {
	return !now.Before(e.StartsAt) && now.Before(e.EndsAt)
}
