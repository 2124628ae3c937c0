package promo

import "time"

// Placement tells where the storefront renders an item.
const (
	PlacementHero   = "hero"
	PlacementBanner = "banner"
)

type Item struct {
	ID        string     `json:"id" db:"promo_id"`
	Placement string     `json:"placement" db:"placement"`
	Title     string     `json:"title" db:"title"`
	Subtitle  string     `json:"subtitle" db:"subtitle"`
	ImageURL  string     `json:"imageUrl" db:"image_url"`
	TargetURL string     `json:"targetUrl" db:"target_url"`
	Active    bool       `json:"active" db:"active"`
	StartsAt  *time.Time `json:"startsAt" db:"starts_at"`
	EndsAt    *time.Time `json:"endsAt" db:"ends_at"`
	Position  int        `json:"-" db:"position"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

type ItemNew struct {
	Placement string     `json:"placement" validate:"required,oneof=hero banner"`
	Title     string     `json:"title" validate:"required"`
	Subtitle  string     `json:"subtitle"`
	ImageURL  string     `json:"imageUrl" validate:"required,url"`
	TargetURL string     `json:"targetUrl" validate:"omitempty,url"`
	Active    bool       `json:"active"`
	StartsAt  *time.Time `json:"startsAt"`
	EndsAt    *time.Time `json:"endsAt"`
}

type ItemUp struct {
	Title     *string    `json:"title"`
	Subtitle  *string    `json:"subtitle"`
	ImageURL  *string    `json:"imageUrl" validate:"omitempty,url"`
	TargetURL *string    `json:"targetUrl" validate:"omitempty,url"`
	Active    *bool      `json:"active"`
	StartsAt  *time.Time `json:"startsAt"`
	EndsAt    *time.Time `json:"endsAt"`
}

// Eligible reports whether an item may be shown at the given instant. Both
// window boundaries are inclusive. An active item with no window is always
// eligible; a window with StartsAt after EndsAt never matches.
func Eligible(it Item, now time.Time) bool {
	if it.ID == "" {
		return false
	}
	if !it.Active {
		return false
	}
	if it.StartsAt != nil && now.Before(*it.StartsAt) {
		return false
	}
	if it.EndsAt != nil && now.After(*it.EndsAt) {
		return false
	}
	return true
}

// Visible filters items down to those eligible now, preserving input order.
// Ineligible or malformed items are dropped, never reported as errors.
func Visible(items []Item, now time.Time) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if Eligible(it, now) {
			out = append(out, it)
		}
	}
	return out
}
