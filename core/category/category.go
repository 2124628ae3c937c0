package category

import "time"

type Category struct {
	ID        string    `json:"id" db:"category_id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type CategoryNew struct {
	Name     string `json:"name" validate:"required"`
	Slug     string `json:"slug" validate:"required,lowercase"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}
