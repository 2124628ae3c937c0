package medicine

import (
	"time"

	"github.com/shopspring/decimal"
)

type Medicine struct {
	ID              string          `json:"id" db:"medicine_id"`
	CategoryID      string          `json:"categoryId" db:"category_id"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description" db:"description"`
	ImageURL        string          `json:"imageUrl" db:"image_url"`
	Price           decimal.Decimal `json:"price" db:"price"`
	DiscountPercent decimal.Decimal `json:"discountPercent" db:"discount_percent"`
	Prescription    bool            `json:"prescription" db:"prescription"`
	Stock           int             `json:"stock" db:"stock"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
	Version         int             `json:"-" db:"version"`
}

type MedicineNew struct {
	CategoryID      string          `json:"categoryId" validate:"required,uuid4"`
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description" validate:"required"`
	ImageURL        string          `json:"imageUrl" validate:"omitempty,url"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Prescription    bool            `json:"prescription"`
	Stock           int             `json:"stock" validate:"gte=0"`
}

type MedicineUp struct {
	CategoryID      *string          `json:"categoryId" validate:"omitempty,uuid4"`
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	ImageURL        *string          `json:"imageUrl" validate:"omitempty,url"`
	Price           *decimal.Decimal `json:"price"`
	DiscountPercent *decimal.Decimal `json:"discountPercent"`
	Prescription    *bool            `json:"prescription"`
	Stock           *int             `json:"stock" validate:"omitempty,gte=0"`
}
