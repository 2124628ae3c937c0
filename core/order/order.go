package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	// Pending orders await payment confirmation from the provider.
	Pending Status = "pending"
	// Paid orders were confirmed by the provider and reconciled.
	Paid Status = "paid"
	// Failed orders had their payment declined or errored.
	Failed Status = "failed"
	// Expired orders were abandoned before any provider outcome arrived.
	Expired Status = "expired"
)

type Order struct {
	ID         string          `json:"id" db:"order_id"`
	UserID     string          `json:"userId" db:"user_id"`
	ProviderID string          `json:"-" db:"provider_id"`
	Reference  string          `json:"reference" db:"reference"`
	Status     Status          `json:"status" db:"status"`
	Subtotal   decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax        decimal.Decimal `json:"tax" db:"tax"`
	Shipping   decimal.Decimal `json:"shipping" db:"shipping"`
	Total      decimal.Decimal `json:"total" db:"total"`
	Currency   string          `json:"currency" db:"currency"`
	Street     string          `json:"street" db:"street"`
	City       string          `json:"city" db:"city"`
	State      string          `json:"state" db:"state"`
	ZipCode    string          `json:"zipCode" db:"zip_code"`
	Country    string          `json:"country" db:"country"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
	Items      []Item          `json:"items,omitempty" db:"-"`
}

type StatusUp struct {
	ID        string    `db:"order_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Item snapshots the price and discount at purchase time so later catalog
// edits never change what an order says it charged.
type Item struct {
	OrderID         string          `json:"orderId" db:"order_id"`
	MedicineID      string          `json:"medicineId" db:"medicine_id"`
	UnitPrice       decimal.Decimal `json:"unitPrice" db:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discountPercent" db:"discount_percent"`
	Quantity        int             `json:"quantity" db:"quantity"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
}
