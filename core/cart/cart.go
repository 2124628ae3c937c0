package cart

import (
	"time"

	"github.com/pharmakart/pharmacy-api/core/pricing"
	"github.com/shopspring/decimal"
)

type Cart struct {
	UserID    string    `json:"-" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Version   int       `json:"-" db:"version"`
	Items     []Item    `json:"items" db:"-"`
	Totals    Totals    `json:"totals" db:"-"`
}

type Item struct {
	UserID     string    `json:"-" db:"user_id"`
	MedicineID string    `json:"medicineId" db:"medicine_id"`
	Quantity   int       `json:"quantity" db:"quantity"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type ItemNew struct {
	MedicineID string `json:"medicineId" validate:"required,uuid4"`
	Quantity   int    `json:"quantity" validate:"required,gte=1"`
}

// Totals is the display form of a pricing breakdown. Amounts are formatted to
// two decimals here and nowhere earlier.
type Totals struct {
	Subtotal   string `json:"subtotal"`
	Tax        string `json:"tax"`
	Shipping   string `json:"shipping"`
	GrandTotal string `json:"grandTotal"`
}

func FormatTotals(t pricing.Totals) Totals {
	return Totals{
		Subtotal:   t.Subtotal.StringFixed(2),
		Tax:        t.Tax.StringFixed(2),
		Shipping:   t.Shipping.StringFixed(2),
		GrandTotal: t.GrandTotal.StringFixed(2),
	}
}

// Line is a cart item joined with the medicine columns pricing needs.
type Line struct {
	MedicineID      string          `db:"medicine_id"`
	Quantity        int             `db:"quantity"`
	UnitPrice       decimal.Decimal `db:"price"`
	DiscountPercent decimal.Decimal `db:"discount_percent"`
}

func (l Line) Pricing() pricing.Line {
	return pricing.Line{
		ProductID:       l.MedicineID,
		UnitPrice:       l.UnitPrice,
		DiscountPercent: l.DiscountPercent,
		Quantity:        l.Quantity,
	}
}

func PricingLines(ls []Line) []pricing.Line {
	out := make([]pricing.Line, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Pricing())
	}
	return out
}
