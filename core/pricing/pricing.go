// Package pricing computes money amounts from cart lines. All functions are
// pure and safe for concurrent use. Amounts are decimals end to end; rounding
// to two places happens only when a total leaves for display or a payment
// provider.
package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Line struct {
	ProductID       string
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	Quantity        int
}

type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Shipping   decimal.Decimal `json:"shipping"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

type Config struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// EffectiveUnitPrice applies the line discount to the unit price.
func EffectiveUnitPrice(l Line) decimal.Decimal {
	if l.DiscountPercent.IsPositive() {
		return l.UnitPrice.Mul(hundred.Sub(l.DiscountPercent)).Div(hundred)
	}
	return l.UnitPrice
}

func LineTotal(l Line) decimal.Decimal {
	return EffectiveUnitPrice(l).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func Subtotal(lines []Line) decimal.Decimal {
	sub := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(LineTotal(l))
	}
	return sub
}

func Tax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate)
}

// Shipping is free once the subtotal reaches the threshold, boundary included.
func Shipping(subtotal, freeThreshold, flatFee decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(freeThreshold) {
		return decimal.Zero
	}
	return flatFee
}

func GrandTotal(subtotal, tax, shipping decimal.Decimal) decimal.Decimal {
	return subtotal.Add(tax).Add(shipping)
}

// Compute derives the full breakdown for a cart. Totals are never stored, so
// every read goes through here.
func Compute(lines []Line, cfg Config) Totals {
	if len(lines) == 0 {
		return Totals{
			Subtotal:   decimal.Zero,
			Tax:        decimal.Zero,
			Shipping:   decimal.Zero,
			GrandTotal: decimal.Zero,
		}
	}

	sub := Subtotal(lines)
	tax := Tax(sub, cfg.TaxRate)
	ship := Shipping(sub, cfg.FreeShippingThreshold, cfg.ShippingFee)

	return Totals{
		Subtotal:   sub,
		Tax:        tax,
		Shipping:   ship,
		GrandTotal: GrandTotal(sub, tax, ship),
	}
}

// Cents converts an amount to integer cents for payment providers, rounding
// half away from zero at the second decimal.
func Cents(d decimal.Decimal) int64 {
	return d.Round(2).Mul(hundred).IntPart()
}
