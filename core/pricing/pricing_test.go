package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var testCfg = Config{
	TaxRate:               dec("0.08"),
	FreeShippingThreshold: dec("50"),
	ShippingFee:           dec("9.99"),
}

func TestEffectiveUnitPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		discount string
		want     string
	}{
		{"no discount", "12.50", "0", "12.50"},
		{"twenty percent", "100", "20", "80"},
		{"full discount", "100", "100", "0"},
		{"fractional", "9.99", "10", "8.991"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Line{UnitPrice: dec(tt.price), DiscountPercent: dec(tt.discount), Quantity: 1}
			if got := EffectiveUnitPrice(l); !got.Equal(dec(tt.want)) {
				t.Fatalf("EffectiveUnitPrice = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLineTotalWithoutDiscount(t *testing.T) {
	l := Line{UnitPrice: dec("7.25"), DiscountPercent: decimal.Zero, Quantity: 3}
	if got, want := LineTotal(l), dec("21.75"); !got.Equal(want) {
		t.Fatalf("LineTotal = %s, want %s", got, want)
	}
}

func TestSubtotal(t *testing.T) {
	if got := Subtotal(nil); !got.IsZero() {
		t.Fatalf("empty cart subtotal = %s, want 0", got)
	}

	lines := []Line{
		{UnitPrice: dec("10"), Quantity: 2},
		{UnitPrice: dec("5.50"), DiscountPercent: dec("50"), Quantity: 4},
	}
	if got, want := Subtotal(lines), dec("31"); !got.Equal(want) {
		t.Fatalf("Subtotal = %s, want %s", got, want)
	}
}

func TestShippingBoundary(t *testing.T) {
	if got := Shipping(dec("50"), testCfg.FreeShippingThreshold, testCfg.ShippingFee); !got.IsZero() {
		t.Fatalf("shipping at threshold = %s, want 0", got)
	}
	if got, want := Shipping(dec("49.99"), testCfg.FreeShippingThreshold, testCfg.ShippingFee), dec("9.99"); !got.Equal(want) {
		t.Fatalf("shipping below threshold = %s, want %s", got, want)
	}
}

func TestComputeEmptyCart(t *testing.T) {
	tot := Compute(nil, testCfg)

	if !tot.Shipping.IsZero() {
		t.Fatalf("empty cart shipping = %s, want 0", tot.Shipping)
	}
	if !tot.GrandTotal.IsZero() {
		t.Fatalf("empty cart grand total = %s, want 0", tot.GrandTotal)
	}
}

func TestComputeWorkedExample(t *testing.T) {
	lines := []Line{{UnitPrice: dec("100"), DiscountPercent: dec("20"), Quantity: 2}}

	tot := Compute(lines, testCfg)

	if !tot.Subtotal.Equal(dec("160")) {
		t.Fatalf("subtotal = %s, want 160", tot.Subtotal)
	}
	if !tot.Tax.Equal(dec("12.80")) {
		t.Fatalf("tax = %s, want 12.80", tot.Tax)
	}
	if !tot.Shipping.IsZero() {
		t.Fatalf("shipping = %s, want 0", tot.Shipping)
	}
	if !tot.GrandTotal.Equal(dec("172.80")) {
		t.Fatalf("grand total = %s, want 172.80", tot.GrandTotal)
	}
}

func TestComputeAddsShippingBelowThreshold(t *testing.T) {
	lines := []Line{{UnitPrice: dec("20"), Quantity: 1}}

	tot := Compute(lines, testCfg)

	want := GrandTotal(tot.Subtotal, tot.Tax, tot.Shipping)
	if !tot.GrandTotal.Equal(want) {
		t.Fatalf("grand total = %s, want %s", tot.GrandTotal, want)
	}
	if !tot.Shipping.Equal(dec("9.99")) {
		t.Fatalf("shipping = %s, want 9.99", tot.Shipping)
	}
}

func TestCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"172.80", 17280},
		{"0", 0},
		{"9.99", 999},
		{"8.991", 899},
		{"8.995", 900},
	}

	for _, tt := range tests {
		if got := Cents(dec(tt.in)); got != tt.want {
			t.Fatalf("Cents(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
