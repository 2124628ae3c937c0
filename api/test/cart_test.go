package test

import (
	"net/http"
	"testing"

	"github.com/pharmakart/pharmacy-api/core/cart"
)

type cartTest struct {
	*TestEnv
}

func (rt *cartTest) addItemOK(t *testing.T, medicineID string, quantity int) {
	t.Helper()

	in := cart.ItemNew{MedicineID: medicineID, Quantity: quantity}
	rt.do(t, http.MethodPut, "/cart/items", in, nil, http.StatusOK)
}

func (rt *cartTest) showOK(t *testing.T) cart.Cart {
	t.Helper()

	var c cart.Cart
	rt.do(t, http.MethodGet, "/cart", nil, &c, http.StatusOK)
	return c
}

func (rt *cartTest) wantTotals(t *testing.T, c cart.Cart, subtotal, tax, shipping, grand string) {
	t.Helper()

	want := cart.Totals{Subtotal: subtotal, Tax: tax, Shipping: shipping, GrandTotal: grand}
	if c.Totals != want {
		t.Fatalf("got totals %+v, want %+v", c.Totals, want)
	}
}

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &catalogTest{TestEnv: env}
	rt := &cartTest{env}

	ct.Login(t, AdminEmail, AdminPass)
	cat := ct.createCategoryOK(t)
	m1 := ct.createMedicineOK(t, cat.ID, "100", "20")
	m2 := ct.createMedicineOK(t, cat.ID, "40", "0")
	ct.Logout(t)

	// The cart is private.
	rt.do(t, http.MethodGet, "/cart", nil, nil, http.StatusUnauthorized)

	rt.Login(t, UserEmail, UserPass)
	defer rt.Logout(t)

	c := rt.showOK(t)
	if len(c.Items) != 0 {
		t.Fatalf("got %d items in a fresh cart, want 0", len(c.Items))
	}
	rt.wantTotals(t, c, "0.00", "0.00", "0.00", "0.00")

	// 2 x (100 - 20%) = 160: over the free shipping threshold.
	rt.addItemOK(t, m1.ID, 2)
	c = rt.showOK(t)
	rt.wantTotals(t, c, "160.00", "12.80", "0.00", "172.80")

	rt.addItemOK(t, m2.ID, 1)
	c = rt.showOK(t)
	if len(c.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(c.Items))
	}
	rt.wantTotals(t, c, "200.00", "16.00", "0.00", "216.00")

	// Re-adding a medicine replaces its quantity rather than stacking.
	rt.addItemOK(t, m1.ID, 1)
	c = rt.showOK(t)
	rt.wantTotals(t, c, "120.00", "9.60", "0.00", "129.60")

	// Dropping under the threshold brings the flat shipping fee back.
	rt.do(t, http.MethodDelete, "/cart/items/"+m1.ID, nil, nil, http.StatusNoContent)
	c = rt.showOK(t)
	rt.wantTotals(t, c, "40.00", "3.20", "9.99", "53.19")

	// Unknown medicines are rejected before touching the cart.
	rt.do(t, http.MethodPut, "/cart/items", cart.ItemNew{
		MedicineID: "5f28a312-2c88-4e33-a7a3-3bd63c7cd0d5",
		Quantity:   1,
	}, nil, http.StatusNotFound)

	rt.do(t, http.MethodPut, "/cart/items", cart.ItemNew{
		MedicineID: m2.ID,
		Quantity:   0,
	}, nil, http.StatusUnprocessableEntity)

	rt.do(t, http.MethodDelete, "/cart", nil, nil, http.StatusNoContent)
	c = rt.showOK(t)
	if len(c.Items) != 0 {
		t.Fatalf("got %d items after flush, want 0", len(c.Items))
	}
	rt.wantTotals(t, c, "0.00", "0.00", "0.00", "0.00")
}
