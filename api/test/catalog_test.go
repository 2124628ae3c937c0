package test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/pharmakart/pharmacy-api/core/category"
	"github.com/pharmakart/pharmacy-api/core/medicine"
	"github.com/pharmakart/pharmacy-api/core/promo"
	"github.com/shopspring/decimal"
)

type catalogTest struct {
	*TestEnv
	seq int
}

// createCategoryOK must run with an admin session.
func (ct *catalogTest) createCategoryOK(t *testing.T) category.Category {
	t.Helper()
	ct.seq++

	in := category.CategoryNew{
		Name: fmt.Sprintf("Category %d", ct.seq),
		Slug: fmt.Sprintf("category-%d", ct.seq),
	}

	var out category.Category
	ct.do(t, http.MethodPost, "/categories", in, &out, http.StatusCreated)
	return out
}

// createMedicineOK must run with an admin session.
func (ct *catalogTest) createMedicineOK(t *testing.T, categoryID, price, discount string) medicine.Medicine {
	t.Helper()
	ct.seq++

	in := medicine.MedicineNew{
		CategoryID:      categoryID,
		Name:            fmt.Sprintf("Medicine %d", ct.seq),
		Description:     "A test medicine",
		Price:           decimal.RequireFromString(price),
		DiscountPercent: decimal.RequireFromString(discount),
		Stock:           100,
	}

	var out medicine.Medicine
	ct.do(t, http.MethodPost, "/medicines", in, &out, http.StatusCreated)
	return out
}

func (ct *catalogTest) createPromoOK(t *testing.T, in promo.ItemNew) promo.Item {
	t.Helper()

	var out promo.Item
	ct.do(t, http.MethodPost, "/promotions", in, &out, http.StatusCreated)
	return out
}

func TestCatalog(t *testing.T) {
	env, err := NewTestEnv(t, "catalog_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &catalogTest{TestEnv: env}

	ct.Login(t, AdminEmail, AdminPass)
	cat := ct.createCategoryOK(t)
	m1 := ct.createMedicineOK(t, cat.ID, "100", "20")
	m2 := ct.createMedicineOK(t, cat.ID, "9.99", "0")
	ct.Logout(t)

	var cats []category.Category
	ct.do(t, http.MethodGet, "/categories", nil, &cats, http.StatusOK)
	if len(cats) != 1 || cats[0].ID != cat.ID {
		t.Fatalf("got categories %+v, want only %s", cats, cat.ID)
	}

	var ms []medicine.Medicine
	ct.do(t, http.MethodGet, "/medicines", nil, &ms, http.StatusOK)
	if len(ms) != 2 {
		t.Fatalf("got %d medicines, want 2", len(ms))
	}

	ct.do(t, http.MethodGet, "/categories/"+cat.ID+"/medicines", nil, &ms, http.StatusOK)
	if len(ms) != 2 {
		t.Fatalf("got %d medicines in category, want 2", len(ms))
	}

	var got medicine.Medicine
	ct.do(t, http.MethodGet, "/medicines/"+m1.ID, nil, &got, http.StatusOK)
	if got.Name != m1.Name || !got.Price.Equal(m1.Price) || !got.DiscountPercent.Equal(m1.DiscountPercent) {
		t.Fatalf("got medicine %+v, want %+v", got, m1)
	}

	ct.do(t, http.MethodGet, "/medicines/"+m2.ID, nil, &got, http.StatusOK)
	if !got.Price.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("got price %s, want 9.99", got.Price)
	}

	// Catalog writes are admin only.
	in := medicine.MedicineNew{
		CategoryID:  cat.ID,
		Name:        "Not allowed",
		Description: "should be rejected",
		Price:       decimal.RequireFromString("1"),
	}
	ct.do(t, http.MethodPost, "/medicines", in, nil, http.StatusUnauthorized)

	ct.Login(t, UserEmail, UserPass)
	ct.do(t, http.MethodPost, "/medicines", in, nil, http.StatusUnauthorized)
	ct.Logout(t)

	// Money invariants are enforced server side.
	ct.Login(t, AdminEmail, AdminPass)
	defer ct.Logout(t)

	bad := medicine.MedicineNew{
		CategoryID:  cat.ID,
		Name:        "Bad price",
		Description: "negative price",
		Price:       decimal.RequireFromString("-1"),
	}
	ct.do(t, http.MethodPost, "/medicines", bad, nil, http.StatusUnprocessableEntity)

	bad = medicine.MedicineNew{
		CategoryID:      cat.ID,
		Name:            "Bad discount",
		Description:     "discount over 100",
		Price:           decimal.RequireFromString("10"),
		DiscountPercent: decimal.RequireFromString("101"),
	}
	ct.do(t, http.MethodPost, "/medicines", bad, nil, http.StatusUnprocessableEntity)
}

func TestPromotions(t *testing.T) {
	env, err := NewTestEnv(t, "promo_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &catalogTest{TestEnv: env}
	now := time.Now().UTC()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	ct.Login(t, AdminEmail, AdminPass)

	first := ct.createPromoOK(t, promo.ItemNew{
		Placement: promo.PlacementHero,
		Title:     "Spring sale",
		ImageURL:  "https://cdn.test/spring.png",
		Active:    true,
	})
	_ = ct.createPromoOK(t, promo.ItemNew{
		Placement: promo.PlacementHero,
		Title:     "Disabled",
		ImageURL:  "https://cdn.test/disabled.png",
		Active:    false,
	})
	_ = ct.createPromoOK(t, promo.ItemNew{
		Placement: promo.PlacementHero,
		Title:     "Not yet",
		ImageURL:  "https://cdn.test/soon.png",
		Active:    true,
		StartsAt:  &future,
	})
	second := ct.createPromoOK(t, promo.ItemNew{
		Placement: promo.PlacementHero,
		Title:     "Still on",
		ImageURL:  "https://cdn.test/on.png",
		Active:    true,
		StartsAt:  &past,
		EndsAt:    &future,
	})
	banner := ct.createPromoOK(t, promo.ItemNew{
		Placement: promo.PlacementBanner,
		Title:     "Free shipping over 50",
		ImageURL:  "https://cdn.test/banner.png",
		Active:    true,
	})
	_ = ct.createPromoOK(t, promo.ItemNew{
		Placement: promo.PlacementBanner,
		Title:     "Over",
		ImageURL:  "https://cdn.test/over.png",
		Active:    true,
		StartsAt:  &past,
		EndsAt:    &now,
	})

	ct.Logout(t)

	var slides []promo.Item
	ct.do(t, http.MethodGet, "/promotions/hero-slides", nil, &slides, http.StatusOK)
	if len(slides) != 2 {
		t.Fatalf("got %d hero slides, want 2", len(slides))
	}
	if slides[0].ID != first.ID || slides[1].ID != second.ID {
		t.Fatalf("hero slides out of order: got [%s %s], want [%s %s]",
			slides[0].ID, slides[1].ID, first.ID, second.ID)
	}

	var banners []promo.Item
	ct.do(t, http.MethodGet, "/promotions/banners", nil, &banners, http.StatusOK)
	if len(banners) != 1 || banners[0].ID != banner.ID {
		t.Fatalf("got banners %+v, want only %s", banners, banner.ID)
	}

	// Deactivating an item removes it from the storefront on the next read.
	ct.Login(t, AdminEmail, AdminPass)
	f := false
	ct.do(t, http.MethodPut, "/promotions/"+first.ID, promo.ItemUp{Active: &f}, nil, http.StatusOK)
	ct.Logout(t)

	ct.do(t, http.MethodGet, "/promotions/hero-slides", nil, &slides, http.StatusOK)
	if len(slides) != 1 || slides[0].ID != second.ID {
		t.Fatalf("got hero slides %+v, want only %s", slides, second.ID)
	}

	// Writes stay behind the admin wall.
	ct.do(t, http.MethodPost, "/promotions", promo.ItemNew{
		Placement: promo.PlacementBanner,
		Title:     "Nope",
		ImageURL:  "https://cdn.test/nope.png",
	}, nil, http.StatusUnauthorized)
}
