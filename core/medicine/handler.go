package medicine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pharmakart/pharmacy-api/api/web"
	"github.com/pharmakart/pharmacy-api/api/weberr"
	"github.com/pharmakart/pharmacy-api/validate"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// checkAmounts guards the money invariants the validator tags cannot express
// on decimal fields: price >= 0 and discount in [0,100].
func checkAmounts(price, discount decimal.Decimal) error {
	if price.IsNegative() {
		return errors.New("price must not be negative")
	}
	if discount.IsNegative() || discount.GreaterThan(hundred) {
		return errors.New("discountPercent must be between 0 and 100")
	}
	return nil
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ms, err := FetchAll(ctx, db)
		if err != nil {
			return fmt.Errorf("fetching medicines: %w", err)
		}

		return web.Respond(ctx, w, ms, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		m, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching medicine[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, m, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var mn MedicineNew
		if err := web.Decode(w, r, &mn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(mn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := checkAmounts(mn.Price, mn.DiscountPercent); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		now := time.Now().UTC()
		m := Medicine{
			ID:              validate.GenerateID(),
			CategoryID:      mn.CategoryID,
			Name:            mn.Name,
			Description:     mn.Description,
			ImageURL:        mn.ImageURL,
			Price:           mn.Price,
			DiscountPercent: mn.DiscountPercent,
			Prescription:    mn.Prescription,
			Stock:           mn.Stock,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := Create(ctx, db, m); err != nil {
			return fmt.Errorf("creating medicine: %w", err)
		}

		return web.Respond(ctx, w, m, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var up MedicineUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		m, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching medicine[%s]: %w", id, err)
		}

		if up.CategoryID != nil {
			m.CategoryID = *up.CategoryID
		}
		if up.Name != nil {
			m.Name = *up.Name
		}
		if up.Description != nil {
			m.Description = *up.Description
		}
		if up.ImageURL != nil {
			m.ImageURL = *up.ImageURL
		}
		if up.Price != nil {
			m.Price = *up.Price
		}
		if up.DiscountPercent != nil {
			m.DiscountPercent = *up.DiscountPercent
		}
		if up.Prescription != nil {
			m.Prescription = *up.Prescription
		}
		if up.Stock != nil {
			m.Stock = *up.Stock
		}

		if err := checkAmounts(m.Price, m.DiscountPercent); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		m.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, m); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("updating medicine[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, m, http.StatusOK)
	}
}
