package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pharmakart/pharmacy-api/api/web"
	"github.com/pharmakart/pharmacy-api/api/weberr"
	"github.com/pharmakart/pharmacy-api/core/claims"
	"github.com/pharmakart/pharmacy-api/core/medicine"
	"github.com/pharmakart/pharmacy-api/core/pricing"
	"github.com/pharmakart/pharmacy-api/validate"
)

// HandleShow returns the cart with totals recomputed from the current lines.
func HandleShow(db *sqlx.DB, prc pricing.Config) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		c, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching cart: %w", err)
		}

		if c.Items, err = FetchItems(ctx, db, clm.UserID); err != nil {
			return fmt.Errorf("fetching cart items: %w", err)
		}

		lines, err := FetchLines(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching cart lines: %w", err)
		}

		c.Totals = FormatTotals(pricing.Compute(PricingLines(lines), prc))

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleCreateItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := medicine.Fetch(ctx, db, in.MedicineID); err != nil {
			if errors.Is(err, medicine.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching medicine[%s]: %w", in.MedicineID, err)
		}

		if _, err := Fetch(ctx, db, clm.UserID); err != nil {
			return fmt.Errorf("fetching cart: %w", err)
		}

		now := time.Now().UTC()
		it := Item{
			UserID:     clm.UserID,
			MedicineID: in.MedicineID,
			Quantity:   in.Quantity,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := UpsertItem(ctx, db, it); err != nil {
			return fmt.Errorf("storing cart item: %w", err)
		}

		return web.Respond(ctx, w, it, http.StatusOK)
	}
}

func HandleDeleteItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "medicine_id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := DeleteItem(ctx, db, clm.UserID, id); err != nil {
			return fmt.Errorf("deleting cart item: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		if err := Delete(ctx, db, clm.UserID); err != nil {
			return fmt.Errorf("flushing cart: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
