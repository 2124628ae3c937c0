package promo

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
)

// HandleListVisible serves the items a storefront may show right now for the
// given placement. Ineligible items are dropped silently so a bad window on
// one slide degrades the carousel, never breaks it.
func HandleListVisible(db *sqlx.DB, placement string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		items, err := FetchByPlacement(ctx, db, placement)
		if err != nil {
			return fmt.Errorf("fetching %s items: %w", placement, err)
		}

		return web.Respond(ctx, w, Visible(items, time.Now().UTC()), http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		now := time.Now().UTC()
		it := Item{
			ID:        validate.GenerateID(),
			Placement: in.Placement,
			Title:     in.Title,
			Subtitle:  in.Subtitle,
			ImageURL:  in.ImageURL,
			TargetURL: in.TargetURL,
			Active:    in.Active,
			StartsAt:  in.StartsAt,
			EndsAt:    in.EndsAt,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := Create(ctx, db, it); err != nil {
			return fmt.Errorf("creating promo item: %w", err)
		}

		return web.Respond(ctx, w, it, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var up ItemUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		it, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching promo item[%s]: %w", id, err)
		}

		if up.Title != nil {
			it.Title = *up.Title
		}
		if up.Subtitle != nil {
			it.Subtitle = *up.Subtitle
		}
		if up.ImageURL != nil {
			it.ImageURL = *up.ImageURL
		}
		if up.TargetURL != nil {
			it.TargetURL = *up.TargetURL
		}
		if up.Active != nil {
			it.Active = *up.Active
		}
		if up.StartsAt != nil {
			it.StartsAt = up.StartsAt
		}
		if up.EndsAt != nil {
			it.EndsAt = up.EndsAt
		}
		it.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, it); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("updating promo item[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, it, http.StatusOK)
	}
}
