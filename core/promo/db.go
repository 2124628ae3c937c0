package promo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("promo item not found")

func Create(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO promo_items
		(promo_id, placement, title, subtitle, image_url, target_url, active, starts_at, ends_at, created_at, updated_at)
	VALUES
		(:promo_id, :placement, :title, :subtitle, :image_url, :target_url, :active, :starts_at, :ends_at, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting promo item: %w", err)
	}

	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	UPDATE promo_items SET
		title = :title,
		subtitle = :subtitle,
		image_url = :image_url,
		target_url = :target_url,
		active = :active,
		starts_at = :starts_at,
		ends_at = :ends_at,
		updated_at = :updated_at
	WHERE promo_id = :promo_id`

	res, err := sqlx.NamedExecContext(ctx, db, q, it)
	if err != nil {
		return fmt.Errorf("updating promo item[%s]: %w", it.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Item, error) {
	const q = `SELECT * FROM promo_items WHERE promo_id = $1`

	var it Item
	if err := sqlx.GetContext(ctx, db, &it, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("fetching promo item[%s]: %w", id, err)
	}

	return it, nil
}

// FetchByPlacement returns all items for a placement in insertion order,
// which is the display order for carousels.
func FetchByPlacement(ctx context.Context, db sqlx.ExtContext, placement string) ([]Item, error) {
	const q = `SELECT * FROM promo_items WHERE placement = $1 ORDER BY position`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, placement); err != nil {
		return nil, fmt.Errorf("fetching promo items for placement[%s]: %w", placement, err)
	}

	return items, nil
}
