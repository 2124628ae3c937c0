package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Fetch returns the cart row for a user, creating it lazily on first use.
func Fetch(ctx context.Context, db *sqlx.DB, userID string) (Cart, error) {
	const q = `SELECT user_id, created_at, updated_at, version FROM carts WHERE user_id = $1`

	var c Cart
	err := sqlx.GetContext(ctx, db, &c, q, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Cart{}, fmt.Errorf("fetching cart for user[%s]: %w", userID, err)
	}

	now := time.Now().UTC()
	c = Cart{UserID: userID, CreatedAt: now, UpdatedAt: now, Version: 1}

	const ins = `
	INSERT INTO carts (user_id, created_at, updated_at, version)
	VALUES (:user_id, :created_at, :updated_at, :version)
	ON CONFLICT (user_id) DO NOTHING`

	if _, err := sqlx.NamedExecContext(ctx, db, ins, c); err != nil {
		return Cart{}, fmt.Errorf("creating cart for user[%s]: %w", userID, err)
	}

	return c, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, userID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE user_id = $1 ORDER BY created_at`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, userID); err != nil {
		return nil, fmt.Errorf("fetching cart items for user[%s]: %w", userID, err)
	}

	return items, nil
}

// FetchLines joins cart items with current medicine prices, in the shape the
// pricing engine consumes.
func FetchLines(ctx context.Context, db sqlx.ExtContext, userID string) ([]Line, error) {
	const q = `
	SELECT ci.medicine_id, ci.quantity, m.price, m.discount_percent
	FROM cart_items ci
	JOIN medicines m USING (medicine_id)
	WHERE ci.user_id = $1
	ORDER BY ci.created_at`

	lines := []Line{}
	if err := sqlx.SelectContext(ctx, db, &lines, q, userID); err != nil {
		return nil, fmt.Errorf("fetching cart lines for user[%s]: %w", userID, err)
	}

	return lines, nil
}

// UpsertItem adds a medicine to the cart or replaces its quantity.
func UpsertItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO cart_items (user_id, medicine_id, quantity, created_at, updated_at)
	VALUES (:user_id, :medicine_id, :quantity, :created_at, :updated_at)
	ON CONFLICT (user_id, medicine_id)
	DO UPDATE SET quantity = :quantity, updated_at = :updated_at`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("upserting cart item: %w", err)
	}

	return touch(ctx, db, it.UserID)
}

func DeleteItem(ctx context.Context, db sqlx.ExtContext, userID string, medicineID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND medicine_id = $2`

	if _, err := db.ExecContext(ctx, q, userID, medicineID); err != nil {
		return fmt.Errorf("deleting cart item[%s]: %w", medicineID, err)
	}

	return touch(ctx, db, userID)
}

// Delete clears all items from a user's cart.
func Delete(ctx context.Context, db sqlx.ExtContext, userID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("flushing cart for user[%s]: %w", userID, err)
	}

	return touch(ctx, db, userID)
}

// touch bumps the cart version. A version change invalidates any pending
// checkout started against the previous contents.
func touch(ctx context.Context, db sqlx.ExtContext, userID string) error {
	const q = `UPDATE carts SET updated_at = $2, version = version + 1 WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touching cart for user[%s]: %w", userID, err)
	}

	return nil
}
