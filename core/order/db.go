package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("order not found")

func Create(ctx context.Context, db sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders
		(order_id, user_id, provider_id, reference, status, subtotal, tax, shipping, total, currency,
		 street, city, state, zip_code, country, created_at, updated_at)
	VALUES
		(:order_id, :user_id, :provider_id, :reference, :status, :subtotal, :tax, :shipping, :total, :currency,
		 :street, :city, :state, :zip_code, :country, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ord); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(order_id, medicine_id, unit_price, discount_percent, quantity, created_at)
	VALUES
		(:order_id, :medicine_id, :unit_price, :discount_percent, :quantity, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("fetching order[%s]: %w", id, err)
	}

	return ord, nil
}

func FetchByProviderID(ctx context.Context, db sqlx.ExtContext, providerID string) (Order, error) {
	const q = `SELECT * FROM orders WHERE provider_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, providerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("fetching order bound to payment[%s]: %w", providerID, err)
	}

	return ord, nil
}

// FetchPendingByUser returns the user's most recent pending order, if any.
// It is the guard against a second checkout while one is in flight.
func FetchPendingByUser(ctx context.Context, db sqlx.ExtContext, userID string) (Order, error) {
	const q = `
	SELECT * FROM orders
	WHERE user_id = $1 AND status = 'pending'
	ORDER BY created_at DESC
	LIMIT 1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("fetching pending order for user[%s]: %w", userID, err)
	}

	return ord, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID string) ([]Item, error) {
	const q = `SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, orderID); err != nil {
		return nil, fmt.Errorf("fetching items of order[%s]: %w", orderID, err)
	}

	return items, nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Order, error) {
	const q = `SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	ords := []Order{}
	if err := sqlx.SelectContext(ctx, db, &ords, q, userID); err != nil {
		return nil, fmt.Errorf("fetching orders for user[%s]: %w", userID, err)
	}

	return ords, nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `UPDATE orders SET status = :status, updated_at = :updated_at WHERE order_id = :order_id`

	res, err := sqlx.NamedExecContext(ctx, db, q, up)
	if err != nil {
		return fmt.Errorf("updating status of order[%s]: %w", up.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

// BindProvider attaches the payment provider's id once the provider accepted
// the payment request. The order exists before this point, so a provider
// failure leaves a pending row behind rather than losing the attempt.
func BindProvider(ctx context.Context, db sqlx.ExtContext, orderID string, providerID string) error {
	const q = `UPDATE orders SET provider_id = $2, updated_at = $3 WHERE order_id = $1`

	if _, err := db.ExecContext(ctx, q, orderID, providerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("binding order[%s] to payment[%s]: %w", orderID, providerID, err)
	}

	return nil
}

// ExpirePending marks pending orders created before the cutoff as expired.
func ExpirePending(ctx context.Context, db sqlx.ExtContext, before time.Time) (int64, error) {
	const q = `UPDATE orders SET status = 'expired', updated_at = $2 WHERE status = 'pending' AND created_at < $1`

	res, err := db.ExecContext(ctx, q, before, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expiring pending orders: %w", err)
	}

	n, _ := res.RowsAffected()
	return n, nil
}
