// Package checkout drives the multi-step checkout protocol: address
// validation, order creation, payment request, and reconciliation once the
// provider reports an outcome. The steps are strictly sequential because each
// consumes the previous step's output.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pharmakart/pharmacy-api/core/cart"
	"github.com/pharmakart/pharmacy-api/core/order"
	"github.com/pharmakart/pharmacy-api/core/pricing"
	"github.com/pharmakart/pharmacy-api/database"
	"github.com/pharmakart/pharmacy-api/random"
	"github.com/pharmakart/pharmacy-api/validate"
)

// Status is the state of one checkout attempt as seen by the storefront.
// Failed is not terminal: a resubmission runs the whole sequence again.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

var transitions = map[Status][]Status{
	StatusIdle:       {StatusProcessing},
	StatusProcessing: {StatusSucceeded, StatusFailed},
	StatusFailed:     {StatusProcessing},
}

// CanSubmit reports whether a new sequence may start from this state.
func (s Status) CanSubmit() bool {
	for _, next := range transitions[s] {
		if next == StatusProcessing {
			return true
		}
	}
	return false
}

// Transition validates a state change against the protocol.
func Transition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("illegal checkout transition %s -> %s", from, to)
}

// StatusOf maps a stored order status onto the attempt state machine.
func StatusOf(s order.Status) Status {
	switch s {
	case order.Pending:
		return StatusProcessing
	case order.Paid:
		return StatusSucceeded
	case order.Failed, order.Expired:
		return StatusFailed
	}
	return StatusIdle
}

var (
	ErrEmptyCart = errors.New("no items to checkout")
	ErrInFlight  = errors.New("a checkout is already in progress")
)

// guard enforces one in-flight sequence per user. A stale pending order no
// longer blocks; the caller is expected to expire it.
func guard(ctx context.Context, db *sqlx.DB, userID string, pendingTimeout time.Duration) (stale bool, err error) {
	ord, err := order.FetchPendingByUser(ctx, db, userID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if time.Since(ord.CreatedAt) < pendingTimeout {
		return false, ErrInFlight
	}

	return true, nil
}

// prepare runs the order-creation step: snapshot the cart lines, price them,
// and persist the pending order with its items in one transaction.
func prepare(ctx context.Context, db *sqlx.DB, userID string, addr Address, prc pricing.Config, currency string) (order.Order, error) {
	lines, err := cart.FetchLines(ctx, db, userID)
	if err != nil {
		return order.Order{}, fmt.Errorf("fetching cart lines: %w", err)
	}

	if len(lines) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	tot := pricing.Compute(cart.PricingLines(lines), prc)

	now := time.Now().UTC()
	ord := order.Order{
		ID:        validate.GenerateID(),
		UserID:    userID,
		Reference: "PH-" + random.String(10),
		Status:    order.Pending,
		Subtotal:  tot.Subtotal.Round(2),
		Tax:       tot.Tax.Round(2),
		Shipping:  tot.Shipping.Round(2),
		Total:     tot.GrandTotal.Round(2),
		Currency:  currency,
		Street:    addr.Street,
		City:      addr.City,
		State:     addr.State,
		ZipCode:   addr.ZipCode,
		Country:   addr.Country,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := order.Create(ctx, tx, ord); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		for _, l := range lines {
			it := order.Item{
				OrderID:         ord.ID,
				MedicineID:      l.MedicineID,
				UnitPrice:       l.UnitPrice,
				DiscountPercent: l.DiscountPercent,
				Quantity:        l.Quantity,
				CreatedAt:       now,
			}

			if err := order.CreateItem(ctx, tx, it); err != nil {
				return fmt.Errorf("creating item: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return order.Order{}, fmt.Errorf("creating the order for user[%s]: %w", userID, err)
	}
	return ord, nil
}

// reconcile is the final step after the provider confirmed payment: mark the
// order paid and flush the cart, atomically. Calling it twice for the same
// payment is harmless.
func reconcile(ctx context.Context, db *sqlx.DB, providerID string) error {
	ord, err := order.FetchByProviderID(ctx, db, providerID)
	if err != nil {
		return fmt.Errorf("fetching the order bound to payment[%s]: %w", providerID, err)
	}

	if ord.Status == order.Paid {
		return nil
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		up := order.StatusUp{
			ID:        ord.ID,
			Status:    order.Paid,
			UpdatedAt: time.Now().UTC(),
		}

		if err := order.UpdateStatus(ctx, tx, up); err != nil {
			return fmt.Errorf("updating status: %w", err)
		}

		if err := cart.Delete(ctx, tx, ord.UserID); err != nil {
			return fmt.Errorf("flushing cart: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("reconciling the order[%s] bound to payment[%s]: %w", ord.ID, providerID, err)
	}
	return nil
}

// fail marks the order behind a payment as failed. The cart is deliberately
// left alone so the user can resubmit without rebuilding it.
func fail(ctx context.Context, db *sqlx.DB, providerID string) error {
	ord, err := order.FetchByProviderID(ctx, db, providerID)
	if err != nil {
		return fmt.Errorf("fetching the order bound to payment[%s]: %w", providerID, err)
	}

	if ord.Status != order.Pending {
		return nil
	}

	up := order.StatusUp{
		ID:        ord.ID,
		Status:    order.Failed,
		UpdatedAt: time.Now().UTC(),
	}

	if err := order.UpdateStatus(ctx, db, up); err != nil {
		return fmt.Errorf("failing the order[%s] bound to payment[%s]: %w", ord.ID, providerID, err)
	}
	return nil
}

// failOrder is fail for orders that never reached a provider.
func failOrder(ctx context.Context, db *sqlx.DB, orderID string) error {
	up := order.StatusUp{
		ID:        orderID,
		Status:    order.Failed,
		UpdatedAt: time.Now().UTC(),
	}

	if err := order.UpdateStatus(ctx, db, up); err != nil {
		return fmt.Errorf("failing the order[%s]: %w", orderID, err)
	}
	return nil
}
