package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pharmakart/pharmacy-api/api/background"
	"github.com/pharmakart/pharmacy-api/api/web"
	"github.com/pharmakart/pharmacy-api/api/weberr"
	"github.com/pharmakart/pharmacy-api/config"
	"github.com/pharmakart/pharmacy-api/core/claims"
	"github.com/pharmakart/pharmacy-api/core/order"
	"github.com/pharmakart/pharmacy-api/core/pricing"
	"github.com/pharmakart/pharmacy-api/core/user"
	"github.com/pharmakart/pharmacy-api/validate"
	"github.com/plutov/paypal/v4"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// Deps bundles what every checkout handler needs.
type Deps struct {
	DB         *sqlx.DB
	Background *background.Background
	Pricing    pricing.Config
	Checkout   config.Checkout
}

// Intent is the payload handed back to the storefront after the payment
// request step. The client secret feeds the provider's client SDK.
type Intent struct {
	OrderID      string `json:"orderId"`
	Reference    string `json:"reference"`
	Status       Status `json:"status"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type ConfirmReq struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
	OrderID         string `json:"orderId" validate:"required,uuid4"`
}

// begin runs the shared head of every checkout sequence: authentication,
// address validation, and the single-flight guard. Stale pending orders found
// by the guard are expired off the request path.
func (d Deps) begin(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, Address, error) {
	clm, err := claims.Get(ctx)
	if err != nil {
		return "", Address{}, weberr.NotAuthorized(errors.New("user not authenticated"))
	}

	var addr Address
	if err := web.Decode(w, r, &addr); err != nil {
		return "", Address{}, weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
	}

	if fields, err := Check(addr); err != nil {
		body := struct {
			Error  string                 `json:"error"`
			Fields map[string]interface{} `json:"fields"`
		}{err.Error(), fields}

		return "", Address{}, weberr.Wrap(err,
			weberr.WithFields(fields),
			weberr.WithResponse(body, http.StatusUnprocessableEntity),
		)
	}

	stale, err := guard(ctx, d.DB, clm.UserID, d.Checkout.PendingTimeout)
	if err != nil {
		if errors.Is(err, ErrInFlight) {
			return "", Address{}, weberr.NewError(err, err.Error(), http.StatusConflict)
		}
		return "", Address{}, fmt.Errorf("guarding checkout: %w", err)
	}

	if stale {
		timeout := d.Checkout.PendingTimeout
		d.Background.Run("expire-orders", func(ctx context.Context) error {
			_, err := order.ExpirePending(ctx, d.DB, time.Now().UTC().Add(-timeout))
			return err
		})
	}

	return clm.UserID, addr, nil
}

// HandleStripeCheckout runs the sequence up to the payment request: validate
// address, create the pending order, then ask Stripe for a payment intent
// sized to the grand total in cents. An intent failure marks the order failed
// but never rolls it back.
func HandleStripeCheckout(d Deps, strp *stripecl.API) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		userID, addr, err := d.begin(ctx, w, r)
		if err != nil {
			return err
		}

		usr, err := user.Fetch(ctx, d.DB, userID)
		if err != nil {
			return fmt.Errorf("fetching user[%s]: %w", userID, err)
		}

		ord, err := prepare(ctx, d.DB, userID, addr, d.Pricing, d.Checkout.Currency)
		if err != nil {
			if errors.Is(err, ErrEmptyCart) {
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			}
			return fmt.Errorf("creating the order on the database: %w", err)
		}

		params := &stripe.PaymentIntentParams{
			Amount:       stripe.Int64(pricing.Cents(ord.Total)),
			Currency:     stripe.String(d.Checkout.Currency),
			ReceiptEmail: stripe.String(usr.Email),
		}
		params.AddMetadata("order_id", ord.ID)

		pi, err := strp.PaymentIntents.New(params)
		if err != nil {
			if ferr := failOrder(ctx, d.DB, ord.ID); ferr != nil {
				return fmt.Errorf("failing order after intent error: %v: %w", ferr, err)
			}
			return providerError(fmt.Errorf("creating stripe payment intent: %w", err))
		}

		if err := order.BindProvider(ctx, d.DB, ord.ID, pi.ID); err != nil {
			return fmt.Errorf("binding order to payment intent: %w", err)
		}

		out := Intent{
			OrderID:      ord.ID,
			Reference:    ord.Reference,
			Status:       StatusProcessing,
			ClientSecret: pi.ClientSecret,
			Amount:       pricing.Cents(ord.Total),
			Currency:     ord.Currency,
		}

		return web.Respond(ctx, w, out, http.StatusOK)
	}
}

// HandleStripeCapture receives Stripe webhook events and settles the order
// either way. A reconcile error after a successful payment is retried in the
// background: the money moved, only our bookkeeping is behind.
func HandleStripeCapture(d Deps, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		var pi stripe.PaymentIntent
		switch event.Type {
		case "payment_intent.succeeded", "payment_intent.payment_failed":
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
			}
		default:
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if event.Type == "payment_intent.payment_failed" {
			if err := fail(ctx, d.DB, pi.ID); err != nil {
				return fmt.Errorf("recording failed payment[%s]: %w", pi.ID, err)
			}
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if err := reconcile(ctx, d.DB, pi.ID); err != nil {
			d.Background.Run("reconcile-order", func(ctx context.Context) error {
				return reconcile(ctx, d.DB, pi.ID)
			})
			return fmt.Errorf("the order was payed but its reconciliation failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleStripeConfirm is the client-driven confirmation path: after the
// provider SDK reports success the storefront posts the intent and order ids
// here, and we verify the claim against Stripe before reconciling.
func HandleStripeConfirm(d Deps, strp *stripecl.API) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var req ConfirmReq
		if err := web.Decode(w, r, &req); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(req); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		ord, err := order.Fetch(ctx, d.DB, req.OrderID)
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching order[%s]: %w", req.OrderID, err)
		}

		if ord.UserID != clm.UserID {
			return weberr.NotFound(errors.New("order belongs to another user"))
		}

		if ord.ProviderID != req.PaymentIntentID {
			return weberr.BadRequest(errors.New("payment intent does not belong to order"))
		}

		pi, err := strp.PaymentIntents.Get(req.PaymentIntentID, nil)
		if err != nil {
			return providerError(fmt.Errorf("fetching stripe payment intent: %w", err))
		}

		if pi.Status != stripe.PaymentIntentStatusSucceeded {
			return weberr.NewError(
				fmt.Errorf("payment intent in status %s", pi.Status),
				"payment has not succeeded",
				http.StatusConflict,
			)
		}

		if err := reconcile(ctx, d.DB, req.PaymentIntentID); err != nil {
			d.Background.Run("reconcile-order", func(ctx context.Context) error {
				return reconcile(ctx, d.DB, req.PaymentIntentID)
			})
			return fmt.Errorf("the order was payed but its reconciliation failed: %w", err)
		}

		return web.Respond(ctx, w, Intent{
			OrderID:   ord.ID,
			Reference: ord.Reference,
			Status:    StatusSucceeded,
			Amount:    pricing.Cents(ord.Total),
			Currency:  ord.Currency,
		}, http.StatusOK)
	}
}

// HandleStatus lets the storefront poll where an attempt stands.
func HandleStatus(d Deps) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "order_id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		ord, err := order.Fetch(ctx, d.DB, id)
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching order[%s]: %w", id, err)
		}

		if ord.UserID != clm.UserID {
			return weberr.NotFound(errors.New("order belongs to another user"))
		}

		out := struct {
			OrderID string `json:"orderId"`
			Status  Status `json:"status"`
		}{ord.ID, StatusOf(ord.Status)}

		return web.Respond(ctx, w, out, http.StatusOK)
	}
}

func HandlePaypalCheckout(d Deps, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		userID, addr, err := d.begin(ctx, w, r)
		if err != nil {
			return err
		}

		ord, err := prepare(ctx, d.DB, userID, addr, d.Pricing, d.Checkout.Currency)
		if err != nil {
			if errors.Is(err, ErrEmptyCart) {
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			}
			return fmt.Errorf("creating the order on the database: %w", err)
		}

		items, err := order.FetchItems(ctx, d.DB, ord.ID)
		if err != nil {
			return fmt.Errorf("fetching items of order[%s]: %w", ord.ID, err)
		}

		cur := strings.ToUpper(ord.Currency)
		ppItems := make([]paypal.Item, 0, len(items))
		for _, it := range items {
			line := pricing.Line{
				ProductID:       it.MedicineID,
				UnitPrice:       it.UnitPrice,
				DiscountPercent: it.DiscountPercent,
				Quantity:        it.Quantity,
			}

			ppItems = append(ppItems, paypal.Item{
				Quantity: strconv.Itoa(it.Quantity),
				Name:     it.MedicineID,

				UnitAmount: &paypal.Money{
					Currency: cur,
					Value:    pricing.EffectiveUnitPrice(line).StringFixed(2),
				},
			})
		}

		units := []paypal.PurchaseUnitRequest{{
			Items:       ppItems,
			ReferenceID: ord.Reference,

			Amount: &paypal.PurchaseUnitAmount{
				Currency: cur,
				Value:    ord.Total.StringFixed(2),

				Breakdown: &paypal.PurchaseUnitAmountBreakdown{
					ItemTotal: &paypal.Money{Currency: cur, Value: ord.Subtotal.StringFixed(2)},
					TaxTotal:  &paypal.Money{Currency: cur, Value: ord.Tax.StringFixed(2)},
					Shipping:  &paypal.Money{Currency: cur, Value: ord.Shipping.StringFixed(2)},
				},
			},
		}}

		ppOrd, err := pp.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, nil)
		if err != nil {
			if ferr := failOrder(ctx, d.DB, ord.ID); ferr != nil {
				return fmt.Errorf("failing order after paypal error: %v: %w", ferr, err)
			}
			return providerError(fmt.Errorf("creating paypal order: %w", err))
		}

		if err := order.BindProvider(ctx, d.DB, ord.ID, ppOrd.ID); err != nil {
			return fmt.Errorf("binding order to paypal order: %w", err)
		}

		return web.Respond(ctx, w, ppOrd, http.StatusOK)
	}
}

func HandlePaypalCapture(d Deps, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		providerID := web.Param(r, "id")

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return providerError(fmt.Errorf("capturing paypal order[%s]: %w", providerID, err))
		}

		if resp.Status != "COMPLETED" {
			if ferr := fail(ctx, d.DB, providerID); ferr != nil {
				return fmt.Errorf("failing order after capture status[%s]: %w", resp.Status, ferr)
			}
			return weberr.NewError(
				fmt.Errorf("captured order[%s] with status[%s]", providerID, resp.Status),
				"payment was not completed",
				http.StatusConflict,
			)
		}

		if err := reconcile(ctx, d.DB, providerID); err != nil {
			d.Background.Run("reconcile-order", func(ctx context.Context) error {
				return reconcile(ctx, d.DB, providerID)
			})
			return fmt.Errorf("the order was payed but its reconciliation failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// providerError surfaces the collaborator's own message when it has one,
// falling back to a generic payment error.
func providerError(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Msg != "" {
		return weberr.NewError(err, serr.Msg, http.StatusBadGateway)
	}

	var perr *paypal.ErrorResponse
	if errors.As(err, &perr) && perr.Message != "" {
		return weberr.NewError(err, perr.Message, http.StatusBadGateway)
	}

	return weberr.NewError(err, "payment provider request failed", http.StatusBadGateway)
}
