package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/pharmakart/pharmacy-api/api/background"
	"github.com/pharmakart/pharmacy-api/api/middleware"
	"github.com/pharmakart/pharmacy-api/api/web"
	"github.com/pharmakart/pharmacy-api/config"
	"github.com/pharmakart/pharmacy-api/core/auth"
	"github.com/pharmakart/pharmacy-api/core/cart"
	"github.com/pharmakart/pharmacy-api/core/category"
	"github.com/pharmakart/pharmacy-api/core/checkout"
	"github.com/pharmakart/pharmacy-api/core/medicine"
	"github.com/pharmakart/pharmacy-api/core/order"
	"github.com/pharmakart/pharmacy-api/core/pricing"
	"github.com/pharmakart/pharmacy-api/core/promo"
	"github.com/pharmakart/pharmacy-api/core/user"
	"github.com/pharmakart/pharmacy-api/rate"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Session          *scs.SessionManager
	Background       *background.Background
	Paypal           *paypal.Client
	Stripe           *stripecl.API
	StripeCfg        config.Stripe
	CheckoutCfg      config.Checkout
	Pricing          pricing.Config
	Providers        map[string]auth.Provider
	LoginRedirectURL string
	LoginLimiter     *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)
	limited := middleware.RateLimit(cfg.LoginLimiter)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session), limited)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session), limited)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodGet, "/users/{id}", user.HandleShow(cfg.DB), authen)

	a.Handle(http.MethodGet, "/categories", category.HandleList(cfg.DB))
	a.Handle(http.MethodGet, "/categories/{id}/medicines", category.HandleListMedicines(cfg.DB))
	a.Handle(http.MethodPost, "/categories", category.HandleCreate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/medicines", medicine.HandleList(cfg.DB))
	a.Handle(http.MethodGet, "/medicines/{id}", medicine.HandleShow(cfg.DB))
	a.Handle(http.MethodPost, "/medicines", medicine.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/medicines/{id}", medicine.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/promotions/hero-slides", promo.HandleListVisible(cfg.DB, promo.PlacementHero))
	a.Handle(http.MethodGet, "/promotions/banners", promo.HandleListVisible(cfg.DB, promo.PlacementBanner))
	a.Handle(http.MethodPost, "/promotions", promo.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/promotions/{id}", promo.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB, cfg.Pricing), authen)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.DB), authen)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart/items/{medicine_id}", cart.HandleDeleteItem(cfg.DB), authen)

	a.Handle(http.MethodGet, "/orders", order.HandleListOwned(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(cfg.DB), authen)

	deps := checkout.Deps{
		DB:         cfg.DB,
		Background: cfg.Background,
		Pricing:    cfg.Pricing,
		Checkout:   cfg.CheckoutCfg,
	}

	a.Handle(http.MethodPost, "/checkout/stripe", checkout.HandleStripeCheckout(deps, cfg.Stripe), authen)
	a.Handle(http.MethodPost, "/checkout/stripe/confirm", checkout.HandleStripeConfirm(deps, cfg.Stripe), authen)
	a.Handle(http.MethodPost, "/checkout/stripe/capture", checkout.HandleStripeCapture(deps, cfg.StripeCfg))
	a.Handle(http.MethodPost, "/checkout/paypal", checkout.HandlePaypalCheckout(deps, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/checkout/paypal/{id}/capture", checkout.HandlePaypalCapture(deps, cfg.Paypal), authen)
	a.Handle(http.MethodGet, "/checkout/{order_id}/status", checkout.HandleStatus(deps), authen)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
