package config

import (
	"time"
)

type Config struct {
	Web      Web
	DB       DB
	Cors     Cors
	Auth     Auth
	Oauth    Oauth
	Stripe   Stripe
	Paypal   Paypal
	Checkout Checkout
	Rate     Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:pharmacy"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string `conf:"default:"`
}

type Auth struct {
	SessionLifetime time.Duration `conf:"default:24h"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:http://localhost:3000"`
	Google           OauthProvider
}

type OauthProvider struct {
	Client      string `conf:"default:disabled"`
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string `conf:"default:http://localhost:8000/auth/oauth-callback/google"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api.sandbox.paypal.com"`
}

// Checkout carries the storefront money constants. Amounts are parsed as
// strings so they survive the trip into decimals without a float detour.
type Checkout struct {
	Currency              string        `conf:"default:usd"`
	TaxRate               string        `conf:"default:0.08"`
	FreeShippingThreshold string        `conf:"default:50"`
	ShippingFee           string        `conf:"default:9.99"`
	PendingTimeout        time.Duration `conf:"default:30m"`
}

type Rate struct {
	Burst    int     `conf:"default:5"`
	ExpiryMn int     `conf:"default:60"`
	RPS      float64 `conf:"default:1"`
}
