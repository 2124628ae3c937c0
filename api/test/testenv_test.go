package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/pharmakart/pharmacy-api/api"
	"github.com/pharmakart/pharmacy-api/api/background"
	"github.com/pharmakart/pharmacy-api/config"
	"github.com/pharmakart/pharmacy-api/core/claims"
	"github.com/pharmakart/pharmacy-api/core/pricing"
	"github.com/pharmakart/pharmacy-api/core/user"
	"github.com/pharmakart/pharmacy-api/database"
	"github.com/pharmakart/pharmacy-api/rate"
	"github.com/pharmakart/pharmacy-api/validate"
	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"golang.org/x/crypto/bcrypt"
)

const (
	UserEmail  = "user@test.com"
	UserPass   = "userpass123"
	AdminEmail = "admin@test.com"
	AdminPass  = "adminpass123"
)

type TestEnv struct {
	URL           string
	DB            *sqlx.DB
	Stripe        *mockStripe
	Paypal        *mockPaypal
	WebhookSecret string

	t      *testing.T
	server *httptest.Server
	client *http.Client
}

// NewTestEnv boots a throwaway postgres container, migrates the schema,
// seeds a user and an admin, and serves the full API against mock payment
// providers.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}

	resource, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=" + name,
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	t.Cleanup(func() { pool.Purge(resource) })

	var db *sqlx.DB
	err = pool.Retry(func() error {
		var err error
		db, err = database.Open(config.DB{
			User:       "postgres",
			Password:   "postgres",
			Host:       "localhost:" + resource.GetPort("5432/tcp"),
			Name:       name,
			DisableTLS: true,
		})
		if err != nil {
			return err
		}
		return database.StatusCheck(context.Background(), db)
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to test db: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test db: %w", err)
	}

	if err := seedUsers(db); err != nil {
		return nil, fmt.Errorf("seeding users: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	strpMock := &mockStripe{intents: make(map[string]string)}
	strpSrv := httptest.NewServer(strpMock.handle())
	t.Cleanup(strpSrv.Close)

	b := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL: stripe.String(strpSrv.URL),
	})
	strp := &stripecl.API{}
	strp.Init("sk_test_fake", &stripe.Backends{API: b, Connect: b, Uploads: b})

	ppMock := &mockPaypal{}
	ppSrv := httptest.NewServer(ppMock.handle())
	t.Cleanup(ppSrv.Close)

	pp, err := paypal.NewClient("test-client", "test-secret", ppSrv.URL)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}

	session := scs.New()
	session.Lifetime = time.Hour

	const whSecret = "whsec_test_secret"

	checkoutCfg := config.Checkout{
		Currency:              "usd",
		TaxRate:               "0.08",
		FreeShippingThreshold: "50",
		ShippingFee:           "9.99",
		PendingTimeout:        30 * time.Minute,
	}

	mux := api.APIMux(api.APIConfig{
		Log:        logger,
		DB:         db,
		Session:    session,
		Background: background.New(logger),
		Paypal:     pp,
		Stripe:     strp,
		StripeCfg: config.Stripe{
			APISecret:     "sk_test_fake",
			WebhookSecret: whSecret,
		},
		CheckoutCfg: checkoutCfg,
		Pricing: pricing.Config{
			TaxRate:               decimal.RequireFromString(checkoutCfg.TaxRate),
			FreeShippingThreshold: decimal.RequireFromString(checkoutCfg.FreeShippingThreshold),
			ShippingFee:           decimal.RequireFromString(checkoutCfg.ShippingFee),
		},
		LoginLimiter: rate.NewLimiter(100, 100, 100),
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}

	return &TestEnv{
		URL:           srv.URL,
		DB:            db,
		Stripe:        strpMock,
		Paypal:        ppMock,
		WebhookSecret: whSecret,
		t:             t,
		server:        srv,
		client:        &http.Client{Jar: jar},
	}, nil
}

func (e *TestEnv) Client() *http.Client { return e.client }

func (e *TestEnv) Login(t *testing.T, email string, pass string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": pass})
	w, err := e.client.Post(e.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't login as %s: status code %s", email, w.Status)
	}
}

func (e *TestEnv) Logout(t *testing.T) {
	t.Helper()

	w, err := e.client.Post(e.URL+"/auth/logout", "application/json", nil)
	if err != nil {
		t.Fatalf("logout request: %v", err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't logout: status code %s", w.Status)
	}
}

// do sends a JSON request with the session cookies and decodes the response
// into out when it is non-nil.
func (e *TestEnv) do(t *testing.T, method string, path string, in any, out any, wantStatus int) {
	t.Helper()

	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
	}

	r, err := http.NewRequest(method, e.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("Content-Type", "application/json")

	w, err := e.client.Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != wantStatus {
		t.Fatalf("%s %s: status code %s, want %d", method, path, w.Status, wantStatus)
	}

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("decoding response of %s %s: %v", method, path, err)
		}
	}
}

func seedUsers(db *sqlx.DB) error {
	now := time.Now().UTC()

	for _, seed := range []struct {
		email string
		pass  string
		role  string
	}{
		{UserEmail, UserPass, claims.RoleUser},
		{AdminEmail, AdminPass, claims.RoleAdmin},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.pass), bcrypt.MinCost)
		if err != nil {
			return err
		}

		u := user.User{
			ID:           validate.GenerateID(),
			Name:         "Test " + seed.role,
			Email:        seed.email,
			Role:         seed.role,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(context.Background(), db, u); err != nil {
			return err
		}
	}

	return nil
}
