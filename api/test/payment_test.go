package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pharmakart/pharmacy-api/api/web"
	"github.com/plutov/paypal/v4"
	mock "github.com/stripe/stripe-mock/param"
)

// mockStripe fakes the payment-intent endpoints. A test can arm failNext to
// simulate the provider rejecting the payment request, and flip an intent to
// succeeded to simulate the client SDK confirming the payment.
type mockStripe struct {
	mu             sync.Mutex
	seq            int
	intents        map[string]string
	failNext       bool
	expectedAmount string
	lastAmount     string
}

func (m *mockStripe) FailNext() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
}

func (m *mockStripe) ExpectAmount(cents string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectedAmount = cents
}

func (m *mockStripe) LastAmount() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAmount
}

func (m *mockStripe) MarkSucceeded(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[id] = "succeeded"
}

func (m *mockStripe) handle() http.Handler {
	create := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.failNext {
			m.failNext = false
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"type":    "card_error",
					"message": "Your card was declined.",
				},
			})
			return
		}

		params, _ := mock.ParseParams(r)
		amount, _ := params["amount"].(string)
		if amount == "" {
			web.Respond(context.Background(), w, nil, 400)
			return
		}
		m.lastAmount = amount

		if m.expectedAmount != "" && amount != m.expectedAmount {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		m.seq++
		id := fmt.Sprintf("pi_%d", m.seq)
		m.intents[id] = "requires_confirmation"

		web.Respond(context.Background(), w, map[string]any{
			"id":            id,
			"client_secret": id + "_secret_test",
			"status":        "requires_confirmation",
		}, 200)
	})

	get := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		id := mux.Vars(r)["id"]
		status, ok := m.intents[id]
		if !ok {
			web.Respond(context.Background(), w, nil, 404)
			return
		}

		web.Respond(context.Background(), w, map[string]any{
			"id":     id,
			"status": status,
		}, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/payment_intents", create).Methods("POST")
	r.Handle("/v1/payment_intents/{id}", get).Methods("GET")
	return r
}

// mockPaypal fakes the order endpoints plus the token endpoint the client
// refreshes against.
type mockPaypal struct {
	mu            sync.Mutex
	seq           int
	expectedTotal string
	failCapture   bool
}

func (m *mockPaypal) ExpectTotal(total string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectedTotal = total
}

func (m *mockPaypal) FailCapture() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCapture = true
}

func (m *mockPaypal) handle() http.Handler {
	token := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		web.Respond(context.Background(), w, map[string]any{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}, 200)
	})

	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if len(pu.Units) != 1 {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if m.expectedTotal != "" && pu.Units[0].Amount.Value != m.expectedTotal {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		m.seq++
		ord := paypal.Order{ID: fmt.Sprintf("paypal-%d", m.seq)}
		web.Respond(context.Background(), w, ord, 200)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		status := "COMPLETED"
		if m.failCapture {
			m.failCapture = false
			status = "VOIDED"
		}

		ord := paypal.Order{ID: mux.Vars(r)["id"], Status: status}
		web.Respond(context.Background(), w, ord, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/oauth2/token", token).Methods("POST")
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}
