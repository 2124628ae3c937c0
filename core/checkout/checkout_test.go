package checkout

import (
	"testing"

	"github.com/pharmakart/pharmacy-api/core/order"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusIdle, StatusProcessing, true},
		{StatusProcessing, StatusSucceeded, true},
		{StatusProcessing, StatusFailed, true},
		{StatusFailed, StatusProcessing, true},
		{StatusIdle, StatusSucceeded, false},
		{StatusSucceeded, StatusProcessing, false},
		{StatusFailed, StatusSucceeded, false},
	}

	for _, tt := range tests {
		err := Transition(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Errorf("Transition(%s, %s) = %v, want nil", tt.from, tt.to, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("Transition(%s, %s) = nil, want error", tt.from, tt.to)
		}
	}
}

func TestCanSubmit(t *testing.T) {
	if !StatusIdle.CanSubmit() {
		t.Error("idle should accept a submission")
	}
	if !StatusFailed.CanSubmit() {
		t.Error("failed is not terminal, resubmission must be possible")
	}
	if StatusProcessing.CanSubmit() {
		t.Error("only one sequence may be in flight")
	}
	if StatusSucceeded.CanSubmit() {
		t.Error("a succeeded attempt is terminal")
	}
}

func validAddress() Address {
	return Address{
		Street:  "100 Main Street",
		City:    "Springfield",
		State:   "IL",
		ZipCode: "62704",
		Country: "US",
	}
}

func TestCheckAddressOK(t *testing.T) {
	fields, err := Check(validAddress())
	if err != nil {
		t.Fatalf("valid address rejected: %v (%v)", err, fields)
	}

	a := validAddress()
	a.ZipCode = "62704-1234"
	if fields, err := Check(a); err != nil {
		t.Fatalf("ZIP+4 rejected: %v (%v)", err, fields)
	}
}

func TestCheckAddressFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Address)
		field  string
	}{
		{"short street", func(a *Address) { a.Street = "5 st" }, "street"},
		{"short city", func(a *Address) { a.City = "x" }, "city"},
		{"short state", func(a *Address) { a.State = "i" }, "state"},
		{"missing country", func(a *Address) { a.Country = "" }, "country"},
		{"bad zip", func(a *Address) { a.ZipCode = "1234" }, "zipCode"},
		{"zip with letters", func(a *Address) { a.ZipCode = "62a04" }, "zipCode"},
		{"zip+4 too long", func(a *Address) { a.ZipCode = "62704-12345" }, "zipCode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAddress()
			tt.mutate(&a)

			fields, err := Check(a)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if _, ok := fields[tt.field]; !ok {
				t.Fatalf("expected error on field %q, got %v", tt.field, fields)
			}
		})
	}
}

func TestCheckAddressReportsAllFields(t *testing.T) {
	fields, err := Check(Address{})
	if err == nil {
		t.Fatal("expected validation error")
	}

	for _, f := range []string{"street", "city", "state", "zipCode", "country"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("missing error for field %q", f)
		}
	}
}

func TestStatusOf(t *testing.T) {
	// Stored order statuses map onto the attempt machine the storefront polls.
	tests := []struct {
		in   order.Status
		want Status
	}{
		{order.Pending, StatusProcessing},
		{order.Paid, StatusSucceeded},
		{order.Failed, StatusFailed},
		{order.Expired, StatusFailed},
	}

	for _, tt := range tests {
		if got := StatusOf(tt.in); got != tt.want {
			t.Errorf("StatusOf(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
