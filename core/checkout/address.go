package checkout

import (
	"errors"
	"regexp"

	"github.com/pharmakart/pharmacy-api/validate"
)

// zipRE accepts a plain 5-digit code or ZIP+4.
var zipRE = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

type Address struct {
	Street  string `json:"street" validate:"required,min=5"`
	City    string `json:"city" validate:"required,min=2"`
	State   string `json:"state" validate:"required,min=2"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// Check validates the shipping address and reports every failing field at
// once, so the storefront can annotate the whole form in a single round trip.
func Check(a Address) (map[string]interface{}, error) {
	fields := validate.CheckFields(a)

	if a.ZipCode != "" && !zipRE.MatchString(a.ZipCode) {
		if fields == nil {
			fields = make(map[string]interface{})
		}
		fields["zipCode"] = "zipCode must be a 5-digit or ZIP+4 code"
	}

	if len(fields) > 0 {
		return fields, errors.New("invalid shipping address")
	}

	return nil, nil
}
