// Package clients stores the user's counterparties ("clients") and validates their addresses.
package clients

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/shopspring/decimal"
)

const (
	AddressMinLength = 25
	AddressMaxLength = 34
)

// ClientParams are the user-supplied fields of a new client.
type ClientParams struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type Client struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
}

var nameNotBlank = regexp.MustCompile(`\S`)

// AddressRules are applied in order; the first failing rule gives the message.
var AddressRules = []validation.Rule{
	validation.Required.Error("Address is required."),
	validation.Length(AddressMinLength, AddressMaxLength).Error("Address must be between 25 and 34 characters long."),
	is.Alphanumeric.Error("Address must be composed of alphanumeric values only."),
}

// ValidateAddress returns nil for a valid address, otherwise an error whose
// message is meant for the user.
func ValidateAddress(address string) error {
	return validation.Validate(address, AddressRules...)
}

// Validate checks every field of the params.
func (p ClientParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name,
			validation.Required.Error("Name is required."),
			validation.Match(nameNotBlank).Error("Name is required."),
			validation.Length(1, 100).Error("Name must be at most 100 characters long."),
		),
		validation.Field(&p.Address, AddressRules...),
	)
}
