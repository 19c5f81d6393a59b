package valueobject

import (
	"strings"

	"github.com/google/uuid"
)

// Currency describes a billing currency as configured in the system.
// The zero value is the "unset" currency, which is a valid terminal state.
type Currency struct {
	ID     uuid.UUID `json:"id,omitempty"`
	Code   string    `json:"code"`   // ISO 4217, e.g. "KES"
	Name   string    `json:"name"`   // e.g. "Kenyan Shilling"
	Symbol string    `json:"symbol"` // e.g. "KSh"
}

// NewCurrency creates a currency, normalizing the code to upper case
func NewCurrency(id uuid.UUID, code, name, symbol string) Currency {
	return Currency{
		ID:     id,
		Code:   strings.ToUpper(strings.TrimSpace(code)),
		Name:   name,
		Symbol: symbol,
	}
}

// IsSet returns true if the currency carries a code
func (c Currency) IsSet() bool {
	return c.Code != ""
}

// Equals compares currencies by code
func (c Currency) Equals(other Currency) bool {
	return c.Code == other.Code
}

// String returns the currency code
func (c Currency) String() string {
	return c.Code
}

// ResolveCurrency returns primary when it is set, otherwise fallback, otherwise the
// unset currency. It never fails.
func ResolveCurrency(primary, fallback *Currency) Currency {
	if primary != nil && primary.IsSet() {
		return *primary
	}
	if fallback != nil && fallback.IsSet() {
		return *fallback
	}
	return Currency{}
}
