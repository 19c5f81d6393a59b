package billing

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Charge is one priced, typed billable entry for a period.
// Charges are created fresh on every engine call and never mutated afterwards.
// The price is not stored: Price always derives from UnitAmount and Quantity.
type Charge struct {
	Description      string
	PropertyNodeID   uuid.UUID
	PropertyNodeName string
	Kind             ChargeKind
	UnitAmount       decimal.Decimal
	Quantity         decimal.Decimal
	Currency         valueobject.Currency

	ServiceRef     *uuid.UUID
	PenaltyRef     *uuid.UUID
	InstallmentRef *uuid.UUID

	// PercentageRate is only set for PERCENTAGE charges
	PercentageRate *decimal.Decimal
	// InputRequired is true only for VARIABLE charges
	InputRequired bool
}

// Price returns UnitAmount * Quantity
func (c Charge) Price() decimal.Decimal {
	return c.UnitAmount.Mul(c.Quantity)
}

// Total returns the price as Money in the charge currency
func (c Charge) Total() valueobject.Money {
	return valueobject.NewMoney(c.Price(), c.Currency)
}

// IdentityRef returns the reference this charge is deduplicated on, or uuid.Nil
// for kinds that have no identity key
func (c Charge) IdentityRef() uuid.UUID {
	var ref *uuid.UUID
	switch c.Kind.IdentityKey() {
	case IdentityKeyService:
		ref = c.ServiceRef
	case IdentityKeyPenalty:
		ref = c.PenaltyRef
	case IdentityKeyInstallment:
		ref = c.InstallmentRef
	}
	if ref == nil {
		return uuid.Nil
	}
	return *ref
}

// chargeJSON is the wire shape of a Charge
type chargeJSON struct {
	Description      string           `json:"description"`
	PropertyNodeID   uuid.UUID        `json:"property_node_id"`
	PropertyNodeName string           `json:"property_node_name"`
	Kind             ChargeKind       `json:"kind"`
	UnitAmount       decimal.Decimal  `json:"unit_amount"`
	Quantity         decimal.Decimal  `json:"quantity"`
	Price            decimal.Decimal  `json:"price"`
	Currency         string           `json:"currency"`
	ServiceRef       *uuid.UUID       `json:"service_ref,omitempty"`
	PenaltyRef       *uuid.UUID       `json:"penalty_ref,omitempty"`
	InstallmentRef   *uuid.UUID       `json:"installment_ref,omitempty"`
	PercentageRate   *decimal.Decimal `json:"percentage_rate,omitempty"`
	InputRequired    bool             `json:"input_required"`
}

// MarshalJSON implements json.Marshaler, including the derived price
func (c Charge) MarshalJSON() ([]byte, error) {
	return json.Marshal(chargeJSON{
		Description:      c.Description,
		PropertyNodeID:   c.PropertyNodeID,
		PropertyNodeName: c.PropertyNodeName,
		Kind:             c.Kind,
		UnitAmount:       c.UnitAmount,
		Quantity:         c.Quantity,
		Price:            c.Price(),
		Currency:         c.Currency.Code,
		ServiceRef:       c.ServiceRef,
		PenaltyRef:       c.PenaltyRef,
		InstallmentRef:   c.InstallmentRef,
		PercentageRate:   c.PercentageRate,
		InputRequired:    c.InputRequired,
	})
}
