package billing

import (
	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/shared"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
)

// Role is the capacity in which a party is billed for a property node
type Role string

const (
	RoleTenant Role = "tenant"
	RoleOwner  Role = "owner"
)

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return r == RoleTenant || r == RoleOwner
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// BillingContext identifies one (party, property node, period) billing unit.
// It is created per invocation and never persisted.
type BillingContext struct {
	PartyID        uuid.UUID
	PropertyNodeID uuid.UUID
	Period         Period
	Role           Role

	// DefaultCurrency is resolved once by the caller and used wherever a charge
	// is not tied to a tenancy or service currency
	DefaultCurrency valueobject.Currency
}

// NewBillingContext creates a validated billing context
func NewBillingContext(partyID, propertyNodeID uuid.UUID, period Period, role Role, defaultCurrency valueobject.Currency) (BillingContext, error) {
	ctx := BillingContext{
		PartyID:         partyID,
		PropertyNodeID:  propertyNodeID,
		Period:          period,
		Role:            role,
		DefaultCurrency: defaultCurrency,
	}
	if err := ctx.Validate(); err != nil {
		return BillingContext{}, err
	}
	return ctx, nil
}

// Validate checks the context identifies a billable unit
func (c BillingContext) Validate() error {
	if c.PartyID == uuid.Nil {
		return shared.NewDomainError("INVALID_CONTEXT", "Party ID cannot be empty")
	}
	if c.PropertyNodeID == uuid.Nil {
		return shared.NewDomainError("INVALID_CONTEXT", "Property node ID cannot be empty")
	}
	if !c.Role.IsValid() {
		return shared.NewDomainError("INVALID_CONTEXT", "Role must be tenant or owner")
	}
	if _, err := NewPeriod(c.Period.Year, c.Period.Month); err != nil {
		return shared.WrapDomainError("INVALID_CONTEXT", "Invalid billing period", err)
	}
	return nil
}

// PeriodLabel returns the human label of the billing window
func (c BillingContext) PeriodLabel() string {
	return c.Period.Label()
}
