package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PropertyNode is a billable node of the property tree (unit, villa, block)
type PropertyNode struct {
	ID   uuid.UUID
	Name string
	// ProjectID is the project ancestor of the node, if any
	ProjectID *uuid.UUID
	// ServiceCharge is the unit/villa management fee configuration, if any
	ServiceCharge *ServiceChargeConfig
}

// ServiceChargeConfig is the monthly management fee configured on a unit
type ServiceChargeConfig struct {
	Amount   decimal.Decimal
	Currency *valueobject.Currency
}

// Tenancy is the active relationship between a tenant and a property node
type Tenancy struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	PropertyNodeID uuid.UUID
	// RentAmount is nil when rent has not been configured
	RentAmount    *decimal.Decimal
	DepositAmount decimal.Decimal
	Currency      *valueobject.Currency
	ContractStart time.Time
	ContractEnd   *time.Time
}

// HasDeposit returns true if a positive deposit is configured
func (t *Tenancy) HasDeposit() bool {
	return t != nil && t.DepositAmount.IsPositive()
}

// Ownership is the active relationship between an owner and a property node
type Ownership struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	PropertyNodeID uuid.UUID
	Since          time.Time
}

// AttachedService is a service assigned to a property node (or its project)
type AttachedService struct {
	AssignmentID   uuid.UUID
	ServiceID      uuid.UUID
	Name           string
	PropertyNodeID uuid.UUID
	PricingRule    PricingRule
	Frequency      Frequency
	BasePrice      decimal.Decimal
	PercentageRate *decimal.Decimal
	Currency       *valueobject.Currency
	BilledTo       Role
	// Inherited is true when the service is attached at the project ancestor
	Inherited bool
}

// PenaltyStatus is the lifecycle state of a penalty
type PenaltyStatus string

const (
	PenaltyStatusPending PenaltyStatus = "PENDING"
	PenaltyStatusBilled  PenaltyStatus = "BILLED"
	PenaltyStatusWaived  PenaltyStatus = "WAIVED"
)

// Penalty is a charge levied on a tenancy (late payment, damage, ...)
type Penalty struct {
	ID        uuid.UUID
	TenancyID uuid.UUID
	Type      string
	Amount    decimal.Decimal
	Currency  *valueobject.Currency
	Status    PenaltyStatus
}

// PaymentPlanType distinguishes how a property sale is paid
type PaymentPlanType string

const (
	PaymentPlanTypeInstallments PaymentPlanType = "installments"
	PaymentPlanTypeFullPayment  PaymentPlanType = "full_payment"
)

// InstallmentStatus is the lifecycle state of a schedule entry
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPaid    InstallmentStatus = "paid"
	InstallmentStatusOverdue InstallmentStatus = "overdue"
)

// Installment is one entry of a payment plan schedule, together with the plan
// facts needed to decide whether it is due
type Installment struct {
	ID            uuid.UUID
	PaymentPlanID uuid.UUID
	SaleID        uuid.UUID
	Sequence      int
	Amount        decimal.Decimal
	// DueDate is nil for malformed schedule rows
	DueDate *time.Time
	Status  InstallmentStatus

	PlanType      PaymentPlanType
	PlanFrequency Frequency
	PlanStart     time.Time
}
