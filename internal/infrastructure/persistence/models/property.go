package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CurrencyModel is the persistence model for currencies.
type CurrencyModel struct {
	BaseModel
	Code      string `gorm:"type:varchar(3);not null;uniqueIndex"`
	Name      string `gorm:"type:varchar(100);not null"`
	Symbol    string `gorm:"type:varchar(10)"`
	IsDefault bool   `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (CurrencyModel) TableName() string {
	return "currencies"
}

// ToDomain converts the persistence model to a domain Currency.
func (m *CurrencyModel) ToDomain() valueobject.Currency {
	return valueobject.NewCurrency(m.ID, m.Code, m.Name, m.Symbol)
}

// currencyPtr maps an optional preloaded currency relation
func currencyPtr(m *CurrencyModel) *valueobject.Currency {
	if m == nil {
		return nil
	}
	c := m.ToDomain()
	return &c
}

// NodeType is the level of a node in the property tree
type NodeType string

const (
	NodeTypeProject NodeType = "project"
	NodeTypeBlock   NodeType = "block"
	NodeTypeUnit    NodeType = "unit"
	NodeTypeVilla   NodeType = "villa"
)

// PropertyNodeModel is the persistence model for property tree nodes.
type PropertyNodeModel struct {
	BaseModel
	Name                    string           `gorm:"type:varchar(200);not null"`
	NodeType                NodeType         `gorm:"type:varchar(20);not null;index"`
	ParentID                *uuid.UUID       `gorm:"type:uuid;index"`
	ProjectID               *uuid.UUID       `gorm:"type:uuid;index"`
	ServiceCharge           *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ServiceChargeCurrencyID *uuid.UUID       `gorm:"type:uuid"`
	ServiceChargeCurrency   *CurrencyModel   `gorm:"foreignKey:ServiceChargeCurrencyID"`
}

// TableName returns the table name for GORM
func (PropertyNodeModel) TableName() string {
	return "property_nodes"
}

// ToDomain converts the persistence model to a domain PropertyNode.
func (m *PropertyNodeModel) ToDomain() *billing.PropertyNode {
	node := &billing.PropertyNode{
		ID:        m.ID,
		Name:      m.Name,
		ProjectID: m.ProjectID,
	}
	if m.ServiceCharge != nil {
		node.ServiceCharge = &billing.ServiceChargeConfig{
			Amount:   *m.ServiceCharge,
			Currency: currencyPtr(m.ServiceChargeCurrency),
		}
	}
	return node
}

// RelationshipStatus is the status of a tenancy or ownership
type RelationshipStatus string

const (
	RelationshipStatusActive     RelationshipStatus = "active"
	RelationshipStatusTerminated RelationshipStatus = "terminated"
)

// TenancyModel is the persistence model for tenancies.
type TenancyModel struct {
	BaseModel
	TenantID       uuid.UUID          `gorm:"type:uuid;not null;index:idx_tenancy_tenant_node,priority:1"`
	PropertyNodeID uuid.UUID          `gorm:"type:uuid;not null;index:idx_tenancy_tenant_node,priority:2"`
	RentAmount     *decimal.Decimal   `gorm:"type:decimal(18,4)"`
	DepositAmount  decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyID     *uuid.UUID         `gorm:"type:uuid"`
	Currency       *CurrencyModel     `gorm:"foreignKey:CurrencyID"`
	ContractStart  time.Time          `gorm:"not null"`
	ContractEnd    *time.Time
	Status         RelationshipStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (TenancyModel) TableName() string {
	return "tenancies"
}

// ToDomain converts the persistence model to a domain Tenancy.
func (m *TenancyModel) ToDomain() *billing.Tenancy {
	return &billing.Tenancy{
		ID:             m.ID,
		TenantID:       m.TenantID,
		PropertyNodeID: m.PropertyNodeID,
		RentAmount:     m.RentAmount,
		DepositAmount:  m.DepositAmount,
		Currency:       currencyPtr(m.Currency),
		ContractStart:  m.ContractStart,
		ContractEnd:    m.ContractEnd,
	}
}

// OwnershipModel is the persistence model for ownerships.
type OwnershipModel struct {
	BaseModel
	OwnerID        uuid.UUID          `gorm:"type:uuid;not null;index:idx_ownership_owner_node,priority:1"`
	PropertyNodeID uuid.UUID          `gorm:"type:uuid;not null;index:idx_ownership_owner_node,priority:2"`
	Since          time.Time          `gorm:"not null"`
	Status         RelationshipStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (OwnershipModel) TableName() string {
	return "ownerships"
}

// ToDomain converts the persistence model to a domain Ownership.
func (m *OwnershipModel) ToDomain() *billing.Ownership {
	return &billing.Ownership{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		PropertyNodeID: m.PropertyNodeID,
		Since:          m.Since,
	}
}

// ServiceModel is the persistence model for billable service definitions.
type ServiceModel struct {
	BaseModel
	Name           string              `gorm:"type:varchar(200);not null"`
	PricingRule    billing.PricingRule `gorm:"type:varchar(20);not null"`
	Frequency      billing.Frequency   `gorm:"type:varchar(20);not null"`
	BasePrice      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	PercentageRate *decimal.Decimal    `gorm:"type:decimal(9,4)"`
	CurrencyID     *uuid.UUID          `gorm:"type:uuid"`
	Currency       *CurrencyModel      `gorm:"foreignKey:CurrencyID"`
	BilledTo       billing.Role        `gorm:"type:varchar(20);not null"`
	IsActive       bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ServiceModel) TableName() string {
	return "services"
}

// ServiceAssignmentModel attaches a service to a property node.
type ServiceAssignmentModel struct {
	BaseModel
	ServiceID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Service        ServiceModel   `gorm:"foreignKey:ServiceID"`
	PropertyNodeID uuid.UUID      `gorm:"type:uuid;not null;index"`
	CurrencyID     *uuid.UUID     `gorm:"type:uuid"`
	Currency       *CurrencyModel `gorm:"foreignKey:CurrencyID"`
	IsActive       bool           `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ServiceAssignmentModel) TableName() string {
	return "service_assignments"
}

// ToDomain converts the assignment and its preloaded service to a domain AttachedService.
// The assignment currency overrides the service currency.
func (m *ServiceAssignmentModel) ToDomain() billing.AttachedService {
	currency := currencyPtr(m.Currency)
	if currency == nil {
		currency = currencyPtr(m.Service.Currency)
	}
	return billing.AttachedService{
		AssignmentID:   m.ID,
		ServiceID:      m.ServiceID,
		Name:           m.Service.Name,
		PropertyNodeID: m.PropertyNodeID,
		PricingRule:    m.Service.PricingRule,
		Frequency:      m.Service.Frequency,
		BasePrice:      m.Service.BasePrice,
		PercentageRate: m.Service.PercentageRate,
		Currency:       currency,
		BilledTo:       m.Service.BilledTo,
	}
}

// PenaltyModel is the persistence model for tenancy penalties.
type PenaltyModel struct {
	BaseModel
	TenancyID   uuid.UUID             `gorm:"type:uuid;not null;index"`
	PenaltyType string                `gorm:"type:varchar(50);not null"`
	Amount      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	CurrencyID  *uuid.UUID            `gorm:"type:uuid"`
	Currency    *CurrencyModel        `gorm:"foreignKey:CurrencyID"`
	Status      billing.PenaltyStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
}

// TableName returns the table name for GORM
func (PenaltyModel) TableName() string {
	return "penalties"
}

// ToDomain converts the persistence model to a domain Penalty.
func (m *PenaltyModel) ToDomain() billing.Penalty {
	return billing.Penalty{
		ID:        m.ID,
		TenancyID: m.TenancyID,
		Type:      m.PenaltyType,
		Amount:    m.Amount,
		Currency:  currencyPtr(m.Currency),
		Status:    m.Status,
	}
}
