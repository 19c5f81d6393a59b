package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for invoices issued to a party.
type InvoiceModel struct {
	BaseModel
	PartyID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	PropertyNodeID uuid.UUID             `gorm:"type:uuid;not null;index:idx_invoice_node_issued,priority:1"`
	Role           billing.Role          `gorm:"type:varchar(20);not null"`
	PeriodKey      *string               `gorm:"type:varchar(7);index"`
	Status         billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	IssuedAt       time.Time             `gorm:"not null;index:idx_invoice_node_issued,priority:2"`
	VoidedAt       *time.Time
	Items          []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model and its preloaded items to a domain Invoice.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	invoice := &billing.Invoice{
		ID:             m.ID,
		PartyID:        m.PartyID,
		PropertyNodeID: m.PropertyNodeID,
		Role:           m.Role,
		Status:         m.Status,
		IssuedAt:       m.IssuedAt,
		Items:          make([]billing.Charge, 0, len(m.Items)),
	}
	if m.PeriodKey != nil {
		if period, err := billing.ParsePeriodKey(*m.PeriodKey); err == nil {
			invoice.Period = period
		}
	}
	for i := range m.Items {
		invoice.Items = append(invoice.Items, m.Items[i].ToDomain())
	}
	return invoice
}

// InvoiceItemModel is one line of an invoice. BillingKey is unique among live
// items and is cleared when the invoice is voided.
type InvoiceItemModel struct {
	BaseModel
	InvoiceID        uuid.UUID          `gorm:"type:uuid;not null;index"`
	PropertyNodeID   uuid.UUID          `gorm:"type:uuid;not null"`
	PropertyNodeName string             `gorm:"type:varchar(200)"`
	Kind             billing.ChargeKind `gorm:"type:varchar(20);not null;index"`
	Description      string             `gorm:"type:varchar(500);not null"`
	UnitAmount       decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Quantity         decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Price            decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	CurrencyCode     string             `gorm:"type:varchar(3)"`
	ServiceID        *uuid.UUID         `gorm:"type:uuid;index"`
	PenaltyID        *uuid.UUID         `gorm:"type:uuid;index"`
	InstallmentID    *uuid.UUID         `gorm:"type:uuid;index"`
	PercentageRate   *decimal.Decimal   `gorm:"type:decimal(9,4)"`
	InputRequired    bool               `gorm:"not null;default:false"`
	BillingKey       *string            `gorm:"type:varchar(200);uniqueIndex"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// InvoiceItemModelFromCharge creates an item model for a charge of the billing context.
func InvoiceItemModelFromCharge(bc billing.BillingContext, charge billing.Charge) InvoiceItemModel {
	key := billing.BillingKey(bc, charge)
	return InvoiceItemModel{
		PropertyNodeID:   charge.PropertyNodeID,
		PropertyNodeName: charge.PropertyNodeName,
		Kind:             charge.Kind,
		Description:      charge.Description,
		UnitAmount:       charge.UnitAmount,
		Quantity:         charge.Quantity,
		Price:            charge.Price(),
		CurrencyCode:     charge.Currency.Code,
		ServiceID:        charge.ServiceRef,
		PenaltyID:        charge.PenaltyRef,
		InstallmentID:    charge.InstallmentRef,
		PercentageRate:   charge.PercentageRate,
		InputRequired:    charge.InputRequired,
		BillingKey:       &key,
	}
}

// ToDomain converts the persistence model to a domain Charge.
func (m *InvoiceItemModel) ToDomain() billing.Charge {
	return billing.Charge{
		Description:      m.Description,
		PropertyNodeID:   m.PropertyNodeID,
		PropertyNodeName: m.PropertyNodeName,
		Kind:             m.Kind,
		UnitAmount:       m.UnitAmount,
		Quantity:         m.Quantity,
		Currency:         valueobject.Currency{Code: m.CurrencyCode},
		ServiceRef:       m.ServiceID,
		PenaltyRef:       m.PenaltyID,
		InstallmentRef:   m.InstallmentID,
		PercentageRate:   m.PercentageRate,
		InputRequired:    m.InputRequired,
	}
}

// InvoicedItem projects the item for the already-billed index.
func (m *InvoiceItemModel) InvoicedItem() billing.InvoicedItem {
	charge := m.ToDomain()
	return billing.InvoicedItem{Kind: m.Kind, Ref: charge.IdentityRef()}
}

// ReceiptModel is the persistence model for payment receipts.
type ReceiptModel struct {
	BaseModel
	PayerID        uuid.UUID          `gorm:"type:uuid;not null;index"`
	TenancyID      *uuid.UUID         `gorm:"type:uuid;index"`
	PropertyNodeID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Kind           billing.ChargeKind `gorm:"type:varchar(20);not null"`
	Amount         decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	CurrencyCode   string             `gorm:"type:varchar(3)"`
	ReceivedAt     time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}
