package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// PropertySaleModel is the persistence model for the sale of a property node to a buyer.
type PropertySaleModel struct {
	BaseModel
	BuyerID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_sale_buyer_node,priority:1"`
	PropertyNodeID uuid.UUID       `gorm:"type:uuid;not null;index:idx_sale_buyer_node,priority:2"`
	SalePrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SoldAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PropertySaleModel) TableName() string {
	return "property_sales"
}

// PaymentPlanModel is the persistence model for how a sale is paid.
type PaymentPlanModel struct {
	BaseModel
	SaleID    uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex"`
	PlanType  billing.PaymentPlanType `gorm:"type:varchar(20);not null"`
	Frequency billing.Frequency       `gorm:"type:varchar(20)"`
	StartDate time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentPlanModel) TableName() string {
	return "payment_plans"
}

// InstallmentScheduleModel is one scheduled payment of a payment plan.
type InstallmentScheduleModel struct {
	BaseModel
	PaymentPlanID uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_plan_seq,priority:1"`
	Sequence      int                       `gorm:"not null;uniqueIndex:idx_schedule_plan_seq,priority:2"`
	Amount        decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	DueDate       *time.Time                `gorm:"type:date;index"`
	Status        billing.InstallmentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaidAt        *time.Time
}

// TableName returns the table name for GORM
func (InstallmentScheduleModel) TableName() string {
	return "installment_schedules"
}

// InstallmentRow is the joined projection of a schedule entry with its plan and sale
type InstallmentRow struct {
	InstallmentScheduleModel
	SaleID        uuid.UUID
	PlanType      billing.PaymentPlanType
	PlanFrequency billing.Frequency
	PlanStart     time.Time
}

// ToDomain converts the joined row to a domain Installment.
func (r *InstallmentRow) ToDomain() billing.Installment {
	return billing.Installment{
		ID:            r.ID,
		PaymentPlanID: r.PaymentPlanID,
		SaleID:        r.SaleID,
		Sequence:      r.Sequence,
		Amount:        r.Amount,
		DueDate:       r.DueDate,
		Status:        r.Status,
		PlanType:      r.PlanType,
		PlanFrequency: r.PlanFrequency,
		PlanStart:     r.PlanStart,
	}
}
