package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides common persistence fields for all models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID to records created without one
func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// All returns every billing model in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&CurrencyModel{},
		&PropertyNodeModel{},
		&TenancyModel{},
		&OwnershipModel{},
		&ServiceModel{},
		&ServiceAssignmentModel{},
		&PenaltyModel{},
		&PropertySaleModel{},
		&PaymentPlanModel{},
		&InstallmentScheduleModel{},
		&InvoiceModel{},
		&InvoiceItemModel{},
		&ReceiptModel{},
	}
}
