package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/domain/shared"
	"github.com/propertyflow/backend/internal/infrastructure/persistence/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// InvoiceRepository implements billing.InvoiceRepository
type InvoiceRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db, now: time.Now}
}

// CreateIssued stores an ISSUED invoice and its items in one transaction.
// A billing key collision rolls back the whole invoice; charges repeating a
// billing key among themselves are rejected before anything is written.
func (r *InvoiceRepository) CreateIssued(ctx context.Context, bc billing.BillingContext, charges []billing.Charge) (*billing.Invoice, error) {
	if len(charges) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cannot issue an invoice without charges")
	}

	periodKey := bc.Period.Key()
	invoice := &models.InvoiceModel{
		PartyID:        bc.PartyID,
		PropertyNodeID: bc.PropertyNodeID,
		Role:           bc.Role,
		PeriodKey:      &periodKey,
		Status:         billing.InvoiceStatusIssued,
		IssuedAt:       r.now().UTC(),
	}
	items := lo.Map(charges, func(c billing.Charge, _ int) models.InvoiceItemModel {
		return models.InvoiceItemModelFromCharge(bc, c)
	})
	if dups := lo.FindDuplicatesBy(items, func(m models.InvoiceItemModel) string {
		return *m.BillingKey
	}); len(dups) > 0 {
		return nil, shared.WrapDomainError(billing.ErrDuplicateCharge.Code, billing.ErrDuplicateCharge.Message,
			fmt.Errorf("billing key %s", *dups[0].BillingKey))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = invoice.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, billing.ErrChargeAlreadyBilled
		}
		return nil, err
	}

	invoice.Items = items
	return invoice.ToDomain(), nil
}

// Void marks a live invoice VOID and clears the billing keys of its items,
// which makes its charges billable again
func (r *InvoiceRepository) Void(ctx context.Context, invoiceID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now().UTC()
		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND status <> ?", invoiceID, billing.InvoiceStatusVoid).
			Updates(map[string]interface{}{
				"status":     billing.InvoiceStatusVoid,
				"voided_at":  now,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.InvoiceModel{}).Where("id = ?", invoiceID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.NewDomainError("INVALID_STATE", "Invoice is already void")
		}
		return tx.Model(&models.InvoiceItemModel{}).
			Where("invoice_id = ?", invoiceID).
			Update("billing_key", nil).Error
	})
}

// FindByID retrieves an invoice with its items
func (r *InvoiceRepository) FindByID(ctx context.Context, invoiceID uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&model, "id = ?", invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// isUniqueViolation detects unique constraint errors from postgres and sqlite,
// whether or not the dialector translated them
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// InvoiceItemRepository implements billing.InvoiceItemRepository
type InvoiceItemRepository struct {
	db *gorm.DB
}

// NewInvoiceItemRepository creates a new invoice item repository
func NewInvoiceItemRepository(db *gorm.DB) *InvoiceItemRepository {
	return &InvoiceItemRepository{db: db}
}

// FindInvoicedInPeriod returns the items of billed invoices on the node for the period.
// Invoices stamped with a period key match on it; invoices without one match on
// their issue date.
func (r *InvoiceItemRepository) FindInvoicedInPeriod(ctx context.Context, propertyNodeID uuid.UUID, period billing.Period) ([]billing.InvoicedItem, error) {
	var items []models.InvoiceItemModel
	if err := r.db.WithContext(ctx).
		Select("invoice_items.*").
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id").
		Where("invoices.property_node_id = ?", propertyNodeID).
		Where("invoices.status IN ?", billing.BilledStatuses()).
		Where("(invoices.period_key = ? OR (invoices.period_key IS NULL AND invoices.issued_at >= ? AND invoices.issued_at < ?))",
			period.Key(), period.Start(), period.End()).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return lo.Map(items, func(m models.InvoiceItemModel, _ int) billing.InvoicedItem {
		return m.InvoicedItem()
	}), nil
}

// HasDepositInvoice reports whether any billed invoice to the tenant on the node carries a deposit
func (r *InvoiceItemRepository) HasDepositInvoice(ctx context.Context, tenantID, propertyNodeID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceItemModel{}).
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id").
		Where("invoices.party_id = ? AND invoices.property_node_id = ?", tenantID, propertyNodeID).
		Where("invoices.status IN ?", billing.BilledStatuses()).
		Where("invoice_items.kind = ?", billing.ChargeKindDeposit).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReceiptRepository implements billing.ReceiptRepository
type ReceiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// HasDepositReceipt reports whether a deposit was received for the tenancy on the node
func (r *ReceiptRepository) HasDepositReceipt(ctx context.Context, tenancyID, propertyNodeID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReceiptModel{}).
		Where("tenancy_id = ? AND property_node_id = ? AND kind = ?", tenancyID, propertyNodeID, billing.ChargeKindDeposit).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
