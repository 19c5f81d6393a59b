package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/infrastructure/persistence/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// PaymentPlanRepository implements billing.PaymentPlanRepository
type PaymentPlanRepository struct {
	db *gorm.DB
}

// NewPaymentPlanRepository creates a new payment plan repository
func NewPaymentPlanRepository(db *gorm.DB) *PaymentPlanRepository {
	return &PaymentPlanRepository{db: db}
}

// FindPendingInstallments retrieves the pending schedule entries of every plan where the
// buyer bought the node, ordered by due date and sequence
func (r *PaymentPlanRepository) FindPendingInstallments(ctx context.Context, buyerID, propertyNodeID uuid.UUID) ([]billing.Installment, error) {
	var rows []models.InstallmentRow
	if err := r.db.WithContext(ctx).
		Table("installment_schedules").
		Select(`installment_schedules.*,
			payment_plans.sale_id AS sale_id,
			payment_plans.plan_type AS plan_type,
			payment_plans.frequency AS plan_frequency,
			payment_plans.start_date AS plan_start`).
		Joins("JOIN payment_plans ON payment_plans.id = installment_schedules.payment_plan_id").
		Joins("JOIN property_sales ON property_sales.id = payment_plans.sale_id").
		Where("property_sales.buyer_id = ? AND property_sales.property_node_id = ?", buyerID, propertyNodeID).
		Where("installment_schedules.status = ?", billing.InstallmentStatusPending).
		Order("installment_schedules.due_date ASC, installment_schedules.sequence ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row models.InstallmentRow, _ int) billing.Installment {
		return row.ToDomain()
	}), nil
}
