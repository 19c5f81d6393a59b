package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/infrastructure/persistence/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// BillablePartyRepository implements billing.BillablePartyRepository
type BillablePartyRepository struct {
	db *gorm.DB
}

// NewBillablePartyRepository creates a new billable party repository
func NewBillablePartyRepository(db *gorm.DB) *BillablePartyRepository {
	return &BillablePartyRepository{db: db}
}

type partyNodeRow struct {
	PartyID        uuid.UUID
	PropertyNodeID uuid.UUID
}

// ListActive enumerates the tuples a billing run visits: active tenants,
// active owners, and buyers paying by installments (billed as owners).
func (r *BillablePartyRepository) ListActive(ctx context.Context) ([]billing.BillableParty, error) {
	db := r.db.WithContext(ctx)

	var tenants []partyNodeRow
	if err := db.Model(&models.TenancyModel{}).
		Select("tenant_id AS party_id, property_node_id").
		Where("status = ?", models.RelationshipStatusActive).
		Order("created_at ASC").
		Scan(&tenants).Error; err != nil {
		return nil, err
	}

	var owners []partyNodeRow
	if err := db.Model(&models.OwnershipModel{}).
		Select("owner_id AS party_id, property_node_id").
		Where("status = ?", models.RelationshipStatusActive).
		Order("created_at ASC").
		Scan(&owners).Error; err != nil {
		return nil, err
	}

	var buyers []partyNodeRow
	if err := db.Model(&models.PropertySaleModel{}).
		Select("property_sales.buyer_id AS party_id, property_sales.property_node_id").
		Joins("JOIN payment_plans ON payment_plans.sale_id = property_sales.id").
		Where("payment_plans.plan_type = ?", billing.PaymentPlanTypeInstallments).
		Order("property_sales.created_at ASC").
		Scan(&buyers).Error; err != nil {
		return nil, err
	}

	parties := make([]billing.BillableParty, 0, len(tenants)+len(owners)+len(buyers))
	parties = append(parties, toParties(tenants, billing.RoleTenant)...)
	parties = append(parties, toParties(owners, billing.RoleOwner)...)
	parties = append(parties, toParties(buyers, billing.RoleOwner)...)

	return lo.Uniq(parties), nil
}

func toParties(rows []partyNodeRow, role billing.Role) []billing.BillableParty {
	return lo.Map(rows, func(row partyNodeRow, _ int) billing.BillableParty {
		return billing.BillableParty{PartyID: row.PartyID, PropertyNodeID: row.PropertyNodeID, Role: role}
	})
}
