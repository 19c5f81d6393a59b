package persistence

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/infrastructure/persistence/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// PropertyNodeRepository implements billing.PropertyNodeRepository
type PropertyNodeRepository struct {
	db *gorm.DB
}

// NewPropertyNodeRepository creates a new property node repository
func NewPropertyNodeRepository(db *gorm.DB) *PropertyNodeRepository {
	return &PropertyNodeRepository{db: db}
}

// FindByID retrieves a property node with its service charge currency
func (r *PropertyNodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PropertyNode, error) {
	var model models.PropertyNodeModel
	if err := r.db.WithContext(ctx).
		Preload("ServiceChargeCurrency").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// TenancyRepository implements billing.TenancyRepository
type TenancyRepository struct {
	db *gorm.DB
}

// NewTenancyRepository creates a new tenancy repository
func NewTenancyRepository(db *gorm.DB) *TenancyRepository {
	return &TenancyRepository{db: db}
}

// FindActive retrieves the most recent active tenancy of a tenant on a node
func (r *TenancyRepository) FindActive(ctx context.Context, tenantID, propertyNodeID uuid.UUID) (*billing.Tenancy, error) {
	var model models.TenancyModel
	if err := r.db.WithContext(ctx).
		Preload("Currency").
		Where("tenant_id = ? AND property_node_id = ? AND status = ?", tenantID, propertyNodeID, models.RelationshipStatusActive).
		Order("contract_start DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// OwnershipRepository implements billing.OwnershipRepository
type OwnershipRepository struct {
	db *gorm.DB
}

// NewOwnershipRepository creates a new ownership repository
func NewOwnershipRepository(db *gorm.DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

// FindActive retrieves the active ownership of an owner on a node
func (r *OwnershipRepository) FindActive(ctx context.Context, ownerID, propertyNodeID uuid.UUID) (*billing.Ownership, error) {
	var model models.OwnershipModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND property_node_id = ? AND status = ?", ownerID, propertyNodeID, models.RelationshipStatusActive).
		Order("since DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ServiceAssignmentRepository implements billing.ServiceAssignmentRepository
type ServiceAssignmentRepository struct {
	db *gorm.DB
}

// NewServiceAssignmentRepository creates a new service assignment repository
func NewServiceAssignmentRepository(db *gorm.DB) *ServiceAssignmentRepository {
	return &ServiceAssignmentRepository{db: db}
}

// FindActiveByNodes retrieves active assignments of active services on the nodes,
// grouped by node in the given order and by creation time within a node
func (r *ServiceAssignmentRepository) FindActiveByNodes(ctx context.Context, propertyNodeIDs []uuid.UUID) ([]billing.AttachedService, error) {
	if len(propertyNodeIDs) == 0 {
		return []billing.AttachedService{}, nil
	}

	var assignments []models.ServiceAssignmentModel
	if err := r.db.WithContext(ctx).
		Preload("Service.Currency").
		Preload("Currency").
		Joins("JOIN services ON services.id = service_assignments.service_id").
		Where("service_assignments.property_node_id IN ?", propertyNodeIDs).
		Where("service_assignments.is_active = ? AND services.is_active = ?", true, true).
		Order("service_assignments.created_at ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	rank := make(map[uuid.UUID]int, len(propertyNodeIDs))
	for i, id := range propertyNodeIDs {
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}
	slices.SortStableFunc(assignments, func(a, b models.ServiceAssignmentModel) int {
		return rank[a.PropertyNodeID] - rank[b.PropertyNodeID]
	})

	return lo.Map(assignments, func(m models.ServiceAssignmentModel, _ int) billing.AttachedService {
		return m.ToDomain()
	}), nil
}

// PenaltyRepository implements billing.PenaltyRepository
type PenaltyRepository struct {
	db *gorm.DB
}

// NewPenaltyRepository creates a new penalty repository
func NewPenaltyRepository(db *gorm.DB) *PenaltyRepository {
	return &PenaltyRepository{db: db}
}

// FindPendingByTenancy retrieves the pending penalties of a tenancy, oldest first
func (r *PenaltyRepository) FindPendingByTenancy(ctx context.Context, tenancyID uuid.UUID) ([]billing.Penalty, error) {
	var penalties []models.PenaltyModel
	if err := r.db.WithContext(ctx).
		Preload("Currency").
		Where("tenancy_id = ? AND status = ?", tenancyID, billing.PenaltyStatusPending).
		Order("created_at ASC").
		Find(&penalties).Error; err != nil {
		return nil, err
	}

	return lo.Map(penalties, func(m models.PenaltyModel, _ int) billing.Penalty {
		return m.ToDomain()
	}), nil
}
