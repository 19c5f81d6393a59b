package billing

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/domain/shared"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ErrCodeLookupFailed is returned when a relationship or already-billed lookup fails.
// Such failures abort the whole calculation; they are never treated as "not billed".
const ErrCodeLookupFailed = "BILLING_LOOKUP_FAILED"

// Repositories groups the read collaborators the charge calculation depends on
type Repositories struct {
	Nodes        billing.PropertyNodeRepository
	Tenancies    billing.TenancyRepository
	Ownerships   billing.OwnershipRepository
	Services     billing.ServiceAssignmentRepository
	Penalties    billing.PenaltyRepository
	PaymentPlans billing.PaymentPlanRepository
	InvoiceItems billing.InvoiceItemRepository
	Receipts     billing.ReceiptRepository
	Currencies   billing.CurrencyRepository
}

// ChargeServiceConfig contains configuration for ChargeService
type ChargeServiceConfig struct {
	// DefaultCurrency is an ISO code overriding the currency flagged as default in storage
	DefaultCurrency string
}

// CalculateRequest is the input of a charge preview
type CalculateRequest struct {
	PartyID        string `json:"party_id" validate:"required,uuid"`
	PropertyNodeID string `json:"property_node_id" validate:"required,uuid"`
	Year           int    `json:"year" validate:"required,gte=2000,lte=2100"`
	Month          int    `json:"month" validate:"required,gte=1,lte=12"`
	Role           string `json:"role" validate:"required,oneof=tenant owner"`
}

// ChargeService computes the charges owed for (party, property node, period) tuples.
// It loads every relationship fact up front and hands them to the billing engine.
type ChargeService struct {
	repos    Repositories
	engine   *billing.Engine
	validate *validator.Validate
	logger   *zap.Logger

	defaultCurrency string
}

// NewChargeService creates a new ChargeService
func NewChargeService(repos Repositories, engine *billing.Engine, logger *zap.Logger, config ChargeServiceConfig) *ChargeService {
	if engine == nil {
		engine = billing.NewEngine(nil)
	}
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	return &ChargeService{
		repos:           repos,
		engine:          engine,
		validate:        validate,
		logger:          logger,
		defaultCurrency: config.DefaultCurrency,
	}
}

// CalculateItems returns the ordered charges owed for the context. It returns an
// empty slice when nothing is due.
func (s *ChargeService) CalculateItems(ctx context.Context, bc billing.BillingContext) ([]billing.Charge, error) {
	result, err := s.Calculate(ctx, bc)
	if err != nil {
		return nil, err
	}
	return result.Charges, nil
}

// Calculate is CalculateItems that also reports malformed records left out of the result
func (s *ChargeService) Calculate(ctx context.Context, bc billing.BillingContext) (billing.Result, error) {
	if err := bc.Validate(); err != nil {
		return billing.Result{}, err
	}

	start := time.Now()
	snap, found, err := s.loadSnapshot(ctx, bc)
	if err != nil {
		return billing.Result{}, err
	}
	if !found {
		s.logger.Debug("Property node not found, nothing to bill",
			zap.String("property_node_id", bc.PropertyNodeID.String()))
		return billing.Result{Charges: []billing.Charge{}}, nil
	}

	result, err := s.engine.Calculate(bc, snap)
	if err != nil {
		return billing.Result{}, err
	}

	for _, skip := range result.Skipped {
		s.logger.Warn("Skipped malformed billing record",
			zap.String("party_id", bc.PartyID.String()),
			zap.String("property_node_id", bc.PropertyNodeID.String()),
			zap.String("period", bc.Period.Key()),
			zap.String("kind", skip.Kind.String()),
			zap.String("ref", skip.Ref.String()),
			zap.String("reason", skip.Reason))
	}

	s.logger.Debug("Charges calculated",
		zap.String("party_id", bc.PartyID.String()),
		zap.String("property_node_id", bc.PropertyNodeID.String()),
		zap.String("role", bc.Role.String()),
		zap.String("period", bc.Period.Key()),
		zap.Int("charges", len(result.Charges)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// Preview validates a request and computes its charges without persisting anything
func (s *ChargeService) Preview(ctx context.Context, req CalculateRequest) (billing.Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return billing.Result{}, shared.WrapDomainError("INVALID_INPUT", "Invalid charge calculation request", err)
	}

	currency, err := s.ResolveDefaultCurrency(ctx)
	if err != nil {
		return billing.Result{}, err
	}

	period, err := billing.NewPeriod(req.Year, time.Month(req.Month))
	if err != nil {
		return billing.Result{}, shared.WrapDomainError("INVALID_INPUT", "Invalid billing period", err)
	}

	bc, err := billing.NewBillingContext(
		uuid.MustParse(req.PartyID),
		uuid.MustParse(req.PropertyNodeID),
		period,
		billing.Role(req.Role),
		currency,
	)
	if err != nil {
		return billing.Result{}, err
	}

	return s.Calculate(ctx, bc)
}

// ResolveDefaultCurrency returns the configured default currency, else the one flagged
// as default in storage. No default at all yields an unset currency, not an error.
func (s *ChargeService) ResolveDefaultCurrency(ctx context.Context) (valueobject.Currency, error) {
	if s.defaultCurrency != "" {
		currency, err := s.repos.Currencies.FindByCode(ctx, s.defaultCurrency)
		if err != nil {
			return valueobject.Currency{}, s.lookupFailed("default currency", err)
		}
		if currency != nil {
			return *currency, nil
		}
		s.logger.Warn("Configured default currency not found, using stored default",
			zap.String("currency", s.defaultCurrency))
	}

	currency, err := s.repos.Currencies.FindDefault(ctx)
	if err != nil {
		return valueobject.Currency{}, s.lookupFailed("default currency", err)
	}
	return valueobject.ResolveCurrency(currency, nil), nil
}

// loadSnapshot reads every fact the engine needs for one context. found is false
// when the property node does not exist.
func (s *ChargeService) loadSnapshot(ctx context.Context, bc billing.BillingContext) (billing.Snapshot, bool, error) {
	var snap billing.Snapshot

	node, err := s.repos.Nodes.FindByID(ctx, bc.PropertyNodeID)
	if err != nil {
		return snap, false, s.lookupFailed("property node", err)
	}
	if node == nil {
		return snap, false, nil
	}
	snap.Node = *node

	var deposit billing.DepositHistory
	switch bc.Role {
	case billing.RoleTenant:
		snap.Tenancy, err = s.repos.Tenancies.FindActive(ctx, bc.PartyID, node.ID)
		if err != nil {
			return snap, false, s.lookupFailed("tenancy", err)
		}
		if snap.Tenancy == nil {
			break
		}
		snap.Penalties, err = s.repos.Penalties.FindPendingByTenancy(ctx, snap.Tenancy.ID)
		if err != nil {
			return snap, false, s.lookupFailed("penalties", err)
		}
		if snap.Tenancy.HasDeposit() {
			deposit, err = s.depositHistory(ctx, bc, snap.Tenancy)
			if err != nil {
				return snap, false, err
			}
		}
	case billing.RoleOwner:
		snap.Ownership, err = s.repos.Ownerships.FindActive(ctx, bc.PartyID, node.ID)
		if err != nil {
			return snap, false, s.lookupFailed("ownership", err)
		}
		snap.Installments, err = s.repos.PaymentPlans.FindPendingInstallments(ctx, bc.PartyID, node.ID)
		if err != nil {
			return snap, false, s.lookupFailed("installments", err)
		}
	}

	if snap.Tenancy != nil || snap.Ownership != nil {
		snap.Services, err = s.attachedServices(ctx, bc, node)
		if err != nil {
			return snap, false, err
		}
	}

	items, err := s.repos.InvoiceItems.FindInvoicedInPeriod(ctx, node.ID, bc.Period)
	if err != nil {
		return snap, false, s.lookupFailed("invoiced items", err)
	}
	snap.Invoiced = billing.NewInvoicedIndex(items, deposit)
	s.logger.Debug("Loaded billing snapshot",
		zap.String("property_node_id", node.ID.String()),
		zap.String("period", bc.Period.Key()),
		zap.Int("services", len(snap.Services)),
		zap.Int("invoiced_keys", snap.Invoiced.Len()),
		zap.Bool("deposit_billed", deposit.AlreadyBilled()))

	return snap, true, nil
}

func (s *ChargeService) depositHistory(ctx context.Context, bc billing.BillingContext, tenancy *billing.Tenancy) (billing.DepositHistory, error) {
	var history billing.DepositHistory
	var err error

	history.Receipted, err = s.repos.Receipts.HasDepositReceipt(ctx, tenancy.ID, bc.PropertyNodeID)
	if err != nil {
		return history, s.lookupFailed("deposit receipts", err)
	}
	if history.Receipted {
		return history, nil
	}
	history.Invoiced, err = s.repos.InvoiceItems.HasDepositInvoice(ctx, bc.PartyID, bc.PropertyNodeID)
	if err != nil {
		return history, s.lookupFailed("deposit invoices", err)
	}
	return history, nil
}

// attachedServices returns the node's services and, for owners, the services
// attached at the project ancestor
func (s *ChargeService) attachedServices(ctx context.Context, bc billing.BillingContext, node *billing.PropertyNode) ([]billing.AttachedService, error) {
	nodeIDs := []uuid.UUID{node.ID}
	if bc.Role == billing.RoleOwner && node.ProjectID != nil && *node.ProjectID != node.ID {
		nodeIDs = append(nodeIDs, *node.ProjectID)
	}

	services, err := s.repos.Services.FindActiveByNodes(ctx, nodeIDs)
	if err != nil {
		return nil, s.lookupFailed("attached services", err)
	}

	return lo.Map(services, func(svc billing.AttachedService, _ int) billing.AttachedService {
		svc.Inherited = svc.PropertyNodeID != node.ID
		return svc
	}), nil
}

func (s *ChargeService) lookupFailed(what string, err error) error {
	s.logger.Error("Billing lookup failed", zap.String("lookup", what), zap.Error(err))
	return shared.WrapDomainError(ErrCodeLookupFailed, "Failed to load "+what, err)
}
