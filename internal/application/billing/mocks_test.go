package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/mock"
)

type mockNodeRepo struct {
	mock.Mock
}

func (m *mockNodeRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.PropertyNode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PropertyNode), args.Error(1)
}

type mockTenancyRepo struct {
	mock.Mock
}

func (m *mockTenancyRepo) FindActive(ctx context.Context, tenantID, propertyNodeID uuid.UUID) (*billing.Tenancy, error) {
	args := m.Called(ctx, tenantID, propertyNodeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Tenancy), args.Error(1)
}

type mockOwnershipRepo struct {
	mock.Mock
}

func (m *mockOwnershipRepo) FindActive(ctx context.Context, ownerID, propertyNodeID uuid.UUID) (*billing.Ownership, error) {
	args := m.Called(ctx, ownerID, propertyNodeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Ownership), args.Error(1)
}

type mockServiceRepo struct {
	mock.Mock
}

func (m *mockServiceRepo) FindActiveByNodes(ctx context.Context, propertyNodeIDs []uuid.UUID) ([]billing.AttachedService, error) {
	args := m.Called(ctx, propertyNodeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.AttachedService), args.Error(1)
}

type mockPenaltyRepo struct {
	mock.Mock
}

func (m *mockPenaltyRepo) FindPendingByTenancy(ctx context.Context, tenancyID uuid.UUID) ([]billing.Penalty, error) {
	args := m.Called(ctx, tenancyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Penalty), args.Error(1)
}

type mockPaymentPlanRepo struct {
	mock.Mock
}

func (m *mockPaymentPlanRepo) FindPendingInstallments(ctx context.Context, buyerID, propertyNodeID uuid.UUID) ([]billing.Installment, error) {
	args := m.Called(ctx, buyerID, propertyNodeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Installment), args.Error(1)
}

type mockInvoiceItemRepo struct {
	mock.Mock
}

func (m *mockInvoiceItemRepo) FindInvoicedInPeriod(ctx context.Context, propertyNodeID uuid.UUID, period billing.Period) ([]billing.InvoicedItem, error) {
	args := m.Called(ctx, propertyNodeID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.InvoicedItem), args.Error(1)
}

func (m *mockInvoiceItemRepo) HasDepositInvoice(ctx context.Context, tenantID, propertyNodeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, propertyNodeID)
	return args.Bool(0), args.Error(1)
}

type mockReceiptRepo struct {
	mock.Mock
}

func (m *mockReceiptRepo) HasDepositReceipt(ctx context.Context, tenancyID, propertyNodeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenancyID, propertyNodeID)
	return args.Bool(0), args.Error(1)
}

type mockCurrencyRepo struct {
	mock.Mock
}

func (m *mockCurrencyRepo) FindDefault(ctx context.Context) (*valueobject.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*valueobject.Currency), args.Error(1)
}

func (m *mockCurrencyRepo) FindByCode(ctx context.Context, code string) (*valueobject.Currency, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*valueobject.Currency), args.Error(1)
}

type mockCalculator struct {
	mock.Mock
}

func (m *mockCalculator) Calculate(ctx context.Context, bc billing.BillingContext) (billing.Result, error) {
	args := m.Called(ctx, bc)
	return args.Get(0).(billing.Result), args.Error(1)
}

func (m *mockCalculator) ResolveDefaultCurrency(ctx context.Context) (valueobject.Currency, error) {
	args := m.Called(ctx)
	return args.Get(0).(valueobject.Currency), args.Error(1)
}

type mockPartyRepo struct {
	mock.Mock
}

func (m *mockPartyRepo) ListActive(ctx context.Context) ([]billing.BillableParty, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.BillableParty), args.Error(1)
}

type mockAssembler struct {
	mock.Mock
}

func (m *mockAssembler) CreateIssued(ctx context.Context, bc billing.BillingContext, charges []billing.Charge) (*billing.Invoice, error) {
	args := m.Called(ctx, bc, charges)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

type mockClaimStore struct {
	mock.Mock
}

func (m *mockClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockClaimStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockClaimStore) Close() error {
	return m.Called().Error(0)
}

// repoMocks bundles the charge service collaborators for a test
type repoMocks struct {
	nodes        *mockNodeRepo
	tenancies    *mockTenancyRepo
	ownerships   *mockOwnershipRepo
	services     *mockServiceRepo
	penalties    *mockPenaltyRepo
	paymentPlans *mockPaymentPlanRepo
	invoiceItems *mockInvoiceItemRepo
	receipts     *mockReceiptRepo
	currencies   *mockCurrencyRepo
}

func newRepoMocks() *repoMocks {
	return &repoMocks{
		nodes:        new(mockNodeRepo),
		tenancies:    new(mockTenancyRepo),
		ownerships:   new(mockOwnershipRepo),
		services:     new(mockServiceRepo),
		penalties:    new(mockPenaltyRepo),
		paymentPlans: new(mockPaymentPlanRepo),
		invoiceItems: new(mockInvoiceItemRepo),
		receipts:     new(mockReceiptRepo),
		currencies:   new(mockCurrencyRepo),
	}
}

func (r *repoMocks) repositories() Repositories {
	return Repositories{
		Nodes:        r.nodes,
		Tenancies:    r.tenancies,
		Ownerships:   r.ownerships,
		Services:     r.services,
		Penalties:    r.penalties,
		PaymentPlans: r.paymentPlans,
		InvoiceItems: r.invoiceItems,
		Receipts:     r.receipts,
		Currencies:   r.currencies,
	}
}
