package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
)

// PropertyNodeRepository reads billable property nodes
type PropertyNodeRepository interface {
	// FindByID returns the node, or nil if it does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*PropertyNode, error)
}

// TenancyRepository reads tenancies
type TenancyRepository interface {
	// FindActive returns the active tenancy of tenant on node, or nil
	FindActive(ctx context.Context, tenantID, propertyNodeID uuid.UUID) (*Tenancy, error)
}

// OwnershipRepository reads ownerships
type OwnershipRepository interface {
	// FindActive returns the active ownership of owner on node, or nil
	FindActive(ctx context.Context, ownerID, propertyNodeID uuid.UUID) (*Ownership, error)
}

// ServiceAssignmentRepository reads services attached to property nodes
type ServiceAssignmentRepository interface {
	// FindActiveByNodes returns the active assignments on any of the nodes, ordered
	// by node (in the given order) and then by assignment creation
	FindActiveByNodes(ctx context.Context, propertyNodeIDs []uuid.UUID) ([]AttachedService, error)
}

// PenaltyRepository reads penalties
type PenaltyRepository interface {
	FindPendingByTenancy(ctx context.Context, tenancyID uuid.UUID) ([]Penalty, error)
}

// PaymentPlanRepository reads property-sale payment schedules
type PaymentPlanRepository interface {
	// FindPendingInstallments returns pending schedule entries of plans where
	// buyer bought the node
	FindPendingInstallments(ctx context.Context, buyerID, propertyNodeID uuid.UUID) ([]Installment, error)
}

// InvoiceItemRepository answers the already-billed queries over prior invoice items
type InvoiceItemRepository interface {
	// FindInvoicedInPeriod returns items of billed invoices for the node issued in the period
	FindInvoicedInPeriod(ctx context.Context, propertyNodeID uuid.UUID, period Period) ([]InvoicedItem, error)
	// HasDepositInvoice reports whether a deposit was ever invoiced to tenant on node
	HasDepositInvoice(ctx context.Context, tenantID, propertyNodeID uuid.UUID) (bool, error)
}

// ReceiptRepository reads payment receipts
type ReceiptRepository interface {
	// HasDepositReceipt reports whether a deposit receipt exists for the tenancy on node
	HasDepositReceipt(ctx context.Context, tenancyID, propertyNodeID uuid.UUID) (bool, error)
}

// CurrencyRepository reads currencies
type CurrencyRepository interface {
	FindDefault(ctx context.Context) (*valueobject.Currency, error)
	FindByCode(ctx context.Context, code string) (*valueobject.Currency, error)
}

// InvoiceRepository persists invoices built from charges
type InvoiceRepository interface {
	// CreateIssued stores an ISSUED invoice with one item per charge. It returns
	// ErrChargeAlreadyBilled if any charge collides with an already billed one.
	CreateIssued(ctx context.Context, bc BillingContext, charges []Charge) (*Invoice, error)
	// Void marks the invoice VOID and releases its billing keys
	Void(ctx context.Context, invoiceID uuid.UUID) error
	FindByID(ctx context.Context, invoiceID uuid.UUID) (*Invoice, error)
}

// BillablePartyRepository enumerates the tuples a billing run iterates over
type BillablePartyRepository interface {
	ListActive(ctx context.Context) ([]BillableParty, error)
}
