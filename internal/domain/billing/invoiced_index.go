package billing

import "github.com/google/uuid"

// InvoiceStatus is the status of an invoice issued to a party
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusIssued  InvoiceStatus = "ISSUED"
	InvoiceStatusPartial InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusVoid    InvoiceStatus = "VOID"
)

var invoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusIssued,
	InvoiceStatusPartial,
	InvoiceStatusPaid,
	InvoiceStatusVoid,
}

// BilledStatuses returns the invoice statuses whose items count as already billed
func BilledStatuses() []InvoiceStatus {
	billed := make([]InvoiceStatus, 0, len(invoiceStatuses))
	for _, s := range invoiceStatuses {
		if s.CountsAsBilled() {
			billed = append(billed, s)
		}
	}
	return billed
}

// CountsAsBilled returns true if items on an invoice in this status block re-billing
func (s InvoiceStatus) CountsAsBilled() bool {
	switch s {
	case InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusPartial:
		return true
	}
	return false
}

// InvoicedItem is the projection of a prior invoice line item needed for
// the already-billed check
type InvoicedItem struct {
	Kind ChargeKind
	// Ref is the service, penalty or installment reference; uuid.Nil for kinds without one
	Ref uuid.UUID
}

type invoicedKey struct {
	kind ChargeKind
	ref  uuid.UUID
}

// InvoicedIndex answers "has a charge of kind X (with identity ref) already been
// invoiced in this window". It is built once per call from prior invoice items.
type InvoicedIndex struct {
	keys          map[invoicedKey]struct{}
	depositBilled bool
}

// NewInvoicedIndex builds an index from the invoice items of the current window and
// the lifetime deposit history of the tenancy
func NewInvoicedIndex(items []InvoicedItem, deposit DepositHistory) InvoicedIndex {
	keys := make(map[invoicedKey]struct{}, len(items))
	for _, item := range items {
		ref := item.Ref
		if item.Kind.IdentityKey() == IdentityKeyNone {
			ref = uuid.Nil
		}
		keys[invoicedKey{kind: item.Kind, ref: ref}] = struct{}{}
	}
	return InvoicedIndex{
		keys:          keys,
		depositBilled: deposit.AlreadyBilled(),
	}
}

// IsInvoiced reports whether a charge of kind with the given identity ref has been billed.
// DEPOSIT ignores the window and answers from the tenancy's lifetime history.
func (idx InvoicedIndex) IsInvoiced(kind ChargeKind, ref uuid.UUID) bool {
	if kind.IsLifetimeScoped() {
		return idx.depositBilled
	}
	if kind.IdentityKey() == IdentityKeyNone {
		ref = uuid.Nil
	}
	_, ok := idx.keys[invoicedKey{kind: kind, ref: ref}]
	return ok
}

// Len returns the number of distinct invoiced keys in the window
func (idx InvoicedIndex) Len() int {
	return len(idx.keys)
}

// DepositHistory is the lifetime deposit record of a tenancy on a property node
type DepositHistory struct {
	Receipted bool
	Invoiced  bool
}

// AlreadyBilled returns true if the deposit has been receipted or invoiced before
func (h DepositHistory) AlreadyBilled() bool {
	return h.Receipted || h.Invoiced
}
