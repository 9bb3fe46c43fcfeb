package billing

import (
	"time"

	"github.com/captech/portal/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusIssued    InvoiceStatus = "ISSUED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether the invoice is awaiting payment.
// Only ISSUED invoices count as open; every other status is "not open".
func (s InvoiceStatus) IsOpen() bool {
	return s == InvoiceStatusIssued
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusIssued || target == InvoiceStatusCancelled
	case InvoiceStatusIssued:
		return target == InvoiceStatusPaid || target == InvoiceStatusCancelled
	case InvoiceStatusPaid, InvoiceStatusCancelled:
		return false
	}
	return false
}

// InvoiceItem represents a line item on an invoice or quote.
// Unit price is stored in integer minor units (cents) to avoid
// floating-point error; all derived amounts are computed on demand.
type InvoiceItem struct {
	ID             uuid.UUID
	InvoiceID      uuid.UUID
	Description    string
	Quantity       decimal.Decimal // non-negative, may be fractional
	UnitPriceCents int64
	VATRatePct     decimal.Decimal // percentage, may be fractional (e.g. 5.5)
	DiscountPct    decimal.Decimal // [0,100], zero when absent
	Position       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewInvoiceItem creates a new line item after validating the caller contract:
// quantity >= 0, unit price >= 0, VAT rate >= 0, discount in [0,100].
// Out-of-range values are rejected, never clamped.
func NewInvoiceItem(invoiceID uuid.UUID, description string, quantity decimal.Decimal, unitPriceCents int64, vatRatePct, discountPct decimal.Decimal) (*InvoiceItem, error) {
	if err := validateItemInputs(quantity, unitPriceCents, vatRatePct, discountPct); err != nil {
		return nil, err
	}
	now := time.Now()
	return &InvoiceItem{
		ID:             uuid.New(),
		InvoiceID:      invoiceID,
		Description:    description,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		VATRatePct:     vatRatePct,
		DiscountPct:    discountPct,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func validateItemInputs(quantity decimal.Decimal, unitPriceCents int64, vatRatePct, discountPct decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if unitPriceCents < 0 {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if vatRatePct.IsNegative() {
		return shared.NewDomainError("INVALID_VAT_RATE", "VAT rate cannot be negative")
	}
	if discountPct.IsNegative() || discountPct.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
	}
	return nil
}

// Invoice is the central billing aggregate: a numbered document issued by a
// company, optionally addressed to a customer, carrying an ordered list of
// line items. Totals are never persisted; they are recomputed from the items.
type Invoice struct {
	shared.CompanyAggregateRoot
	Number     string
	CustomerID *uuid.UUID
	IssueDate  time.Time
	DueDate    *time.Time
	Status     InvoiceStatus
	Items      []InvoiceItem
}

// NewInvoice creates a new draft invoice
func NewInvoice(companyID uuid.UUID, number string, issueDate time.Time) (*Invoice, error) {
	if companyID == uuid.Nil {
		return nil, shared.ErrCompanyMissing
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	inv := &Invoice{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Number:               number,
		IssueDate:            issueDate,
		Status:               InvoiceStatusDraft,
	}
	inv.AddDomainEvent(NewInvoiceChangedEvent(inv, ChangeCreated))
	return inv, nil
}

// AddItem appends a validated line item to the invoice
func (inv *Invoice) AddItem(description string, quantity decimal.Decimal, unitPriceCents int64, vatRatePct, discountPct decimal.Decimal) (*InvoiceItem, error) {
	item, err := NewInvoiceItem(inv.ID, description, quantity, unitPriceCents, vatRatePct, discountPct)
	if err != nil {
		return nil, err
	}
	item.Position = len(inv.Items)
	inv.Items = append(inv.Items, *item)
	inv.markChanged()
	return item, nil
}

// SetCustomer assigns the invoice to a customer
func (inv *Invoice) SetCustomer(customerID uuid.UUID) {
	inv.CustomerID = &customerID
	inv.markChanged()
}

// SetDueDate sets the optional due date
func (inv *Invoice) SetDueDate(due time.Time) {
	inv.DueDate = &due
	inv.markChanged()
}

// ChangeStatus transitions the invoice to a new status
func (inv *Invoice) ChangeStatus(target InvoiceStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown invoice status")
	}
	if !inv.Status.CanTransitionTo(target) {
		return shared.ErrInvalidState
	}
	inv.Status = target
	inv.markChanged()
	return nil
}

// Totals recomputes the document totals from the line items.
// Display, export and KPI paths must all go through here so the
// figures never disagree between views.
func (inv *Invoice) Totals() (DocumentTotals, error) {
	return ComputeDocumentTotals(inv.Items)
}

// markChanged records an update event and bumps the timestamp.
// Whoever persists the aggregate publishes the pending events after commit,
// which drives dashboard cache invalidation.
func (inv *Invoice) markChanged() {
	inv.UpdatedAt = time.Now()
	inv.AddDomainEvent(NewInvoiceChangedEvent(inv, ChangeUpdated))
}

// MarkDeleted records a deletion event for publication after the delete commits
func (inv *Invoice) MarkDeleted() {
	inv.AddDomainEvent(NewInvoiceChangedEvent(inv, ChangeDeleted))
}
