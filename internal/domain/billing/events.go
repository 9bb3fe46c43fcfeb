package billing

import (
	"github.com/captech/portal/internal/domain/shared"
)

// Event types published by the billing context
const (
	EventTypeInvoiceChanged = "billing.invoice.changed"
	EventTypePaymentChanged = "billing.payment.changed"
)

// ChangeKind describes what happened to the aggregate
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// InvoiceChangedEvent is published whenever an invoice for a company is
// created, updated or deleted. The dashboard subscribes to it to drop the
// company's cached KPI snapshot; publication happens after the write
// commits so a later cache fill can never capture pre-write state.
type InvoiceChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string     `json:"invoice_number"`
	Change        ChangeKind `json:"change"`
}

// NewInvoiceChangedEvent creates an InvoiceChangedEvent for the invoice
func NewInvoiceChangedEvent(inv *Invoice, change ChangeKind) *InvoiceChangedEvent {
	return &InvoiceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceChanged, "Invoice", inv.ID, inv.CompanyID),
		InvoiceNumber:   inv.Number,
		Change:          change,
	}
}

// PaymentChangedEvent is published whenever a payment for a company is
// created, updated or deleted. It triggers the same dashboard invalidation
// as invoice changes.
type PaymentChangedEvent struct {
	shared.BaseDomainEvent
	Change ChangeKind `json:"change"`
}

// NewPaymentChangedEvent creates a PaymentChangedEvent for the payment
func NewPaymentChangedEvent(p *Payment, change ChangeKind) *PaymentChangedEvent {
	return &PaymentChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentChanged, "Payment", p.ID, p.CompanyID),
		Change:          change,
	}
}
