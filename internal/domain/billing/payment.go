package billing

import (
	"time"

	"github.com/captech/portal/internal/domain/shared"
	"github.com/google/uuid"
)

// Payment records money received against an invoice. The portal does not
// reconcile payments; the aggregate exists so that payment writes feed the
// same cache-invalidation path as invoice writes.
type Payment struct {
	shared.CompanyAggregateRoot
	InvoiceID   uuid.UUID
	AmountCents int64
	PaidAt      time.Time
}

// NewPayment creates a new payment for an invoice
func NewPayment(companyID, invoiceID uuid.UUID, amountCents int64, paidAt time.Time) (*Payment, error) {
	if companyID == uuid.Nil {
		return nil, shared.ErrCompanyMissing
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Payment requires an invoice")
	}
	if amountCents <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	p := &Payment{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		InvoiceID:            invoiceID,
		AmountCents:          amountCents,
		PaidAt:               paidAt,
	}
	p.AddDomainEvent(NewPaymentChangedEvent(p, ChangeCreated))
	return p, nil
}

// MarkDeleted records a deletion event for publication after the delete commits
func (p *Payment) MarkDeleted() {
	p.AddDomainEvent(NewPaymentChangedEvent(p, ChangeDeleted))
}
