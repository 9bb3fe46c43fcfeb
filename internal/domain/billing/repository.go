package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceFilter narrows invoice queries. Zero values mean "no constraint".
type InvoiceFilter struct {
	Statuses   []InvoiceStatus
	IssuedFrom *time.Time
	IssuedTo   *time.Time
	CustomerID *uuid.UUID
	// Limit/Offset paginate the result ordered by issue date descending.
	// Limit 0 returns everything.
	Limit  int
	Offset int
}

// InvoiceRepository provides access to invoices with their items preloaded
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindForCompany returns the company's invoices matching the filter,
	// items preloaded, ordered by issue date descending.
	FindForCompany(ctx context.Context, companyID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)
	CountForCompany(ctx context.Context, companyID uuid.UUID, filter InvoiceFilter) (int64, error)
	// Save persists the aggregate and, once the transaction has committed,
	// publishes its pending domain events.
	Save(ctx context.Context, invoice *Invoice) error
	Delete(ctx context.Context, invoice *Invoice) error
}

// QuoteRepository provides access to quotes with their items preloaded
type QuoteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	FindForCompany(ctx context.Context, companyID uuid.UUID) ([]Quote, error)
	Save(ctx context.Context, quote *Quote) error
}

// PaymentRepository provides access to payments
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	Delete(ctx context.Context, payment *Payment) error
}
