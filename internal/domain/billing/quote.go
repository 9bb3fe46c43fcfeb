package billing

import (
	"time"

	"github.com/captech/portal/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote is a priced proposal sent to a prospect. It shares the line-item
// shape and the totals calculator with invoices so a quote converted into
// an invoice shows identical figures.
type Quote struct {
	shared.CompanyAggregateRoot
	Number     string
	CustomerID *uuid.UUID
	IssueDate  time.Time
	ValidUntil *time.Time
	FooterNote string
	Items      []InvoiceItem
}

// NewQuote creates a new quote
func NewQuote(companyID uuid.UUID, number string, issueDate time.Time) (*Quote, error) {
	if companyID == uuid.Nil {
		return nil, shared.ErrCompanyMissing
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Quote number cannot be empty")
	}
	return &Quote{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Number:               number,
		IssueDate:            issueDate,
	}, nil
}

// AddItem appends a validated line item to the quote
func (q *Quote) AddItem(description string, quantity decimal.Decimal, unitPriceCents int64, vatRatePct, discountPct decimal.Decimal) (*InvoiceItem, error) {
	item, err := NewInvoiceItem(q.ID, description, quantity, unitPriceCents, vatRatePct, discountPct)
	if err != nil {
		return nil, err
	}
	item.Position = len(q.Items)
	q.Items = append(q.Items, *item)
	q.UpdatedAt = time.Now()
	return item, nil
}

// Totals recomputes the document totals from the line items
func (q *Quote) Totals() (DocumentTotals, error) {
	return ComputeDocumentTotals(q.Items)
}
