package document

import (
	"context"
	"fmt"
	"time"

	"github.com/captech/portal/internal/domain/billing"
	"github.com/captech/portal/internal/domain/company"
	"github.com/captech/portal/internal/domain/partner"
	"github.com/captech/portal/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind selects the document template
type Kind string

const (
	KindInvoice Kind = "invoice"
	KindQuote   Kind = "quote"
)

// LineView is one rendered document line with its computed amounts
type LineView struct {
	Description string
	Quantity    decimal.Decimal
	UnitHT      decimal.Decimal
	VATRatePct  decimal.Decimal
	DiscountPct decimal.Decimal
	LineHT      decimal.Decimal
}

// View carries everything a document template needs. Amounts are already
// quantized; the template only formats.
type View struct {
	Kind          Kind
	Number        string
	IssueDate     time.Time
	DueDate       *time.Time
	ValidUntil    *time.Time
	Status        string
	CompanyName   string
	CompanySIRET  string
	CompanyEmail  string
	CustomerName  string
	CustomerAddr  string
	CustomerVAT   string
	FooterNote    string
	Lines         []LineView
	SubtotalHT    decimal.Decimal
	VATTotal      decimal.Decimal
	TotalTTC      decimal.Decimal
}

// Printer turns a document view into a PDF
type Printer interface {
	Render(ctx context.Context, view *View) ([]byte, error)
}

// Service builds printable document views and drives the PDF pipeline
type Service struct {
	invoices  billing.InvoiceRepository
	quotes    billing.QuoteRepository
	customers partner.Repository
	companies company.Repository
	printer   Printer
}

func NewService(
	invoices billing.InvoiceRepository,
	quotes billing.QuoteRepository,
	customers partner.Repository,
	companies company.Repository,
	printer Printer,
) *Service {
	return &Service{
		invoices:  invoices,
		quotes:    quotes,
		customers: customers,
		companies: companies,
		printer:   printer,
	}
}

// RenderInvoicePDF renders the invoice identified by id, scoped to the
// calling company
func (s *Service) RenderInvoicePDF(ctx context.Context, companyID, id uuid.UUID) ([]byte, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}

	view, err := s.invoiceView(ctx, inv)
	if err != nil {
		return nil, err
	}
	return s.printer.Render(ctx, view)
}

// RenderQuotePDF renders the quote identified by id, scoped to the
// calling company
func (s *Service) RenderQuotePDF(ctx context.Context, companyID, id uuid.UUID) ([]byte, error) {
	quote, err := s.quotes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}

	view, err := s.quoteView(ctx, quote)
	if err != nil {
		return nil, err
	}
	return s.printer.Render(ctx, view)
}

func (s *Service) invoiceView(ctx context.Context, inv *billing.Invoice) (*View, error) {
	view := &View{
		Kind:      KindInvoice,
		Number:    inv.Number,
		IssueDate: inv.IssueDate,
		DueDate:   inv.DueDate,
		Status:    inv.Status.String(),
	}
	if err := s.fillParties(ctx, view, inv.CompanyID, inv.CustomerID); err != nil {
		return nil, err
	}
	if err := fillLines(view, inv.Items); err != nil {
		return nil, fmt.Errorf("failed to total invoice %s: %w", inv.Number, err)
	}
	return view, nil
}

func (s *Service) quoteView(ctx context.Context, quote *billing.Quote) (*View, error) {
	view := &View{
		Kind:       KindQuote,
		Number:     quote.Number,
		IssueDate:  quote.IssueDate,
		ValidUntil: quote.ValidUntil,
		FooterNote: quote.FooterNote,
	}
	if err := s.fillParties(ctx, view, quote.CompanyID, quote.CustomerID); err != nil {
		return nil, err
	}
	if err := fillLines(view, quote.Items); err != nil {
		return nil, fmt.Errorf("failed to total quote %s: %w", quote.Number, err)
	}
	return view, nil
}

func (s *Service) fillParties(ctx context.Context, view *View, companyID uuid.UUID, customerID *uuid.UUID) error {
	comp, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to load company: %w", err)
	}
	view.CompanyName = comp.Name
	view.CompanySIRET = comp.SIRET
	view.CompanyEmail = comp.Email

	if customerID == nil {
		return nil
	}
	cust, err := s.customers.FindByID(ctx, *customerID)
	if err != nil {
		return fmt.Errorf("failed to load customer: %w", err)
	}
	view.CustomerName = cust.Name
	view.CustomerAddr = cust.BillingAddress
	view.CustomerVAT = cust.VATNumber
	return nil
}

// fillLines computes per-line and document totals through the shared
// calculator so the PDF always agrees with the dashboard and the report
func fillLines(view *View, items []billing.InvoiceItem) error {
	docTotals, err := billing.ComputeDocumentTotals(items)
	if err != nil {
		return err
	}
	lines := make([]LineView, 0, len(items))
	for i := range items {
		lt, err := billing.ComputeLineTotals(items[i])
		if err != nil {
			return err
		}
		lines = append(lines, LineView{
			Description: items[i].Description,
			Quantity:    items[i].Quantity,
			UnitHT:      lt.UnitHT,
			VATRatePct:  lt.VATRatePct,
			DiscountPct: lt.DiscountPct,
			LineHT:      lt.LineHT,
		})
	}
	view.Lines = lines
	view.SubtotalHT = docTotals.SubtotalHT
	view.VATTotal = docTotals.VATTotal
	view.TotalTTC = docTotals.TotalTTC
	return nil
}
