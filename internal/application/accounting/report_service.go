package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/captech/portal/internal/domain/billing"
	"github.com/captech/portal/internal/domain/partner"
	"github.com/captech/portal/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PageSize is the fixed number of rows per report page
const PageSize = 50

// ReportFilter narrows the accounting report. Zero values mean "no constraint".
type ReportFilter struct {
	Statuses   []billing.InvoiceStatus
	From       *time.Time
	To         *time.Time
	CustomerID *uuid.UUID
	// Page is 1-based; values below 1 are treated as 1
	Page int
}

// Row is one invoice line of the report
type Row struct {
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	Number       string          `json:"number"`
	Date         time.Time       `json:"date"`
	CustomerName string          `json:"customer_name"`
	Status       string          `json:"status"`
	TotalHT      decimal.Decimal `json:"total_ht"`
	VAT          decimal.Decimal `json:"vat"`
	TotalTTC     decimal.Decimal `json:"total_ttc"`
}

// Totals sums the rows of one page, the figure printed at the bottom
// of the on-screen table
type Totals struct {
	TotalHT  decimal.Decimal `json:"total_ht"`
	VAT      decimal.Decimal `json:"vat"`
	TotalTTC decimal.Decimal `json:"total_ttc"`
}

// ReportPage is one page of the accounting report
type ReportPage struct {
	Rows       []Row  `json:"rows"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalCount int    `json:"total_count"`
	TotalPages int    `json:"total_pages"`
	Totals     Totals `json:"totals"`
}

// Service builds the accounting report: a filtered, paginated invoice
// listing with running totals, also exportable as CSV. Figures go through
// the same document calculator as every other view.
type Service struct {
	invoices  billing.InvoiceRepository
	customers partner.Repository
}

func NewService(invoices billing.InvoiceRepository, customers partner.Repository) *Service {
	return &Service{invoices: invoices, customers: customers}
}

// Report returns one page of the filtered report. The totals are the
// running subtotal, VAT and grand total of the visible page, not of the
// whole filtered set.
func (s *Service) Report(ctx context.Context, companyID uuid.UUID, filter ReportFilter) (*ReportPage, error) {
	rows, err := s.buildRows(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	totalCount := len(rows)
	totalPages := (totalCount + PageSize - 1) / PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > totalCount {
		start = totalCount
	}
	if end > totalCount {
		end = totalCount
	}

	pageRows := rows[start:end]
	return &ReportPage{
		Rows:       pageRows,
		Page:       page,
		PageSize:   PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
		Totals:     sumRows(pageRows),
	}, nil
}

// buildRows loads the filtered invoices, resolves customer names and totals
// every document. Rows come back ordered by issue date descending, the
// order the repository guarantees.
func (s *Service) buildRows(ctx context.Context, companyID uuid.UUID, filter ReportFilter) ([]Row, error) {
	invoices, err := s.invoices.FindForCompany(ctx, companyID, billing.InvoiceFilter{
		Statuses:   filter.Statuses,
		IssuedFrom: filter.From,
		IssuedTo:   filter.To,
		CustomerID: filter.CustomerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	customers, err := s.customers.FindForCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	nameByID := make(map[uuid.UUID]string, len(customers))
	for i := range customers {
		nameByID[customers[i].ID] = customers[i].Name
	}

	rows := make([]Row, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		docTotals, err := inv.Totals()
		if err != nil {
			return nil, fmt.Errorf("failed to total invoice %s: %w", inv.Number, err)
		}

		name := ""
		if inv.CustomerID != nil {
			name = nameByID[*inv.CustomerID]
		}
		rows = append(rows, Row{
			InvoiceID:    inv.ID,
			Number:       inv.Number,
			Date:         inv.IssueDate,
			CustomerName: name,
			Status:       inv.Status.String(),
			TotalHT:      docTotals.SubtotalHT,
			VAT:          docTotals.VATTotal,
			TotalTTC:     docTotals.TotalTTC,
		})
	}
	return rows, nil
}

// sumRows accumulates the per-row figures, already quantized by the
// document calculator, and quantizes the sums once more at the boundary.
func sumRows(rows []Row) Totals {
	sumHT, sumVAT, sumTTC := decimal.Zero, decimal.Zero, decimal.Zero
	for i := range rows {
		sumHT = sumHT.Add(rows[i].TotalHT)
		sumVAT = sumVAT.Add(rows[i].VAT)
		sumTTC = sumTTC.Add(rows[i].TotalTTC)
	}
	return Totals{
		TotalHT:  valueobject.Quantize2(sumHT),
		VAT:      valueobject.Quantize2(sumVAT),
		TotalTTC: valueobject.Quantize2(sumTTC),
	}
}
