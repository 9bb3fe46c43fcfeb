package insight

import (
	"fmt"
	"time"

	"github.com/captech/portal/internal/domain/billing"
	"github.com/captech/portal/internal/domain/partner"
	"github.com/captech/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Input is the company-scoped data a rule evaluates over. Rules are pure:
// they read the input and emit records, with no I/O and no defined output
// ordering.
type Input struct {
	Today     time.Time
	Invoices  []billing.Invoice
	Customers []partner.Customer
}

// Rule flags conditions worth surfacing on the dashboard. Implementations
// must not fail on missing optional data such as an absent due date or a
// customer without invoices; a line item that violates the calculator's
// contract is an error, never a silent skip.
type Rule interface {
	Name() string
	Evaluate(input Input) ([]Record, error)
}

const (
	// DefaultLowMarginThresholdPct flags invoices discounted by 20% or more
	DefaultLowMarginThresholdPct = 20
	// DefaultLostMonths flags clients silent for six months
	DefaultLostMonths = 6
	// daysPerMonth is a deliberate 30-day approximation, not calendar
	// months. Switching to calendar months would silently change which
	// customers get flagged, so it stays until product asks for it.
	daysPerMonth = 30
)

var oneHundred = decimal.NewFromInt(100)

// LowMarginRule flags invoices whose aggregate discount ratio reaches the
// threshold. The discount is a proxy for margin: the item model carries no
// unit cost, so a heavy discount is the best available low-margin signal.
type LowMarginRule struct {
	ThresholdPct decimal.Decimal
}

// NewLowMarginRule creates the rule with the given threshold percentage
func NewLowMarginRule(thresholdPct decimal.Decimal) *LowMarginRule {
	return &LowMarginRule{ThresholdPct: thresholdPct}
}

// Name implements Rule
func (r *LowMarginRule) Name() string { return TypeLowMarginInvoice }

// Evaluate scans ISSUED and PAID invoices. An invoice with zero subtotal is
// skipped rather than divided by; that is a defined no-emit, not an error.
// A line the calculator rejects fails the evaluation, so a bad row never
// deflates the discount ratio unnoticed.
func (r *LowMarginRule) Evaluate(input Input) ([]Record, error) {
	var records []Record
	for i := range input.Invoices {
		inv := &input.Invoices[i]
		if inv.Status != billing.InvoiceStatusIssued && inv.Status != billing.InvoiceStatusPaid {
			continue
		}

		subtotal := decimal.Zero
		discountTotal := decimal.Zero
		for _, item := range inv.Items {
			lt, err := billing.ComputeLineTotals(item)
			if err != nil {
				return nil, fmt.Errorf("failed to total a line of invoice %s: %w", inv.Number, err)
			}
			subtotal = subtotal.Add(lt.BaseHT)
			discountTotal = discountTotal.Add(lt.DiscountHT)
		}

		if !subtotal.IsPositive() {
			continue
		}
		ratio := valueobject.Quantize2(discountTotal.Div(subtotal).Mul(oneHundred))
		if ratio.LessThan(r.ThresholdPct) {
			continue
		}

		invoiceID := inv.ID
		discountPct := ratio
		records = append(records, Record{
			Type:          TypeLowMarginInvoice,
			Title:         "Low margin",
			Severity:      SeverityWarning,
			Message:       fmt.Sprintf("Discount of %s%% on invoice %s", ratio.StringFixed(2), inv.Number),
			InvoiceID:     &invoiceID,
			InvoiceNumber: inv.Number,
			DiscountPct:   &discountPct,
		})
	}
	return records, nil
}

// LostClientRule flags customers whose most recent invoice is older than the
// recency window. A customer with no invoices at all is never flagged: they
// are "never engaged", not lost.
type LostClientRule struct {
	LostMonths int
}

// NewLostClientRule creates the rule with the given window in months
func NewLostClientRule(lostMonths int) *LostClientRule {
	return &LostClientRule{LostMonths: lostMonths}
}

// Name implements Rule
func (r *LostClientRule) Name() string { return TypeLostClient }

// Evaluate flags customers whose last issue date is strictly before
// today - 30*LostMonths days.
func (r *LostClientRule) Evaluate(input Input) ([]Record, error) {
	cutoff := input.Today.AddDate(0, 0, -daysPerMonth*r.LostMonths)

	lastInvoice := make(map[string]time.Time, len(input.Customers))
	for i := range input.Invoices {
		inv := &input.Invoices[i]
		if inv.CustomerID == nil {
			continue
		}
		key := inv.CustomerID.String()
		if last, ok := lastInvoice[key]; !ok || inv.IssueDate.After(last) {
			lastInvoice[key] = inv.IssueDate
		}
	}

	var records []Record
	for i := range input.Customers {
		c := &input.Customers[i]
		last, ok := lastInvoice[c.ID.String()]
		if !ok {
			continue
		}
		if !last.Before(cutoff) {
			continue
		}

		customerID := c.ID
		lastDate := last
		records = append(records, Record{
			Type:            TypeLostClient,
			Title:           "Client possibly lost",
			Severity:        SeverityInfo,
			Message:         fmt.Sprintf("No invoicing since %s for %s", last.Format("2006-01-02"), c.Name),
			CustomerID:      &customerID,
			CustomerName:    c.Name,
			LastInvoiceDate: &lastDate,
		})
	}
	return records, nil
}
