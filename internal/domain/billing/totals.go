package billing

import (
	"github.com/captech/portal/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// LineTotals holds the derived amounts for a single line item.
// All monetary fields are quantized to 2 fractional digits.
type LineTotals struct {
	UnitHT      decimal.Decimal `json:"unit_ht"`
	BaseHT      decimal.Decimal `json:"base_ht"`
	DiscountHT  decimal.Decimal `json:"discount_ht"`
	LineHT      decimal.Decimal `json:"line_ht"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
	VATRatePct  decimal.Decimal `json:"vat_rate_pct"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
}

// DocumentTotals holds the aggregate amounts for an invoice or quote
type DocumentTotals struct {
	SubtotalHT decimal.Decimal `json:"subtotal_ht"`
	VATTotal   decimal.Decimal `json:"vat_total"`
	TotalTTC   decimal.Decimal `json:"total_ttc"`
}

// ZeroDocumentTotals returns all-zero totals quantized to 2 digits
func ZeroDocumentTotals() DocumentTotals {
	zero := valueobject.Quantize2(decimal.Zero)
	return DocumentTotals{SubtotalHT: zero, VATTotal: zero, TotalTTC: zero}
}

// ComputeLineTotals derives the amounts for one line item with a fixed
// rounding order: each step is quantized to 2 digits before the next uses
// it. Rounding late would let summed penny roundings drift away from the
// rounded sum, which is exactly the class of bug this calculator exists to
// prevent.
//
//	unit_ht     = q2(unit_price_cents / 100)
//	base_ht     = q2(unit_ht * quantity)
//	discount_ht = q2(base_ht * discount_pct / 100)
//	line_ht     = q2(base_ht - discount_ht)
//	vat_amount  = q2(line_ht * vat_rate_pct / 100)
//
// The function is deterministic and idempotent for identical inputs.
// Out-of-range inputs violate the caller contract and fail with a
// domain error; they are never silently clamped.
func ComputeLineTotals(item InvoiceItem) (LineTotals, error) {
	if err := validateItemInputs(item.Quantity, item.UnitPriceCents, item.VATRatePct, item.DiscountPct); err != nil {
		return LineTotals{}, err
	}

	unitHT := valueobject.FromCents(item.UnitPriceCents).Amount()
	baseHT := valueobject.Quantize2(unitHT.Mul(item.Quantity))
	discountHT := valueobject.Quantize2(baseHT.Mul(item.DiscountPct).Div(oneHundred))
	lineHT := valueobject.Quantize2(baseHT.Sub(discountHT))
	vatAmount := valueobject.Quantize2(lineHT.Mul(item.VATRatePct).Div(oneHundred))

	return LineTotals{
		UnitHT:      unitHT,
		BaseHT:      baseHT,
		DiscountHT:  discountHT,
		LineHT:      lineHT,
		VATAmount:   vatAmount,
		VATRatePct:  item.VATRatePct,
		DiscountPct: item.DiscountPct,
	}, nil
}

// ComputeDocumentTotals sums per-line totals into document-level amounts.
// The sums accumulate already-quantized per-line values; only the final
// TTC addition is quantized again. An empty item list yields all zeros.
func ComputeDocumentTotals(items []InvoiceItem) (DocumentTotals, error) {
	subtotal := decimal.Zero
	vatTotal := decimal.Zero
	for _, item := range items {
		lt, err := ComputeLineTotals(item)
		if err != nil {
			return DocumentTotals{}, err
		}
		subtotal = subtotal.Add(lt.LineHT)
		vatTotal = vatTotal.Add(lt.VATAmount)
	}
	return DocumentTotals{
		SubtotalHT: valueobject.Quantize2(subtotal),
		VATTotal:   valueobject.Quantize2(vatTotal),
		TotalTTC:   valueobject.Quantize2(subtotal.Add(vatTotal)),
	}, nil
}
