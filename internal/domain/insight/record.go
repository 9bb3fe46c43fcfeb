package insight

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Severity ranks how urgently a record should surface on the dashboard
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Record types emitted by the built-in rules
const (
	TypeLowMarginInvoice = "low_margin_invoice"
	TypeLostClient       = "lost_client"
)

// Record is one flagged condition found by an insight rule. Optional fields
// stay nil/zero when the rule that produced the record has no value for
// them; consumers must tolerate their absence.
type Record struct {
	Type            string           `json:"type"`
	Title           string           `json:"title"`
	Severity        Severity         `json:"severity"`
	Message         string           `json:"message"`
	InvoiceID       *uuid.UUID       `json:"invoice_id,omitempty"`
	InvoiceNumber   string           `json:"invoice_number,omitempty"`
	CustomerID      *uuid.UUID       `json:"customer_id,omitempty"`
	CustomerName    string           `json:"customer_name,omitempty"`
	DiscountPct     *decimal.Decimal `json:"discount_pct,omitempty"`
	LastInvoiceDate *time.Time       `json:"last_invoice_date,omitempty"`
}
