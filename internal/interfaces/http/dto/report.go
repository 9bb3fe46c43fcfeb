package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/captech/portal/internal/application/accounting"
	"github.com/captech/portal/internal/domain/billing"
)

// ReportQuery carries the accounting report filters, from query
// parameters on GET and from the JSON body on export requests.
type ReportQuery struct {
	// Status is a comma-separated list: "ISSUED,PAID"
	Status     string `form:"status" json:"status"`
	From       string `form:"from" json:"from"`
	To         string `form:"to" json:"to"`
	CustomerID string `form:"customer_id" json:"customer_id" binding:"omitempty,uuid"`
	Page       int    `form:"page" json:"page" binding:"omitempty,min=1"`
}

// ToFilter validates the query and converts it to a report filter.
// Dates are ISO (2006-01-02).
func (q ReportQuery) ToFilter() (accounting.ReportFilter, error) {
	filter := accounting.ReportFilter{Page: q.Page}

	if q.Status != "" {
		for _, raw := range strings.Split(q.Status, ",") {
			status := billing.InvoiceStatus(strings.ToUpper(strings.TrimSpace(raw)))
			if !status.IsValid() {
				return filter, fmt.Errorf("unknown status %q", raw)
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if q.From != "" {
		from, err := time.Parse("2006-01-02", q.From)
		if err != nil {
			return filter, fmt.Errorf("invalid from date %q", q.From)
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := time.Parse("2006-01-02", q.To)
		if err != nil {
			return filter, fmt.Errorf("invalid to date %q", q.To)
		}
		filter.To = &to
	}
	if q.CustomerID != "" {
		id, err := uuid.Parse(q.CustomerID)
		if err != nil {
			return filter, fmt.Errorf("invalid customer_id %q", q.CustomerID)
		}
		filter.CustomerID = &id
	}
	return filter, nil
}
