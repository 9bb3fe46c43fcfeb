package accounting

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// utf8BOM makes Excel detect the encoding and render the euro signs
const utf8BOM = "\uFEFF"

// csvHeader is written verbatim, spaces included, to match what the
// bookkeepers' import templates were built against.
const csvHeader = "Invoice, Date, Customer, Status, Total HT (€), TVA (€), Total TTC (€)"

// WriteCSV streams the full filtered report as CSV. Pagination does not
// apply; an export always carries every matching row. Dates are ISO
// formatted and amounts use two decimals with a dot separator.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, companyID uuid.UUID, filter ReportFilter) error {
	rows, err := s.buildRows(ctx, companyID, filter)
	if err != nil {
		return err
	}

	// the header goes out raw because encoding/csv would quote the
	// leading spaces the template requires
	if _, err := io.WriteString(w, utf8BOM+csvHeader+"\r\n"); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	for _, row := range rows {
		record := []string{
			row.Number,
			row.Date.Format("2006-01-02"),
			row.CustomerName,
			row.Status,
			row.TotalHT.StringFixed(2),
			row.VAT.StringFixed(2),
			row.TotalTTC.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
