package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/reporting"
)

var csvHeader = []string{
	"invoice_id", "supplier", "vat_number", "total", "currency",
	"compliant", "low_confidence", "severity", "reasons",
}

func (e *Exporter) CSV(report *domain.ComplianceReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range reporting.Rows(report) {
		record := []string{
			row.InvoiceID,
			row.Supplier,
			row.VATNumber,
			row.Total,
			row.Currency,
			strconv.FormatBool(row.Compliant),
			strconv.FormatBool(row.LowConfidence),
			strconv.FormatFloat(row.Severity, 'f', -1, 64),
			row.Reasons,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
