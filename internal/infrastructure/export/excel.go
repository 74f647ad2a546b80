package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/reporting"
)

// Exporter renders finished batch reports as downloadable files. The Excel
// workbook mirrors the two-sheet layout finance works with: a Summary sheet
// with one row per invoice and a Failed Checks sheet with one row per
// failed rule.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

var summaryHeaders = []any{
	"Invoice ID", "Supplier", "VAT Number", "Total", "Currency",
	"Compliant", "Low Confidence", "Severity", "Reasons",
}

var failedHeaders = []any{"Invoice ID", "Rule", "Detail"}

func (e *Exporter) Excel(report *domain.ComplianceReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeaders); err != nil {
		return nil, fmt.Errorf("write summary header: %w", err)
	}
	for i, row := range reporting.Rows(report) {
		cells := []any{
			row.InvoiceID, row.Supplier, row.VATNumber, row.Total, row.Currency,
			boolCell(row.Compliant), boolCell(row.LowConfidence), row.Severity, row.Reasons,
		}
		anchor := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(summarySheet, anchor, &cells); err != nil {
			return nil, fmt.Errorf("write summary row %d: %w", i, err)
		}
	}

	const failedSheet = "Failed Checks"
	if _, err := f.NewSheet(failedSheet); err != nil {
		return nil, fmt.Errorf("create failed checks sheet: %w", err)
	}
	if err := f.SetSheetRow(failedSheet, "A1", &failedHeaders); err != nil {
		return nil, fmt.Errorf("write failed checks header: %w", err)
	}
	for i, check := range reporting.FailedChecks(report) {
		cells := []any{check.InvoiceID, check.RuleID, check.Message}
		anchor := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(failedSheet, anchor, &cells); err != nil {
			return nil, fmt.Errorf("write failed check row %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func boolCell(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
