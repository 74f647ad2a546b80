package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
)

func sampleReport() *domain.ComplianceReport {
	return &domain.ComplianceReport{
		BatchID: "batch-1",
		Verdicts: []domain.Verdict{
			{
				DocumentID: "doc-1",
				Seq:        0,
				Record: domain.InvoiceRecord{
					DocumentID: "doc-1",
					Supplier:   domain.StringField{Value: "Acme Widgets Ltd", Confidence: 0.9, Found: true},
					VATNumber:  domain.StringField{Value: "GB123456789", Confidence: 0.9, Found: true},
					Total:      domain.AmountField{Value: decimal.RequireFromString("120.00"), Confidence: 0.9, Found: true},
					Currency:   domain.StringField{Value: "GBP", Confidence: 0.6, Found: true},
				},
				Compliant: true,
			},
			{
				DocumentID: "doc-2",
				Seq:        1,
				Record: domain.InvoiceRecord{
					DocumentID: "doc-2",
					Supplier:   domain.StringField{Value: "Globex GmbH", Confidence: 0.6, Found: true},
				},
				Outcomes: []domain.RuleOutcome{
					{RuleID: "vat_number_format", Status: domain.RuleFail, Message: "vat number missing"},
					{RuleID: "total_positive", Status: domain.RuleInapplicable, Message: "total not extracted"},
				},
				Severity: 2,
				Reasons:  []string{"VAT number must match the configured country format"},
			},
		},
		Summary:     domain.ReportSummary{Total: 2, Compliant: 1, Flagged: 1},
		GeneratedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestExcelHasSummaryAndFailedChecksSheets(t *testing.T) {
	data, err := NewExporter().Excel(sampleReport())
	if err != nil {
		t.Fatalf("Excel() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Summary")
	if err != nil {
		t.Fatalf("read Summary sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][1] != "Acme Widgets Ltd" || rows[1][3] != "120.00" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][5] != "no" {
		t.Fatalf("expected non-compliant marker, got %v", rows[2])
	}

	failed, err := f.GetRows("Failed Checks")
	if err != nil {
		t.Fatalf("read Failed Checks sheet: %v", err)
	}
	if len(failed) != 2 {
		t.Fatalf("expected header + 1 failed check, got %d", len(failed))
	}
	if failed[1][0] != "doc-2" || failed[1][1] != "vat_number_format" {
		t.Fatalf("unexpected failed check row: %v", failed[1])
	}
}

func TestCSVPreservesReportOrder(t *testing.T) {
	data, err := NewExporter().CSV(sampleReport())
	if err != nil {
		t.Fatalf("CSV() error = %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "invoice_id" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][0] != "doc-1" || records[2][0] != "doc-2" {
		t.Fatalf("rows out of order: %v", records)
	}
	if records[2][3] != "" {
		t.Fatalf("expected empty total for missing field, got %q", records[2][3])
	}
	if !strings.Contains(records[2][8], "VAT number") {
		t.Fatalf("expected reason text, got %q", records[2][8])
	}
}
