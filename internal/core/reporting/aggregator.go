package reporting

import (
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
)

// Aggregate folds per-invoice verdicts into an immutable batch report.
// Verdicts are re-sorted by submission sequence so the report is deterministic
// and diffable no matter how the worker pool interleaved them.
func Aggregate(batchID string, verdicts []domain.Verdict, unprocessed []domain.UnprocessedDocument, generatedAt time.Time) *domain.ComplianceReport {
	ordered := make([]domain.Verdict, len(verdicts))
	copy(ordered, verdicts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Seq < ordered[j].Seq
	})

	summary := domain.ReportSummary{
		Total:       len(ordered) + len(unprocessed),
		Unprocessed: len(unprocessed),
	}
	for _, verdict := range ordered {
		if verdict.Compliant {
			summary.Compliant++
		} else {
			summary.Flagged++
		}
		if verdict.LowConfidence {
			summary.LowConfidence++
		}
	}

	return &domain.ComplianceReport{
		BatchID:     batchID,
		Verdicts:    ordered,
		Unprocessed: unprocessed,
		Summary:     summary,
		GeneratedAt: generatedAt,
	}
}

// Row is one exportable report line, consumed by the Excel/CSV exporters and
// the dashboard collaborator.
type Row struct {
	InvoiceID     string
	Supplier      string
	VATNumber     string
	Total         string
	Currency      string
	Compliant     bool
	LowConfidence bool
	Severity      float64
	Reasons       string
}

// Rows flattens report verdicts into tabular form, preserving report order.
func Rows(report *domain.ComplianceReport) []Row {
	rows := make([]Row, 0, len(report.Verdicts))
	for _, verdict := range report.Verdicts {
		row := Row{
			InvoiceID:     verdict.DocumentID,
			Supplier:      verdict.Record.Supplier.Value,
			VATNumber:     verdict.Record.VATNumber.Value,
			Currency:      verdict.Record.Currency.Value,
			Compliant:     verdict.Compliant,
			LowConfidence: verdict.LowConfidence,
			Severity:      verdict.Severity,
			Reasons:       strings.Join(verdict.Reasons, "; "),
		}
		if verdict.Record.Total.Found {
			row.Total = verdict.Record.Total.Value.StringFixed(2)
		}
		rows = append(rows, row)
	}
	return rows
}

// FailedCheck is one failed rule outcome row, mirroring the flat failed-checks
// table the finance side consumes.
type FailedCheck struct {
	InvoiceID string
	RuleID    string
	Message   string
}

// FailedChecks lists every fail-status outcome across the report, in report
// order then rule order.
func FailedChecks(report *domain.ComplianceReport) []FailedCheck {
	var checks []FailedCheck
	for _, verdict := range report.Verdicts {
		for _, outcome := range verdict.Outcomes {
			if outcome.Status != domain.RuleFail {
				continue
			}
			checks = append(checks, FailedCheck{
				InvoiceID: verdict.DocumentID,
				RuleID:    outcome.RuleID,
				Message:   outcome.Message,
			})
		}
	}
	return checks
}
