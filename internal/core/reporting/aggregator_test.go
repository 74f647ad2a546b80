package reporting

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
)

func sampleVerdicts() []domain.Verdict {
	return []domain.Verdict{
		{DocumentID: "doc-0", Seq: 0, Compliant: true},
		{DocumentID: "doc-1", Seq: 1, Compliant: false, Severity: 1, Reasons: []string{"totals mismatch"}},
		{DocumentID: "doc-2", Seq: 2, Compliant: true, LowConfidence: true},
		{DocumentID: "doc-3", Seq: 3, Compliant: false, Severity: 2.5},
	}
}

func TestAggregateCounts(t *testing.T) {
	unprocessed := []domain.UnprocessedDocument{{DocumentID: "doc-4", Filename: "broken.pdf", Reason: "unreadable"}}
	report := Aggregate("batch-1", sampleVerdicts(), unprocessed, time.Now())

	want := domain.ReportSummary{Total: 5, Compliant: 2, Flagged: 2, LowConfidence: 1, Unprocessed: 1}
	if report.Summary != want {
		t.Fatalf("summary = %+v, want %+v", report.Summary, want)
	}
	if report.BatchID != "batch-1" {
		t.Fatalf("batch id = %s", report.BatchID)
	}
}

func TestAggregatePreservesSubmissionOrder(t *testing.T) {
	base := sampleVerdicts()
	generatedAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	reference := Aggregate("batch-1", base, nil, generatedAt)

	rng := rand.New(rand.NewSource(42))
	for range 5 {
		shuffled := make([]domain.Verdict, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		report := Aggregate("batch-1", shuffled, nil, generatedAt)
		if !reflect.DeepEqual(report, reference) {
			t.Fatalf("report differs for reordered input:\n%+v\n%+v", report, reference)
		}
	}
}

func TestRowsJoinReasons(t *testing.T) {
	verdicts := []domain.Verdict{{
		DocumentID: "doc-1",
		Seq:        0,
		Record: domain.InvoiceRecord{
			Supplier:  domain.StringField{Value: "Acme", Found: true},
			VATNumber: domain.StringField{Value: "GB123456789", Found: true},
		},
		Severity: 2,
		Reasons:  []string{"first reason", "second reason"},
	}}
	report := Aggregate("batch-1", verdicts, nil, time.Now())

	rows := Rows(report)
	if len(rows) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Reasons != "first reason; second reason" {
		t.Fatalf("reasons = %q", rows[0].Reasons)
	}
	if rows[0].Total != "" {
		t.Fatalf("total should be empty when not extracted, got %q", rows[0].Total)
	}
}

func TestFailedChecksKeepRuleOrder(t *testing.T) {
	verdicts := []domain.Verdict{{
		DocumentID: "doc-1",
		Outcomes: []domain.RuleOutcome{
			{RuleID: "vat_number_format", Status: domain.RuleFail, Message: "bad format"},
			{RuleID: "total_positive", Status: domain.RulePass},
			{RuleID: "totals_match", Status: domain.RuleFail, Message: "mismatch"},
		},
	}}
	report := Aggregate("batch-1", verdicts, nil, time.Now())

	checks := FailedChecks(report)
	if len(checks) != 2 {
		t.Fatalf("checks = %+v", checks)
	}
	if checks[0].RuleID != "vat_number_format" || checks[1].RuleID != "totals_match" {
		t.Fatalf("unexpected order: %+v", checks)
	}
}
