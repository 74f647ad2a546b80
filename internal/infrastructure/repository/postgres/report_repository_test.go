package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
)

func newReportRepoWithMock(t *testing.T) (*ReportRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ReportRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByBatchReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT report").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByBatch(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByBatchRoundTripsReportJSON(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	stored := domain.ComplianceReport{
		BatchID: "batch-1",
		Summary: domain.ReportSummary{Total: 2, Compliant: 1, Flagged: 1},
		Verdicts: []domain.Verdict{
			{DocumentID: "doc-1", Seq: 0, Compliant: true},
			{DocumentID: "doc-2", Seq: 1, Severity: 2.5},
		},
		GeneratedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	mock.ExpectQuery("SELECT report").
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"report"}).AddRow(payload))

	report, err := repo.GetByBatch(context.Background(), "batch-1")
	if err != nil {
		t.Fatalf("GetByBatch() error = %v", err)
	}
	if report.BatchID != "batch-1" || len(report.Verdicts) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Summary.Flagged != 1 {
		t.Fatalf("expected 1 flagged, got %d", report.Summary.Flagged)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveVerdictUpsertsByDocument(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO invoice_verdicts").
		WithArgs("doc-1", "batch-1", 0, 1.5, false, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveVerdict(context.Background(), "batch-1", domain.Verdict{
		DocumentID: "doc-1",
		Seq:        0,
		Severity:   1.5,
	})
	if err != nil {
		t.Fatalf("SaveVerdict() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListBatchesScansRefs(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	newer := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT batch_id, generated_at").
		WillReturnRows(sqlmock.NewRows([]string{"batch_id", "generated_at"}).
			AddRow("batch-2", newer).
			AddRow("batch-1", older))

	refs, err := repo.ListBatches(context.Background())
	if err != nil {
		t.Fatalf("ListBatches() error = %v", err)
	}
	if len(refs) != 2 || refs[0].BatchID != "batch-2" {
		t.Fatalf("unexpected refs: %v", refs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
