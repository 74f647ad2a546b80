package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
)

func newInvoiceRepoWithMock(t *testing.T) (*InvoiceRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &InvoiceRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newInvoiceRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, batch_id, seq, filename").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newInvoiceRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE invoice_documents").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByBatchOrdersBySeq(t *testing.T) {
	repo, mock, done := newInvoiceRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "batch_id", "seq", "filename", "format", "storage_path",
		"status", "error_message", "created_at", "updated_at",
	}).
		AddRow("doc-1", "batch-1", 0, "a.pdf", "pdf", "batch-1/doc-1_a.pdf", "uploaded", "", now, now).
		AddRow("doc-2", "batch-1", 1, "b.txt", "text", "batch-1/doc-2_b.txt", "uploaded", "", now, now)

	mock.ExpectQuery("SELECT id, batch_id, seq, filename").
		WithArgs("batch-1").
		WillReturnRows(rows)

	docs, err := repo.ListByBatch(context.Background(), "batch-1")
	if err != nil {
		t.Fatalf("ListByBatch() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Seq != 0 || docs[1].Seq != 1 {
		t.Fatalf("unexpected order: %v", docs)
	}
	if docs[1].Format != domain.FormatText {
		t.Fatalf("expected text format, got %s", docs[1].Format)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
