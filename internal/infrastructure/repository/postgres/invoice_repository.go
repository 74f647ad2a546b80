package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
)

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *InvoiceRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS invoice_documents (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	filename TEXT NOT NULL,
	format TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invoice_documents_batch ON invoice_documents(batch_id, seq);

CREATE TABLE IF NOT EXISTS invoice_verdicts (
	document_id TEXT PRIMARY KEY REFERENCES invoice_documents(id),
	batch_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	severity DOUBLE PRECISION NOT NULL,
	compliant BOOLEAN NOT NULL,
	low_confidence BOOLEAN NOT NULL,
	verdict JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invoice_verdicts_batch ON invoice_verdicts(batch_id, seq);

CREATE TABLE IF NOT EXISTS compliance_reports (
	batch_id TEXT PRIMARY KEY,
	report JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) Create(ctx context.Context, doc *domain.RawDocument) error {
	const op = "postgres.Create"

	_, err := r.db.ExecContext(ctx, `
INSERT INTO invoice_documents (
	id, batch_id, seq, filename, format, storage_path, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.BatchID, doc.Seq, doc.Filename, string(doc.Format), doc.StoragePath,
		string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, op, fmt.Errorf("insert document: %w", err))
	}
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.RawDocument, error) {
	const op = "postgres.GetByID"

	row := r.db.QueryRowContext(ctx, `
SELECT id, batch_id, seq, filename, format, storage_path, status, error_message, created_at, updated_at
FROM invoice_documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("document %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *InvoiceRepository) ListByBatch(ctx context.Context, batchID string) ([]domain.RawDocument, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, batch_id, seq, filename, format, storage_path, status, error_message, created_at, updated_at
FROM invoice_documents
WHERE batch_id = $1
ORDER BY seq
`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query batch documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.RawDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch documents: %w", err)
	}
	return docs, nil
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	const op = "postgres.UpdateStatus"

	res, err := r.db.ExecContext(ctx, `
UPDATE invoice_documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document status rows: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("document %s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.RawDocument, error) {
	var doc domain.RawDocument
	var format, status string

	err := row.Scan(
		&doc.ID, &doc.BatchID, &doc.Seq, &doc.Filename, &format, &doc.StoragePath,
		&status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Format = domain.DocumentFormat(format)
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}
