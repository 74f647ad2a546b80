package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
)

// ReportRepository stores per-document verdicts as they are produced and
// the assembled batch report once the batch finishes. Verdicts and reports
// are kept as JSONB so the batch archive survives rule set changes.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) SaveVerdict(ctx context.Context, batchID string, verdict domain.Verdict) error {
	payload, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO invoice_verdicts (document_id, batch_id, seq, severity, compliant, low_confidence, verdict, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (document_id) DO UPDATE
SET severity = EXCLUDED.severity,
    compliant = EXCLUDED.compliant,
    low_confidence = EXCLUDED.low_confidence,
    verdict = EXCLUDED.verdict,
    created_at = EXCLUDED.created_at
`, verdict.DocumentID, batchID, verdict.Seq, verdict.Severity, verdict.Compliant, verdict.LowConfidence, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert verdict: %w", err)
	}
	return nil
}

func (r *ReportRepository) SaveReport(ctx context.Context, report *domain.ComplianceReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO compliance_reports (batch_id, report, generated_at)
VALUES ($1,$2,$3)
ON CONFLICT (batch_id) DO UPDATE
SET report = EXCLUDED.report, generated_at = EXCLUDED.generated_at
`, report.BatchID, payload, report.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByBatch(ctx context.Context, batchID string) (*domain.ComplianceReport, error) {
	const op = "postgres.GetByBatch"

	row := r.db.QueryRowContext(ctx, `
SELECT report
FROM compliance_reports
WHERE batch_id = $1
`, batchID)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrReportNotFound, op, fmt.Errorf("batch %s", batchID))
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	var report domain.ComplianceReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

func (r *ReportRepository) ListBatches(ctx context.Context) ([]domain.BatchRef, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT batch_id, generated_at
FROM compliance_reports
ORDER BY generated_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var refs []domain.BatchRef
	for rows.Next() {
		var ref domain.BatchRef
		if err := rows.Scan(&ref.BatchID, &ref.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan batch ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return refs, nil
}
