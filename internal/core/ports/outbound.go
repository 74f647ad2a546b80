package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
)

// InvoiceRepository persists and reads document state.
type InvoiceRepository interface {
	Create(ctx context.Context, doc *domain.RawDocument) error
	GetByID(ctx context.Context, id string) (*domain.RawDocument, error)
	ListByBatch(ctx context.Context, batchID string) ([]domain.RawDocument, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// ReportRepository is the warehouse sink: verdicts and immutable report
// snapshots, queryable per batch.
type ReportRepository interface {
	SaveVerdict(ctx context.Context, batchID string, verdict domain.Verdict) error
	SaveReport(ctx context.Context, report *domain.ComplianceReport) error
	GetByBatch(ctx context.Context, batchID string) (*domain.ComplianceReport, error)
	ListBatches(ctx context.Context) ([]domain.BatchRef, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes batch submission events.
type MessageQueue interface {
	PublishBatchSubmitted(ctx context.Context, batchID string) error
	SubscribeBatchSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.RawDocument) (string, error)
}

// SemanticExtractor is the external language-model collaborator: normalized
// text plus a field name in, a raw candidate string out. found=false means
// "not found" and is not an error. Candidates are untrusted text and go
// through the same coercion as anchor matches.
type SemanticExtractor interface {
	ExtractField(ctx context.Context, text, field string) (candidate string, found bool, err error)
}

// RecordExtractor derives a structured record from document text. It never
// fails: unlocatable fields stay empty with confidence 0.
type RecordExtractor interface {
	Extract(ctx context.Context, documentID, text string) domain.InvoiceRecord
}

// RuleEvaluator runs the registered ruleset in order.
type RuleEvaluator interface {
	Evaluate(record domain.InvoiceRecord) []domain.RuleOutcome
}

// VerdictScorer folds outcomes into a severity score and reasons.
type VerdictScorer interface {
	Score(record domain.InvoiceRecord, outcomes []domain.RuleOutcome) domain.Assessment
}

// PipelineMetrics observes per-invoice processing.
type PipelineMetrics interface {
	StartInvoice()
	FinishInvoice(status string, elapsed time.Duration)
	ObserveQueueLag(lag time.Duration)
}

// ReportExporter renders a report for download.
type ReportExporter interface {
	Excel(report *domain.ComplianceReport) ([]byte, error)
	CSV(report *domain.ComplianceReport) ([]byte, error)
}
