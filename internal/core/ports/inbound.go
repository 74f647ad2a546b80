package ports

import (
	"context"
	"io"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
)

// Upload is one file in a submitted batch.
type Upload struct {
	Filename string
	Body     io.Reader
}

// BatchIngestor is the inbound contract for batch submission.
type BatchIngestor interface {
	SubmitBatch(ctx context.Context, batchName string, uploads []Upload) (string, []domain.RawDocument, error)
}

// BatchProcessor runs the compliance pipeline for every document in a batch
// and persists the resulting report.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, batchID string) (*domain.ComplianceReport, error)
}

// DocumentProcessor runs the compliance pipeline for a single document.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, doc domain.RawDocument) (domain.Verdict, error)
}

// DocumentReader is the inbound read model for document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.RawDocument, error)
}

// ReportReader reads archived reports.
type ReportReader interface {
	GetByBatch(ctx context.Context, batchID string) (*domain.ComplianceReport, error)
	ListBatches(ctx context.Context) ([]domain.BatchRef, error)
}
