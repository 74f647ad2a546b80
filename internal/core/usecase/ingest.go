package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/ports"
)

// SubmitBatchUseCase stores uploaded invoice documents, records their batch
// membership and submission order, and publishes one event for the worker.
type SubmitBatchUseCase struct {
	repo     ports.InvoiceRepository
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
	maxFiles int
}

func NewSubmitBatchUseCase(
	repo ports.InvoiceRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	maxFiles int,
) *SubmitBatchUseCase {
	if maxFiles <= 0 {
		maxFiles = 8
	}
	return &SubmitBatchUseCase{
		repo:     repo,
		storage:  storage,
		queue:    queue,
		maxFiles: maxFiles,
	}
}

var _ ports.BatchIngestor = (*SubmitBatchUseCase)(nil)

func (uc *SubmitBatchUseCase) SubmitBatch(ctx context.Context, batchName string, uploads []ports.Upload) (string, []domain.RawDocument, error) {
	if len(uploads) == 0 {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "submit batch", fmt.Errorf("no files in batch"))
	}
	if len(uploads) > uc.maxFiles {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "submit batch",
			fmt.Errorf("batch has %d files, limit is %d", len(uploads), uc.maxFiles))
	}

	batchID := sanitizeBatchName(batchName)
	now := time.Now().UTC()
	if batchID == "" {
		batchID = now.Format("20060102_150405")
	}

	docs := make([]domain.RawDocument, 0, len(uploads))
	for seq, upload := range uploads {
		id := uuid.NewString()
		storageKey := fmt.Sprintf("%s/%s_%s", batchID, id, sanitizeFilename(upload.Filename))

		if err := uc.storage.Save(ctx, storageKey, upload.Body); err != nil {
			return "", nil, fmt.Errorf("save document to object storage: %w", err)
		}

		doc := domain.RawDocument{
			ID:          id,
			BatchID:     batchID,
			Seq:         seq,
			Filename:    upload.Filename,
			Format:      detectFormat(upload.Filename),
			StoragePath: storageKey,
			Status:      domain.StatusUploaded,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := uc.repo.Create(ctx, &doc); err != nil {
			return "", nil, fmt.Errorf("create document metadata: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := uc.queue.PublishBatchSubmitted(ctx, batchID); err != nil {
		return "", nil, fmt.Errorf("publish batch event: %w", err)
	}
	return batchID, docs, nil
}

func detectFormat(filename string) domain.DocumentFormat {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return domain.FormatPDF
	}
	return domain.FormatText
}

func sanitizeBatchName(name string) string {
	return sanitizeToken(strings.TrimSpace(name))
}

func sanitizeFilename(name string) string {
	base := sanitizeToken(filepath.Base(name))
	if base == "" {
		return "document.bin"
	}
	return base
}

func sanitizeToken(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
