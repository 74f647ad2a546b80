package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/ports"
	"github.com/kirillkom/invoice-compliance/internal/core/reporting"
)

// ProcessBatchUseCase fans a batch out over a bounded worker pool. Invoices
// are independent, so workers run them in any order; the aggregation step
// sorts completed verdicts back into submission order before the report is
// built. Cancellation stops feeding the pool and returns a partial report
// from whatever finished.
type ProcessBatchUseCase struct {
	repo      ports.InvoiceRepository
	reports   ports.ReportRepository
	processor ports.DocumentProcessor
	workers   int
	metrics   ports.PipelineMetrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewProcessBatchUseCase(
	repo ports.InvoiceRepository,
	reports ports.ReportRepository,
	processor ports.DocumentProcessor,
	workers int,
	metrics ports.PipelineMetrics,
	logger *slog.Logger,
) *ProcessBatchUseCase {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessBatchUseCase{
		repo:      repo,
		reports:   reports,
		processor: processor,
		workers:   workers,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

var _ ports.BatchProcessor = (*ProcessBatchUseCase)(nil)

type batchResult struct {
	doc     domain.RawDocument
	verdict domain.Verdict
	err     error
}

func (uc *ProcessBatchUseCase) ProcessBatch(ctx context.Context, batchID string) (*domain.ComplianceReport, error) {
	docs, err := uc.repo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "process batch", fmt.Errorf("batch %s has no documents", batchID))
	}

	results := uc.runPool(ctx, docs)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].doc.Seq < results[j].doc.Seq
	})

	verdicts := make([]domain.Verdict, 0, len(results))
	var unprocessed []domain.UnprocessedDocument
	for _, result := range results {
		if result.err == nil {
			verdicts = append(verdicts, result.verdict)
			continue
		}
		if !domain.IsKind(result.err, domain.ErrUnprocessable) {
			uc.logger.Error("invoice processing failed", "document_id", result.doc.ID, "error", result.err)
		}
		unprocessed = append(unprocessed, domain.UnprocessedDocument{
			DocumentID: result.doc.ID,
			Filename:   result.doc.Filename,
			Reason:     result.err.Error(),
		})
	}

	report := reporting.Aggregate(batchID, verdicts, unprocessed, uc.now().UTC())

	if err := uc.reports.SaveReport(ctx, report); err != nil {
		if ctx.Err() != nil {
			uc.logger.Warn("partial report not persisted", "batch_id", batchID, "error", err)
			return report, nil
		}
		return nil, fmt.Errorf("save report: %w", err)
	}
	return report, nil
}

func (uc *ProcessBatchUseCase) runPool(ctx context.Context, docs []domain.RawDocument) []batchResult {
	jobs := make(chan domain.RawDocument)
	out := make(chan batchResult, len(docs))

	var wg sync.WaitGroup
	for range uc.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				out <- uc.processOne(ctx, doc)
			}
		}()
	}

	// Cancellation stops submitting further invoices; in-flight ones finish.
feed:
	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- doc:
		}
	}
	close(jobs)
	wg.Wait()
	close(out)

	results := make([]batchResult, 0, len(docs))
	for result := range out {
		results = append(results, result)
	}
	return results
}

func (uc *ProcessBatchUseCase) processOne(ctx context.Context, doc domain.RawDocument) batchResult {
	start := uc.now()
	if uc.metrics != nil {
		uc.metrics.StartInvoice()
		uc.metrics.ObserveQueueLag(start.Sub(doc.CreatedAt))
	}

	verdict, err := uc.processor.ProcessDocument(ctx, doc)

	if uc.metrics != nil {
		status := "checked"
		switch {
		case domain.IsKind(err, domain.ErrUnprocessable):
			status = "unprocessed"
		case err != nil:
			status = "error"
		}
		uc.metrics.FinishInvoice(status, uc.now().Sub(start))
	}
	return batchResult{doc: doc, verdict: verdict, err: err}
}
