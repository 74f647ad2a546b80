package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/ports"
)

// ProcessInvoiceUseCase runs one invoice through the four-stage pipeline:
// text extraction, field extraction, rule evaluation, scoring. Only the text
// stage can fail the invoice (unreadable document); from the record onward
// every stage degrades instead of failing.
type ProcessInvoiceUseCase struct {
	repo       ports.InvoiceRepository
	reports    ports.ReportRepository
	extractors map[domain.DocumentFormat]ports.TextExtractor
	fields     ports.RecordExtractor
	evaluator  ports.RuleEvaluator
	scorer     ports.VerdictScorer
}

func NewProcessInvoiceUseCase(
	repo ports.InvoiceRepository,
	reports ports.ReportRepository,
	extractors map[domain.DocumentFormat]ports.TextExtractor,
	fields ports.RecordExtractor,
	evaluator ports.RuleEvaluator,
	scorer ports.VerdictScorer,
) *ProcessInvoiceUseCase {
	return &ProcessInvoiceUseCase{
		repo:       repo,
		reports:    reports,
		extractors: extractors,
		fields:     fields,
		evaluator:  evaluator,
		scorer:     scorer,
	}
}

// ProcessDocument produces and persists a verdict for one document. An
// ErrUnprocessable return means the document was unreadable and belongs on
// the report's unprocessed list; the caller keeps the batch going.
func (uc *ProcessInvoiceUseCase) ProcessDocument(ctx context.Context, doc domain.RawDocument) (domain.Verdict, error) {
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		return domain.Verdict{}, fmt.Errorf("set status=processing: %w", err)
	}

	text, err := uc.extractText(ctx, &doc)
	if err != nil {
		wrapped := domain.WrapError(domain.ErrUnprocessable, "extract text", err)
		if failErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusUnprocessed, wrapped.Error()); failErr != nil {
			return domain.Verdict{}, fmt.Errorf("%w; mark unprocessed: %v", wrapped, failErr)
		}
		return domain.Verdict{}, wrapped
	}

	record := uc.fields.Extract(ctx, doc.ID, text)
	outcomes := uc.evaluator.Evaluate(record)
	assessment := uc.scorer.Score(record, outcomes)

	verdict := domain.Verdict{
		DocumentID:    doc.ID,
		Seq:           doc.Seq,
		Record:        record,
		Outcomes:      outcomes,
		Severity:      assessment.Severity,
		Compliant:     assessment.Compliant,
		LowConfidence: assessment.LowConfidence,
		Reasons:       assessment.Reasons,
	}

	if err := uc.reports.SaveVerdict(ctx, doc.BatchID, verdict); err != nil {
		return domain.Verdict{}, fmt.Errorf("save verdict: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusChecked, ""); err != nil {
		return domain.Verdict{}, fmt.Errorf("set status=checked: %w", err)
	}
	return verdict, nil
}

func (uc *ProcessInvoiceUseCase) extractText(ctx context.Context, doc *domain.RawDocument) (string, error) {
	extractor, ok := uc.extractors[doc.Format]
	if !ok {
		return "", fmt.Errorf("no text extractor for format %q", doc.Format)
	}
	text, err := extractor.Extract(ctx, doc)
	if err != nil {
		return "", err
	}
	return text, nil
}
