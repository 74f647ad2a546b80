package extraction

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/ports"
)

// Confidence assigned per field depending on which passes located it and
// whether they agree.
const (
	confAgreed       = 0.9
	confAnchorOnly   = 0.6
	confSemanticOnly = 0.4
)

type Config struct {
	// SemanticTimeout bounds one collaborator call, wait for a rate token
	// included. Zero disables the semantic pass entirely.
	SemanticTimeout time.Duration
	// SemanticRate caps collaborator calls per second. Zero means unlimited.
	SemanticRate float64
}

// FieldExtractor derives a structured invoice record from document text. The
// anchor pass is pure; the semantic pass delegates to the external language
// model and degrades to anchor-only on timeout or error. Extract never fails.
type FieldExtractor struct {
	semantic ports.SemanticExtractor
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *slog.Logger
}

func New(semantic ports.SemanticExtractor, cfg Config, logger *slog.Logger) *FieldExtractor {
	var limiter *rate.Limiter
	if cfg.SemanticRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.SemanticRate), 1)
	}
	if cfg.SemanticTimeout <= 0 {
		semantic = nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldExtractor{
		semantic: semantic,
		limiter:  limiter,
		timeout:  cfg.SemanticTimeout,
		logger:   logger,
	}
}

var _ ports.RecordExtractor = (*FieldExtractor)(nil)

func (e *FieldExtractor) Extract(ctx context.Context, documentID, text string) domain.InvoiceRecord {
	normalized := Normalize(text)
	anchors := locateAnchors(normalized)

	record := domain.InvoiceRecord{
		DocumentID: documentID,
		LineItems:  anchors.lineItems,
	}

	record.Supplier = e.stringField(ctx, normalized, FieldSupplier, anchors.supplier, strings.TrimSpace)
	record.VATNumber = e.stringField(ctx, normalized, FieldVATNumber, anchors.vatNumber, CanonicalVAT)
	record.InvoiceDate = e.dateField(ctx, normalized, anchors.invoiceDate)
	record.Total = e.amountField(ctx, normalized, anchors.total)
	record.Currency = e.currencyField(ctx, normalized, anchors.currency)
	return record
}

func (e *FieldExtractor) stringField(ctx context.Context, text, field, anchor string, canon func(string) string) domain.StringField {
	anchorValue := canon(anchor)
	semanticValue := ""
	if candidate, ok := e.semanticCandidate(ctx, text, field); ok {
		semanticValue = canon(candidate)
	}

	switch {
	case anchorValue != "" && strings.EqualFold(anchorValue, semanticValue):
		return domain.StringField{Value: anchorValue, Confidence: confAgreed, Found: true}
	case anchorValue != "":
		return domain.StringField{Value: anchorValue, Confidence: confAnchorOnly, Found: true}
	case semanticValue != "":
		return domain.StringField{Value: semanticValue, Confidence: confSemanticOnly, Found: true}
	default:
		return domain.StringField{}
	}
}

func (e *FieldExtractor) dateField(ctx context.Context, text, anchor string) domain.DateField {
	anchorDate, anchorOK := ParseDate(anchor)
	var semanticDate time.Time
	semanticOK := false
	if candidate, ok := e.semanticCandidate(ctx, text, FieldInvoiceDate); ok {
		semanticDate, semanticOK = ParseDate(candidate)
	}

	switch {
	case anchorOK && semanticOK && anchorDate.Equal(semanticDate):
		return domain.DateField{Value: anchorDate, Confidence: confAgreed, Found: true}
	case anchorOK:
		return domain.DateField{Value: anchorDate, Confidence: confAnchorOnly, Found: true}
	case semanticOK:
		return domain.DateField{Value: semanticDate, Confidence: confSemanticOnly, Found: true}
	default:
		return domain.DateField{}
	}
}

func (e *FieldExtractor) amountField(ctx context.Context, text, anchor string) domain.AmountField {
	anchorAmount, anchorOK := ParseAmount(anchor)
	semanticOK := false
	semanticAmount := anchorAmount
	if candidate, ok := e.semanticCandidate(ctx, text, FieldTotal); ok {
		semanticAmount, semanticOK = ParseAmount(candidate)
	}

	switch {
	case anchorOK && semanticOK && anchorAmount.Equal(semanticAmount):
		return domain.AmountField{Value: anchorAmount, Confidence: confAgreed, Found: true}
	case anchorOK:
		return domain.AmountField{Value: anchorAmount, Confidence: confAnchorOnly, Found: true}
	case semanticOK:
		return domain.AmountField{Value: semanticAmount, Confidence: confSemanticOnly, Found: true}
	default:
		return domain.AmountField{}
	}
}

func (e *FieldExtractor) currencyField(ctx context.Context, text, anchor string) domain.StringField {
	semanticCode := ""
	if candidate, ok := e.semanticCandidate(ctx, text, FieldCurrency); ok {
		if code, found := DetectCurrency(candidate); found {
			semanticCode = code
		}
	}

	switch {
	case anchor != "" && anchor == semanticCode:
		return domain.StringField{Value: anchor, Confidence: confAgreed, Found: true}
	case anchor != "":
		return domain.StringField{Value: anchor, Confidence: confAnchorOnly, Found: true}
	case semanticCode != "":
		return domain.StringField{Value: semanticCode, Confidence: confSemanticOnly, Found: true}
	default:
		return domain.StringField{}
	}
}

// semanticCandidate asks the collaborator for one field. Every failure mode
// (rate wait, timeout, transport error) degrades to "not found" so extraction
// itself cannot fail.
func (e *FieldExtractor) semanticCandidate(ctx context.Context, text, field string) (string, bool) {
	if e.semantic == nil {
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if e.limiter != nil {
		if err := e.limiter.Wait(callCtx); err != nil {
			e.logger.Warn("semantic extraction degraded", "field", field, "error", err)
			return "", false
		}
	}

	candidate, found, err := e.semantic.ExtractField(callCtx, text, field)
	if err != nil {
		e.logger.Warn("semantic extraction degraded", "field", field, "error", err)
		return "", false
	}
	if !found || strings.TrimSpace(candidate) == "" {
		return "", false
	}
	return candidate, true
}
