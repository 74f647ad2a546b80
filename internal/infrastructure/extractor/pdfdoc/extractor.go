package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/ports"
)

const maxPDFBytes = 75 << 20

// Extractor pulls the text layer out of PDF invoices stored in object
// storage. Scanned PDFs without a text layer come back empty and are
// reported as unprocessable.
type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.RawDocument) (string, error) {
	const op = "pdfdoc.Extract"

	rc, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnprocessable, op, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPDFBytes))
	if err != nil {
		return "", domain.WrapError(domain.ErrUnprocessable, op, err)
	}

	text, err := extractText(data)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnprocessable, op, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(domain.ErrUnprocessable, op, fmt.Errorf("document %s has no extractable text layer", doc.ID))
	}
	return text, nil
}

func extractText(data []byte) (text string, err error) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse fault: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return sb.String(), nil
}
