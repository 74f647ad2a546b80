package plaintext

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/ports"
)

const maxTextBytes = 10 << 20

// Extractor reads plain-text invoice documents from object storage.
type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.RawDocument) (string, error) {
	const op = "plaintext.Extract"

	rc, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnprocessable, op, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxTextBytes))
	if err != nil {
		return "", domain.WrapError(domain.ErrUnprocessable, op, err)
	}
	if len(data) == 0 {
		return "", domain.WrapError(domain.ErrUnprocessable, op, fmt.Errorf("document %s is empty", doc.ID))
	}
	if !utf8.Valid(data) {
		return "", domain.WrapError(domain.ErrUnprocessable, op, fmt.Errorf("document %s is not valid utf-8 text", doc.ID))
	}
	return string(data), nil
}
