package usecase

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/ports"
)

type storageFake struct {
	saved map[string][]byte
	err   error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	raw, _ := io.ReadAll(data)
	f.saved[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.saved[key]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishBatchSubmitted(_ context.Context, batchID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, batchID)
	return nil
}

func (f *queueFake) SubscribeBatchSubmitted(context.Context, func(context.Context, string) error) error {
	return nil
}

func uploads(names ...string) []ports.Upload {
	out := make([]ports.Upload, 0, len(names))
	for _, name := range names {
		out = append(out, ports.Upload{Filename: name, Body: strings.NewReader("content of " + name)})
	}
	return out
}

func TestSubmitBatchAssignsSequenceAndFormat(t *testing.T) {
	repo := &repoFake{}
	queue := &queueFake{}
	uc := NewSubmitBatchUseCase(repo, &storageFake{}, queue, 8)

	batchID, docs, err := uc.SubmitBatch(context.Background(), "Sept14 Invoices", uploads("a.pdf", "b.txt", "c.PDF"))
	if err != nil {
		t.Fatalf("SubmitBatch() error = %v", err)
	}
	if batchID != "Sept14_Invoices" {
		t.Fatalf("batch id = %q", batchID)
	}
	if len(docs) != 3 {
		t.Fatalf("docs = %d", len(docs))
	}
	for i, doc := range docs {
		if doc.Seq != i {
			t.Fatalf("doc %d seq = %d", i, doc.Seq)
		}
		if doc.Status != domain.StatusUploaded {
			t.Fatalf("doc status = %s", doc.Status)
		}
	}
	if docs[0].Format != domain.FormatPDF || docs[1].Format != domain.FormatText || docs[2].Format != domain.FormatPDF {
		t.Fatalf("formats = %s %s %s", docs[0].Format, docs[1].Format, docs[2].Format)
	}
	if len(queue.published) != 1 || queue.published[0] != batchID {
		t.Fatalf("published = %v", queue.published)
	}
}

func TestSubmitBatchGeneratesBatchIDWhenUnnamed(t *testing.T) {
	uc := NewSubmitBatchUseCase(&repoFake{}, &storageFake{}, &queueFake{}, 8)
	batchID, _, err := uc.SubmitBatch(context.Background(), "  ", uploads("a.txt"))
	if err != nil {
		t.Fatalf("SubmitBatch() error = %v", err)
	}
	if batchID == "" {
		t.Fatalf("expected generated batch id")
	}
}

func TestSubmitBatchRejectsTooManyFiles(t *testing.T) {
	uc := NewSubmitBatchUseCase(&repoFake{}, &storageFake{}, &queueFake{}, 2)
	_, _, err := uc.SubmitBatch(context.Background(), "b", uploads("a.txt", "b.txt", "c.txt"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSubmitBatchRejectsEmptyBatch(t *testing.T) {
	uc := NewSubmitBatchUseCase(&repoFake{}, &storageFake{}, &queueFake{}, 8)
	_, _, err := uc.SubmitBatch(context.Background(), "b", nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSubmitBatchStoresUnderBatchPrefix(t *testing.T) {
	storage := &storageFake{}
	uc := NewSubmitBatchUseCase(&repoFake{}, storage, &queueFake{}, 8)

	_, docs, err := uc.SubmitBatch(context.Background(), "batch-1", uploads("inv oice.pdf"))
	if err != nil {
		t.Fatalf("SubmitBatch() error = %v", err)
	}
	if !strings.HasPrefix(docs[0].StoragePath, "batch-1/") {
		t.Fatalf("storage path = %q", docs[0].StoragePath)
	}
	if strings.Contains(docs[0].StoragePath, " ") {
		t.Fatalf("storage path not sanitized: %q", docs[0].StoragePath)
	}
	if _, ok := storage.saved[docs[0].StoragePath]; !ok {
		t.Fatalf("document bytes not stored")
	}
}
