package extraction

import (
	"context"
	"errors"
	"testing"
	"time"
)

const sampleInvoice = `Supplier: Acme Widgets Ltd
VAT Number: GB123456789
Invoice Date: 2024-01-05
Widget A 2 30.00 60.00
Widget B 3 20.00 60.00
Total: GBP 120.00
`

type semanticFake struct {
	answers map[string]string
	err     error
	calls   []string
}

func (f *semanticFake) ExtractField(_ context.Context, _, field string) (string, bool, error) {
	f.calls = append(f.calls, field)
	if f.err != nil {
		return "", false, f.err
	}
	candidate, ok := f.answers[field]
	return candidate, ok, nil
}

func TestExtractAnchorAndSemanticAgreement(t *testing.T) {
	semantic := &semanticFake{answers: map[string]string{
		FieldSupplier:    "Acme Widgets Ltd",
		FieldVATNumber:   "gb 123456789",
		FieldInvoiceDate: "05/01/2024",
		FieldTotal:       "120.00",
		FieldCurrency:    "GBP",
	}}
	extractor := New(semantic, Config{SemanticTimeout: time.Second}, nil)

	record := extractor.Extract(context.Background(), "doc-1", sampleInvoice)

	if record.Supplier.Value != "Acme Widgets Ltd" || record.Supplier.Confidence != confAgreed {
		t.Fatalf("supplier = %+v", record.Supplier)
	}
	if record.VATNumber.Value != "GB123456789" || record.VATNumber.Confidence != confAgreed {
		t.Fatalf("vat = %+v", record.VATNumber)
	}
	if !record.InvoiceDate.Found || record.InvoiceDate.Confidence != confAgreed {
		t.Fatalf("date = %+v", record.InvoiceDate)
	}
	if record.Total.Value.String() != "120" || record.Total.Confidence != confAgreed {
		t.Fatalf("total = %+v", record.Total)
	}
	if record.Currency.Value != "GBP" {
		t.Fatalf("currency = %+v", record.Currency)
	}
	if len(record.LineItems) != 2 {
		t.Fatalf("line items = %+v", record.LineItems)
	}
	if record.LineItems[0].Description != "Widget A" || record.LineItems[0].LineTotal.String() != "60" {
		t.Fatalf("first line item = %+v", record.LineItems[0])
	}
}

func TestExtractDegradesWhenSemanticFails(t *testing.T) {
	semantic := &semanticFake{err: errors.New("model unavailable")}
	extractor := New(semantic, Config{SemanticTimeout: 50 * time.Millisecond}, nil)

	record := extractor.Extract(context.Background(), "doc-1", sampleInvoice)

	if !record.VATNumber.Found || record.VATNumber.Confidence != confAnchorOnly {
		t.Fatalf("expected anchor-only vat, got %+v", record.VATNumber)
	}
	if !record.Total.Found || record.Total.Confidence != confAnchorOnly {
		t.Fatalf("expected anchor-only total, got %+v", record.Total)
	}
}

func TestExtractSemanticOnlyField(t *testing.T) {
	semantic := &semanticFake{answers: map[string]string{
		FieldSupplier: "Acme Widgets Ltd",
	}}
	extractor := New(semantic, Config{SemanticTimeout: time.Second}, nil)

	record := extractor.Extract(context.Background(), "doc-1", "no anchors in this text at all")

	if record.Supplier.Value != "Acme Widgets Ltd" || record.Supplier.Confidence != confSemanticOnly {
		t.Fatalf("supplier = %+v", record.Supplier)
	}
	if record.VATNumber.Found || record.Total.Found || record.InvoiceDate.Found {
		t.Fatalf("expected missing fields, got %+v", record)
	}
}

func TestExtractNeverFailsOnEmptyInput(t *testing.T) {
	extractor := New(nil, Config{}, nil)
	record := extractor.Extract(context.Background(), "doc-1", "")
	if record.Supplier.Found || record.Total.Found || len(record.LineItems) != 0 {
		t.Fatalf("expected empty record, got %+v", record)
	}
	if record.AverageConfidence() != 0 {
		t.Fatalf("expected zero confidence, got %f", record.AverageConfidence())
	}
}
