package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StringField is an optional extracted string with its confidence.
// Found=false means the extractor could not locate the field; that is an
// extraction gap, not an error.
type StringField struct {
	Value      string  `json:"value,omitempty"`
	Confidence float64 `json:"confidence"`
	Found      bool    `json:"found"`
}

type DateField struct {
	Value      time.Time `json:"value,omitempty"`
	Confidence float64   `json:"confidence"`
	Found      bool      `json:"found"`
}

type AmountField struct {
	Value      decimal.Decimal `json:"value,omitempty"`
	Confidence float64         `json:"confidence"`
	Found      bool            `json:"found"`
}

type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// InvoiceRecord is the structured result of field extraction. Every field is
// optional: extraction degrades to missing fields instead of failing.
type InvoiceRecord struct {
	DocumentID  string      `json:"document_id"`
	Supplier    StringField `json:"supplier"`
	VATNumber   StringField `json:"vat_number"`
	InvoiceDate DateField   `json:"invoice_date"`
	Total       AmountField `json:"total"`
	Currency    StringField `json:"currency"`
	LineItems   []LineItem  `json:"line_items,omitempty"`
}

// AverageConfidence is the mean confidence across fields that were found.
// It returns 0 when nothing was extracted.
func (r InvoiceRecord) AverageConfidence() float64 {
	var sum float64
	var n int
	for _, c := range []struct {
		found      bool
		confidence float64
	}{
		{r.Supplier.Found, r.Supplier.Confidence},
		{r.VATNumber.Found, r.VATNumber.Confidence},
		{r.InvoiceDate.Found, r.InvoiceDate.Confidence},
		{r.Total.Found, r.Total.Confidence},
		{r.Currency.Found, r.Currency.Confidence},
	} {
		if c.found {
			sum += c.confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// LineItemsTotal sums the extracted line totals.
func (r InvoiceRecord) LineItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range r.LineItems {
		sum = sum.Add(item.LineTotal)
	}
	return sum
}
