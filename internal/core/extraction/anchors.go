package extraction

import (
	"regexp"
	"strings"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
)

// Field names shared with the semantic extraction collaborator.
const (
	FieldSupplier    = "supplier"
	FieldVATNumber   = "vat_number"
	FieldInvoiceDate = "invoice_date"
	FieldTotal       = "total"
	FieldCurrency    = "currency"
)

var (
	vatAnchorRe = regexp.MustCompile(
		`(?im)\bVAT\s*(?:No\.?|Number|Reg(?:istration)?\.?|ID)?\s*[:#]?\s*([A-Z]{2}\s?[0-9A-Z]{8,13}|\d{10,15})`)
	dateAnchorRe = regexp.MustCompile(
		`(?im)\b(?:invoice\s+date|issue\s+date|date\s+of\s+issue|date)\s*:?\s*` +
			`(\d{1,4}[./-]\d{1,2}[./-]\d{1,4}|\d{1,2}\s+[A-Za-z]{3,9},?\s+\d{4}|[A-Za-z]{3,9}\s+\d{1,2},?\s+\d{4})`)
	totalAnchorRe = regexp.MustCompile(
		`(?im)\b(?:grand\s+total|total\s+(?:due|amount|payable)|amount\s+due|total)\s*:?\s*((?:[A-Z]{3}\s?)?[€£$]?\s?\d[\d.,]*)`)
	supplierAnchorRe = regexp.MustCompile(
		`(?im)^(?:supplier|seller|vendor|from)\s*:\s*(\S.*?)$`)
	lineItemRe = regexp.MustCompile(
		`(?m)^(.+?)\s+(\d+(?:[.,]\d{1,3})?)\s+([€£$]?\d[\d.,]*)\s+([€£$]?\d[\d.,]*)$`)
	totalKeywordRe = regexp.MustCompile(`(?i)\btotal\b|\bamount\s+due\b|\bsubtotal\b|\bvat\b|\btax\b`)
)

// anchorCandidates holds the raw strings located by pattern anchors, before
// type coercion.
type anchorCandidates struct {
	supplier    string
	vatNumber   string
	invoiceDate string
	total       string
	currency    string
	lineItems   []domain.LineItem
}

func locateAnchors(text string) anchorCandidates {
	var out anchorCandidates

	if m := supplierAnchorRe.FindStringSubmatch(text); m != nil {
		out.supplier = strings.TrimSpace(m[1])
	}
	if m := vatAnchorRe.FindStringSubmatch(text); m != nil {
		out.vatNumber = m[1]
	}
	if m := dateAnchorRe.FindStringSubmatch(text); m != nil {
		out.invoiceDate = m[1]
	}
	if m := totalAnchorRe.FindStringSubmatch(text); m != nil {
		out.total = m[1]
		if code, ok := DetectCurrency(m[0]); ok {
			out.currency = code
		}
	}
	if out.currency == "" {
		if code, ok := DetectCurrency(text); ok {
			out.currency = code
		}
	}
	out.lineItems = locateLineItems(text)
	return out
}

// locateLineItems picks up rows shaped "description quantity unit-price
// line-total". Summary lines (totals, tax) are skipped so the declared total
// never doubles as a line item.
func locateLineItems(text string) []domain.LineItem {
	var items []domain.LineItem
	for _, m := range lineItemRe.FindAllStringSubmatch(text, -1) {
		if totalKeywordRe.MatchString(m[1]) {
			continue
		}
		qty, ok := ParseAmount(m[2])
		if !ok {
			continue
		}
		unit, ok := ParseAmount(m[3])
		if !ok {
			continue
		}
		lineTotal, ok := ParseAmount(m[4])
		if !ok {
			continue
		}
		items = append(items, domain.LineItem{
			Description: strings.TrimSpace(m[1]),
			Quantity:    qty,
			UnitPrice:   unit,
			LineTotal:   lineTotal,
		})
	}
	return items
}

// CanonicalVAT normalizes a VAT number candidate for comparison and rule
// checks: uppercase, separators removed.
func CanonicalVAT(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, raw)
}
