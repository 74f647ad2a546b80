package ollama

import "fmt"

var fieldQuestions = map[string]string{
	"supplier":     "the supplier or vendor company name issuing the invoice",
	"vat_number":   "the supplier VAT registration number, exactly as printed",
	"invoice_date": "the invoice issue date, exactly as printed",
	"total":        "the invoice grand total amount, exactly as printed",
	"currency":     "the three-letter ISO currency code of the invoice total",
}

func buildFieldPrompt(text, field string) string {
	const maxSnippet = 4000
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	question, ok := fieldQuestions[field]
	if !ok {
		question = "the value of the field " + field
	}

	return fmt.Sprintf(`You are an invoice data extractor.
Find %s in the invoice text below.
Return strict JSON object with keys:
value (string, the value exactly as it appears in the text), found (boolean).
If the field is absent set found to false and value to an empty string.
No markdown, no extra keys.

Invoice:
%s`, question, snippet)
}
