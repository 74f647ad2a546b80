package extraction

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate coerces a candidate string into a date, trying a fixed list of
// layouts. Day-first layouts win over month-first for the ambiguous cases.
func ParseDate(raw string) (time.Time, bool) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var currencySymbols = map[rune]string{
	'€': "EUR",
	'£': "GBP",
	'$': "USD",
}

var currencyCodes = map[string]struct{}{
	"EUR": {}, "GBP": {}, "USD": {}, "SAR": {}, "AED": {},
	"CHF": {}, "SEK": {}, "NOK": {}, "DKK": {}, "PLN": {},
}

// ParseAmount coerces a candidate string into a decimal amount. Currency
// symbols and ISO codes are stripped; thousands and decimal separators are
// unified (the rightmost of '.'/',' is treated as the decimal separator).
func ParseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if _, ok := currencySymbols[r]; ok {
			return -1
		}
		if r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	for code := range currencyCodes {
		cleaned = strings.ReplaceAll(cleaned, code, "")
	}
	cleaned = strings.Trim(cleaned, ":")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}

	cleaned = unifySeparators(cleaned)
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}

func unifySeparators(s string) string {
	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
			// any commas left were thousands separators
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		decimals := len(s) - lastComma - 1
		if strings.Count(s, ",") == 1 && decimals > 0 && decimals <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		if len(s)-lastDot-1 == 3 {
			// dotted thousands, no decimal part
			s = strings.ReplaceAll(s, ".", "")
		} else {
			s = strings.ReplaceAll(s[:lastDot], ".", "") + s[lastDot:]
		}
	}
	return s
}

// DetectCurrency maps a symbol or ISO code found in the candidate to an ISO
// currency code.
func DetectCurrency(raw string) (string, bool) {
	for _, r := range raw {
		if code, ok := currencySymbols[r]; ok {
			return code, true
		}
	}
	upper := strings.ToUpper(strings.TrimSpace(raw))
	for _, token := range strings.Fields(upper) {
		if _, ok := currencyCodes[token]; ok {
			return token, true
		}
	}
	return "", false
}
