package ruleset

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
)

// Baseline rule identifiers, referenced from ruleset configuration files.
const (
	RuleVATNumberFormat = "vat_number_format"
	RuleDateNotFuture   = "invoice_date_not_future"
	RuleTotalPositive   = "total_positive"
	RuleTotalsMatch     = "totals_match"
	RuleSupplierPresent = "supplier_present"
)

// vatPatterns holds per-country VAT number formats. The genericVATPattern
// covers jurisdictions not listed here.
var vatPatterns = map[string]*regexp.Regexp{
	"GB": regexp.MustCompile(`^GB\d{9}(\d{3})?$`),
	"DE": regexp.MustCompile(`^DE\d{9}$`),
	"FR": regexp.MustCompile(`^FR[0-9A-Z]{2}\d{9}$`),
	"NL": regexp.MustCompile(`^NL\d{9}B\d{2}$`),
	"IE": regexp.MustCompile(`^IE\d{7}[A-W][A-IW]?$`),
	"ES": regexp.MustCompile(`^ES[0-9A-Z]\d{7}[0-9A-Z]$`),
	"IT": regexp.MustCompile(`^IT\d{11}$`),
	// Saudi VAT registration numbers are 15 digits framed by 3s.
	"SA": regexp.MustCompile(`^3\d{13}3$`),
}

var genericVATPattern = regexp.MustCompile(`^[A-Z]{2}[0-9A-Z]{8,12}$`)

type ruleBuilder func(cfg Config, now func() time.Time) domain.Predicate

var baselineBuilders = map[string]ruleBuilder{
	RuleVATNumberFormat: buildVATNumberFormat,
	RuleDateNotFuture:   buildDateNotFuture,
	RuleTotalPositive:   buildTotalPositive,
	RuleTotalsMatch:     buildTotalsMatch,
	RuleSupplierPresent: buildSupplierPresent,
}

var baselineDescriptions = map[string]string{
	RuleVATNumberFormat: "VAT number is present and matches the country format",
	RuleDateNotFuture:   "invoice date is present and not in the future",
	RuleTotalPositive:   "total amount is present and positive",
	RuleTotalsMatch:     "line item totals add up to the declared total",
	RuleSupplierPresent: "supplier name is present",
}

func buildVATNumberFormat(cfg Config, _ func() time.Time) domain.Predicate {
	pattern, ok := vatPatterns[cfg.Country]
	if !ok {
		pattern = genericVATPattern
	}
	return func(record domain.InvoiceRecord) (domain.RuleStatus, string) {
		if !record.VATNumber.Found {
			return domain.RuleInapplicable, "VAT number was not extracted"
		}
		if !pattern.MatchString(record.VATNumber.Value) {
			return domain.RuleFail, fmt.Sprintf("VAT number %q does not match the %s format", record.VATNumber.Value, cfg.Country)
		}
		return domain.RulePass, ""
	}
}

func buildDateNotFuture(_ Config, now func() time.Time) domain.Predicate {
	return func(record domain.InvoiceRecord) (domain.RuleStatus, string) {
		if !record.InvoiceDate.Found {
			return domain.RuleInapplicable, "invoice date was not extracted"
		}
		if record.InvoiceDate.Value.After(now()) {
			return domain.RuleFail, fmt.Sprintf("invoice date %s is in the future", record.InvoiceDate.Value.Format("2006-01-02"))
		}
		return domain.RulePass, ""
	}
}

func buildTotalPositive(_ Config, _ func() time.Time) domain.Predicate {
	return func(record domain.InvoiceRecord) (domain.RuleStatus, string) {
		if !record.Total.Found {
			return domain.RuleInapplicable, "total amount was not extracted"
		}
		if record.Total.Value.Sign() <= 0 {
			return domain.RuleFail, fmt.Sprintf("total amount %s is not positive", record.Total.Value)
		}
		return domain.RulePass, ""
	}
}

func buildTotalsMatch(cfg Config, _ func() time.Time) domain.Predicate {
	tolerance := cfg.tolerance()
	return func(record domain.InvoiceRecord) (domain.RuleStatus, string) {
		if !record.Total.Found {
			return domain.RuleInapplicable, "total amount was not extracted"
		}
		if len(record.LineItems) == 0 {
			return domain.RuleInapplicable, "no line items were extracted"
		}
		sum := record.LineItemsTotal()
		diff := sum.Sub(record.Total.Value).Abs()
		if diff.GreaterThan(tolerance) {
			return domain.RuleFail, fmt.Sprintf("line items sum to %s but declared total is %s", sum, record.Total.Value)
		}
		return domain.RulePass, ""
	}
}

func buildSupplierPresent(_ Config, _ func() time.Time) domain.Predicate {
	return func(record domain.InvoiceRecord) (domain.RuleStatus, string) {
		if !record.Supplier.Found || record.Supplier.Value == "" {
			return domain.RuleInapplicable, "supplier name was not extracted"
		}
		return domain.RulePass, ""
	}
}

// Build assembles the ordered rule list from configuration. Disabled rules
// are skipped; order follows the configuration file.
func Build(cfg Config, now func() time.Time) ([]domain.Rule, error) {
	if now == nil {
		now = time.Now
	}
	rules := make([]domain.Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		builder, ok := baselineBuilders[rc.ID]
		if !ok {
			return nil, fmt.Errorf("unknown rule id %q", rc.ID)
		}
		if !rc.Enabled {
			continue
		}
		weight := 1.0
		if rc.Weight != nil {
			weight = *rc.Weight
		}
		description := rc.Description
		if description == "" {
			description = baselineDescriptions[rc.ID]
		}
		rules = append(rules, domain.Rule{
			ID:          rc.ID,
			Description: description,
			Weight:      weight,
			Check:       builder(cfg, now),
		})
	}
	return rules, nil
}
