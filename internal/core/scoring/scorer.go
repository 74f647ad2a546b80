package scoring

import (
	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/ports"
)

// Scorer folds rule outcomes into an explainable assessment. Severity is the
// sum of failed rules' weights; compliant means severity is exactly zero.
// Reasons mirror the failed rules' descriptions in rule order so an auditor
// can see why an invoice was flagged.
type Scorer struct {
	rules     map[string]domain.Rule
	threshold float64
}

// NewScorer takes the same ordered rule set the engine runs, for weight and
// description lookup, and the low-confidence threshold.
func NewScorer(rules []domain.Rule, lowConfidenceThreshold float64) *Scorer {
	index := make(map[string]domain.Rule, len(rules))
	for _, rule := range rules {
		index[rule.ID] = rule
	}
	if lowConfidenceThreshold <= 0 {
		lowConfidenceThreshold = 0.5
	}
	return &Scorer{rules: index, threshold: lowConfidenceThreshold}
}

var _ ports.VerdictScorer = (*Scorer)(nil)

func (s *Scorer) Score(record domain.InvoiceRecord, outcomes []domain.RuleOutcome) domain.Assessment {
	var severity float64
	var reasons []string

	for _, outcome := range outcomes {
		if outcome.Status != domain.RuleFail {
			continue
		}
		rule, ok := s.rules[outcome.RuleID]
		if !ok {
			rule = domain.Rule{Description: outcome.RuleID, Weight: 1.0}
		}
		severity += rule.Weight
		reasons = append(reasons, rule.Description)
	}

	compliant := severity == 0
	// "compliance unconfirmed": nothing failed, but the extraction was too
	// weak to treat the result as a confirmed pass.
	lowConfidence := compliant && record.AverageConfidence() < s.threshold

	return domain.Assessment{
		Severity:      severity,
		Compliant:     compliant,
		LowConfidence: lowConfidence,
		Reasons:       reasons,
	}
}
