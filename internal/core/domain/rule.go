package domain

type RuleStatus string

const (
	RulePass         RuleStatus = "pass"
	RuleFail         RuleStatus = "fail"
	RuleInapplicable RuleStatus = "inapplicable"
)

// Predicate is a pure compliance check over an extracted record. A predicate
// that needs a missing field returns RuleInapplicable, never RuleFail.
type Predicate func(record InvoiceRecord) (RuleStatus, string)

// Rule is configuration data: the engine never hardcodes checks, it walks a
// registered ordered set.
type Rule struct {
	ID          string
	Description string
	Weight      float64
	Check       Predicate
}

// RuleOutcome is one rule's result for one invoice, in registration order.
type RuleOutcome struct {
	RuleID  string     `json:"rule_id"`
	Status  RuleStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

// Assessment is the scorer's view of a set of outcomes.
type Assessment struct {
	Severity      float64  `json:"severity"`
	Compliant     bool     `json:"compliant"`
	LowConfidence bool     `json:"low_confidence"`
	Reasons       []string `json:"reasons,omitempty"`
}

// Verdict ties a record to its outcomes and score. Immutable once produced.
type Verdict struct {
	DocumentID    string        `json:"document_id"`
	Seq           int           `json:"seq"`
	Record        InvoiceRecord `json:"record"`
	Outcomes      []RuleOutcome `json:"outcomes"`
	Severity      float64       `json:"severity"`
	Compliant     bool          `json:"compliant"`
	LowConfidence bool          `json:"low_confidence"`
	Reasons       []string      `json:"reasons,omitempty"`
}
