package ruleset

import (
	"fmt"
	"log/slog"

	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/ports"
)

// Engine evaluates a record against its registered rules in registration
// order. Evaluation is deterministic, and one faulty predicate never aborts
// the rest: panics are converted into inapplicable outcomes.
type Engine struct {
	rules  []domain.Rule
	logger *slog.Logger
}

func NewEngine(rules []domain.Rule, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rules: rules, logger: logger}
}

var _ ports.RuleEvaluator = (*Engine)(nil)

// Rules exposes the registered ordered set, e.g. for the scorer's weight and
// description lookup.
func (e *Engine) Rules() []domain.Rule {
	return e.rules
}

func (e *Engine) Evaluate(record domain.InvoiceRecord) []domain.RuleOutcome {
	outcomes := make([]domain.RuleOutcome, 0, len(e.rules))
	for _, rule := range e.rules {
		outcomes = append(outcomes, e.evaluateOne(rule, record))
	}
	return outcomes
}

func (e *Engine) evaluateOne(rule domain.Rule, record domain.InvoiceRecord) (outcome domain.RuleOutcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("rule predicate fault", "rule_id", rule.ID, "panic", fmt.Sprint(r))
			outcome = domain.RuleOutcome{
				RuleID:  rule.ID,
				Status:  domain.RuleInapplicable,
				Message: fmt.Sprintf("rule execution fault: %v", r),
			}
		}
	}()

	status, message := rule.Check(record)
	return domain.RuleOutcome{RuleID: rule.ID, Status: status, Message: message}
}
