package ruleset

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// RuleConfig toggles and weighs one baseline rule. Weight is a pointer so
// an explicit zero (rule runs and reports but never affects severity) is
// distinguishable from an omitted weight, which defaults to 1.
type RuleConfig struct {
	ID          string   `yaml:"id"`
	Enabled     bool     `yaml:"enabled"`
	Weight      *float64 `yaml:"weight"`
	Description string   `yaml:"description"`
}

// Config is the externally supplied ruleset: which checks run, in which
// order, for which jurisdiction. Swapping the file swaps the jurisdiction
// without touching the engine.
type Config struct {
	Country                string       `yaml:"country"`
	Tolerance              string       `yaml:"tolerance"`
	LowConfidenceThreshold float64      `yaml:"low_confidence_threshold"`
	Rules                  []RuleConfig `yaml:"rules"`
}

func DefaultConfig() Config {
	return Config{
		Country:                "GB",
		Tolerance:              "0.01",
		LowConfidenceThreshold: 0.5,
		Rules: []RuleConfig{
			{ID: RuleVATNumberFormat, Enabled: true},
			{ID: RuleDateNotFuture, Enabled: true},
			{ID: RuleTotalPositive, Enabled: true},
			{ID: RuleTotalsMatch, Enabled: true},
			{ID: RuleSupplierPresent, Enabled: true},
		},
	}
}

// LoadFile reads a ruleset YAML file. A missing path falls back to the
// default GB ruleset; a present but broken file is an error.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read ruleset file: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Rules = nil
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse ruleset yaml: %w", err)
	}
	if len(cfg.Rules) == 0 {
		cfg.Rules = DefaultConfig().Rules
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := decimal.NewFromString(c.Tolerance); err != nil {
		return fmt.Errorf("ruleset tolerance %q: %w", c.Tolerance, err)
	}
	if c.LowConfidenceThreshold < 0 || c.LowConfidenceThreshold > 1 {
		return fmt.Errorf("ruleset low_confidence_threshold %f out of range", c.LowConfidenceThreshold)
	}
	seen := make(map[string]struct{}, len(c.Rules))
	for _, rc := range c.Rules {
		if _, ok := baselineBuilders[rc.ID]; !ok {
			return fmt.Errorf("unknown rule id %q in ruleset", rc.ID)
		}
		if _, dup := seen[rc.ID]; dup {
			return fmt.Errorf("duplicate rule id %q in ruleset", rc.ID)
		}
		if rc.Weight != nil && *rc.Weight < 0 {
			return fmt.Errorf("rule %q weight %f is negative", rc.ID, *rc.Weight)
		}
		seen[rc.ID] = struct{}{}
	}
	return nil
}

func (c Config) tolerance() decimal.Decimal {
	tolerance, err := decimal.NewFromString(c.Tolerance)
	if err != nil {
		return decimal.NewFromFloat(0.01)
	}
	return tolerance
}
