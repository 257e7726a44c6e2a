// Package alerting evaluates threshold rules against dashboard aggregates.
// A rule is a boolean expr-lang condition over the current summary and SLA
// figures; a rule whose condition holds is firing.
package alerting

import (
	"fmt"
	"strings"
	"time"
)

// Severity represents the severity level of a rule.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity converts a string to Severity. Unknown values map to medium.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "low":
		return SeverityLow
	case "medium":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// Rule represents a single threshold rule.
type Rule struct {
	// Name is the unique identifier for the rule.
	Name string `yaml:"name" json:"name"`
	// Description provides details about what the rule detects.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Condition is an expr-lang boolean expression, e.g. "sla_breached > 0".
	Condition string `yaml:"condition" json:"condition"`
	// Severity indicates the importance of the rule.
	Severity Severity `yaml:"severity" json:"severity"`
	// For is how long the condition must hold before the rule fires.
	For string `yaml:"for,omitempty" json:"for,omitempty"`
	// Enabled controls whether the rule is active.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	matcher     *ExprMatcher
	forDuration time.Duration
}

// IsEnabled returns whether the rule is enabled.
func (r *Rule) IsEnabled() bool {
	if r.Enabled == nil {
		return true
	}
	return *r.Enabled
}

// Validate validates and compiles the rule configuration.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Condition == "" {
		return fmt.Errorf("condition is required for rule %q", r.Name)
	}

	m, err := NewExprMatcher(r.Condition)
	if err != nil {
		return fmt.Errorf("invalid condition for rule %q: %w", r.Name, err)
	}
	r.matcher = m

	if r.For != "" {
		d, err := time.ParseDuration(r.For)
		if err != nil {
			return fmt.Errorf("invalid for %q for rule %q: %w", r.For, r.Name, err)
		}
		if d < 0 {
			return fmt.Errorf("for must not be negative for rule %q", r.Name)
		}
		r.forDuration = d
	}

	if r.Severity == "" {
		r.Severity = SeverityMedium
	} else {
		r.Severity = ParseSeverity(string(r.Severity))
	}

	return nil
}

// ForDuration returns the parsed pending duration.
func (r *Rule) ForDuration() time.Duration {
	return r.forDuration
}

// RulesConfig represents the top-level YAML configuration.
type RulesConfig struct {
	Rules []*Rule `yaml:"rules"`
}

// DefaultRules returns the built-in rules. They mirror the dashboard's
// red/green colouring of the SLA breach and open counts.
func DefaultRules() []*Rule {
	rules := []*Rule{
		{
			Name:        "sla_breaches_present",
			Description: "At least one resolved ticket exceeded its SLA target",
			Condition:   "sla_breached > 0",
			Severity:    SeverityHigh,
		},
		{
			Name:        "open_backlog",
			Description: "More than 20 tickets are open",
			Condition:   "open > 20",
			Severity:    SeverityMedium,
		},
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			panic(fmt.Sprintf("alerting: invalid default rule: %v", err))
		}
	}
	return rules
}
