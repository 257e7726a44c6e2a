package alerting

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/good-yellow-bee/incidash/internal/analytics"
	"github.com/good-yellow-bee/incidash/internal/models"
)

// ExprMatcher compiles and evaluates expr-lang expressions against
// dashboard aggregates.
type ExprMatcher struct {
	expression string
	program    *vm.Program
}

// NewExprMatcher creates a new ExprMatcher for the given expression.
func NewExprMatcher(expression string) (*ExprMatcher, error) {
	m := &ExprMatcher{expression: expression}
	if err := m.compile(); err != nil {
		return nil, err
	}
	return m, nil
}

// compile compiles the expression with the expected environment.
func (m *ExprMatcher) compile() error {
	program, err := expr.Compile(m.expression,
		expr.Env(buildSampleEnv()),
		expr.AsBool(),
	)
	if err != nil {
		return fmt.Errorf("compile expression: %w", err)
	}

	m.program = program
	return nil
}

// Match evaluates the expression against env.
func (m *ExprMatcher) Match(env Env) (bool, error) {
	result, err := expr.Run(m.program, env.asMap())
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}

	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return bool: got %T", result)
	}

	return matched, nil
}

// Expression returns the original expression string.
func (m *ExprMatcher) Expression() string {
	return m.expression
}

// Env is the evaluation environment for rule conditions.
type Env struct {
	Summary    models.Summary
	Compliance map[models.Priority]float64
}

// NewEnv builds an environment from a summary and per-priority SLA metrics.
// Priorities missing from sla report full compliance.
func NewEnv(summary models.Summary, sla []models.SLAMetric) Env {
	env := Env{
		Summary:    summary,
		Compliance: make(map[models.Priority]float64, len(models.Priorities)),
	}
	for _, p := range models.Priorities {
		env.Compliance[p] = 1
	}
	for _, m := range sla {
		env.Compliance[m.Priority] = m.ComplianceFraction
	}
	return env
}

func (e Env) asMap() map[string]any {
	s := e.Summary
	env := map[string]any{
		"total":        s.Total,
		"open":         s.Open,
		"in_progress":  s.InProgress,
		"resolved":     s.Resolved,
		"escalated":    s.Escalated,
		"sla_breached": s.SLABreached,
		"breach_ratio": analytics.BreachRatio(s),
	}
	for _, p := range models.Priorities {
		v, ok := e.Compliance[p]
		if !ok {
			v = 1
		}
		env[complianceVar(p)] = v
	}
	return env
}

// buildSampleEnv creates a sample environment for expression compilation.
func buildSampleEnv() map[string]any {
	return NewEnv(models.Summary{}, nil).asMap()
}

func complianceVar(p models.Priority) string {
	return "compliance_" + strings.ToLower(string(p))
}

// Variables lists the names available to rule conditions.
func Variables() []string {
	names := []string{"total", "open", "in_progress", "resolved", "escalated", "sla_breached", "breach_ratio"}
	for _, p := range models.Priorities {
		names = append(names, complianceVar(p))
	}
	return names
}
