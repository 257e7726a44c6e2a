package alerting

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/incidash/internal/metrics"
)

// RuleState is the outcome of evaluating one rule.
type RuleState struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Severity    Severity   `json:"severity"`
	Condition   string     `json:"condition"`
	Firing      bool       `json:"firing"`
	Pending     bool       `json:"pending,omitempty"`
	Since       *time.Time `json:"since,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Engine evaluates rules and remembers since when each condition has held.
type Engine struct {
	mu     sync.Mutex
	rules  []*Rule
	active map[string]time.Time
	logger *zap.Logger
}

// NewEngine creates an engine. Rules must already be validated.
func NewEngine(rules []*Rule, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		rules:  rules,
		active: make(map[string]time.Time),
		logger: logger,
	}
}

// Evaluate runs every enabled rule against env at now. A rule whose
// condition holds is pending until it has held for its For duration, then
// firing. Evaluation errors are reported in the state and count as not
// holding.
func (e *Engine) Evaluate(env Env, now time.Time) []RuleState {
	e.mu.Lock()
	defer e.mu.Unlock()

	states := make([]RuleState, 0, len(e.rules))
	for _, rule := range e.rules {
		if !rule.IsEnabled() {
			continue
		}

		state := RuleState{
			Name:        rule.Name,
			Description: rule.Description,
			Severity:    rule.Severity,
			Condition:   rule.Condition,
		}

		holds, err := rule.matcher.Match(env)
		if err != nil {
			state.Error = err.Error()
			metrics.RuleEvalErrors.WithLabelValues(rule.Name).Inc()
			e.logger.Warn("rule evaluation failed", zap.String("rule", rule.Name), zap.Error(err))
		}

		if holds {
			since, ok := e.active[rule.Name]
			if !ok {
				since = now
				e.active[rule.Name] = since
			}
			state.Since = &since
			if now.Sub(since) >= rule.forDuration {
				state.Firing = true
			} else {
				state.Pending = true
			}
		} else {
			if _, ok := e.active[rule.Name]; ok {
				e.logger.Info("rule resolved", zap.String("rule", rule.Name))
			}
			delete(e.active, rule.Name)
		}

		firing := 0.0
		if state.Firing {
			firing = 1
		}
		metrics.RuleFiring.WithLabelValues(rule.Name, string(rule.Severity)).Set(firing)

		states = append(states, state)
	}

	return states
}

// Firing returns only the firing states from states.
func Firing(states []RuleState) []RuleState {
	var out []RuleState
	for _, s := range states {
		if s.Firing {
			out = append(out, s)
		}
	}
	return out
}

// Rules returns a copy of the rule list.
func (e *Engine) Rules() []*Rule {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// ReloadRules replaces the rule set. State is kept for rules whose name
// survives the reload.
func (e *Engine) ReloadRules(rules []*Rule) error {
	if err := ValidateRules(rules); err != nil {
		return fmt.Errorf("reload rules: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	keep := make(map[string]bool, len(rules))
	for _, r := range rules {
		keep[r.Name] = true
	}
	for name := range e.active {
		if !keep[name] {
			delete(e.active, name)
		}
	}
	for _, r := range e.rules {
		if !keep[r.Name] {
			metrics.RuleFiring.DeleteLabelValues(r.Name, string(r.Severity))
		}
	}

	e.rules = rules
	return nil
}
