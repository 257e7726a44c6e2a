package alerting

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/incidash/internal/models"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"low", SeverityLow},
		{"HIGH", SeverityHigh},
		{"Critical", SeverityCritical},
		{"medium", SeverityMedium},
		{"bogus", SeverityMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSeverity(tt.in), "ParseSeverity(%q)", tt.in)
	}
}

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{"valid", Rule{Name: "r", Condition: "open > 1"}, false},
		{"missing name", Rule{Condition: "open > 1"}, true},
		{"missing condition", Rule{Name: "r"}, true},
		{"bad syntax", Rule{Name: "r", Condition: "open >"}, true},
		{"unknown variable", Rule{Name: "r", Condition: "closed > 1"}, true},
		{"not boolean", Rule{Name: "r", Condition: "open + 1"}, true},
		{"bad for", Rule{Name: "r", Condition: "open > 1", For: "soon"}, true},
		{"negative for", Rule{Name: "r", Condition: "open > 1", For: "-1m"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRule_ValidateDefaultsSeverity(t *testing.T) {
	r := Rule{Name: "r", Condition: "total > 0"}
	require.NoError(t, r.Validate())
	assert.Equal(t, SeverityMedium, r.Severity)
}

func TestExprMatcher_Match(t *testing.T) {
	summary := models.Summary{Total: 30, Open: 22, InProgress: 3, Resolved: 4, Escalated: 2, SLABreached: 1}
	sla := []models.SLAMetric{{Priority: models.PriorityP1, ComplianceFraction: 0.5}}
	env := NewEnv(summary, sla)

	tests := []struct {
		expression string
		want       bool
	}{
		{"sla_breached > 0", true},
		{"open > 20", true},
		{"open > 22", false},
		{"breach_ratio == 0.25", true},
		{"compliance_p1 < 0.9", true},
		{"compliance_p2 == 1.0", true},
		{"escalated >= 2 && in_progress == 3", true},
		{"total == open + in_progress + resolved", false},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			m, err := NewExprMatcher(tt.expression)
			require.NoError(t, err)

			got, err := m.Match(env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariables(t *testing.T) {
	vars := Variables()
	require.Len(t, vars, 11)
	for _, v := range vars {
		_, err := NewExprMatcher(v + " == " + v)
		assert.NoError(t, err, "variable %q not accepted", v)
	}
}

func TestDefaultRules(t *testing.T) {
	e := NewEngine(DefaultRules(), nil)

	quiet := e.Evaluate(NewEnv(models.Summary{Open: 5}, nil), now)
	require.Len(t, quiet, 2)
	assert.Empty(t, Firing(quiet))

	loud := Firing(e.Evaluate(NewEnv(models.Summary{Open: 21, Resolved: 2, SLABreached: 1}, nil), now))
	require.Len(t, loud, 2, "both rules firing")
	assert.Equal(t, "sla_breaches_present", loud[0].Name)
	assert.Equal(t, SeverityHigh, loud[0].Severity)
	assert.Equal(t, "open_backlog", loud[1].Name)
	assert.Equal(t, SeverityMedium, loud[1].Severity)
}

func TestEngine_ForDuration(t *testing.T) {
	r := &Rule{Name: "sustained", Condition: "open > 0", For: "1m"}
	require.NoError(t, r.Validate())
	e := NewEngine([]*Rule{r}, nil)
	hot := NewEnv(models.Summary{Open: 1}, nil)

	s := e.Evaluate(hot, now)[0]
	require.False(t, s.Firing, "t0")
	require.True(t, s.Pending, "t0")

	s = e.Evaluate(hot, now.Add(59*time.Second))[0]
	require.False(t, s.Firing, "t0+59s")

	s = e.Evaluate(hot, now.Add(time.Minute))[0]
	require.True(t, s.Firing, "t0+1m")
	require.NotNil(t, s.Since)
	assert.True(t, s.Since.Equal(now), "firing since %v, want t0", s.Since)

	// Condition clears: the clock resets.
	e.Evaluate(NewEnv(models.Summary{}, nil), now.Add(2*time.Minute))
	s = e.Evaluate(hot, now.Add(3*time.Minute))[0]
	assert.False(t, s.Firing, "after reset")
	assert.True(t, s.Pending, "after reset")
}

func TestEngine_SkipsDisabledRules(t *testing.T) {
	off := false
	rules := []*Rule{
		{Name: "on", Condition: "total >= 0"},
		{Name: "off", Condition: "total >= 0", Enabled: &off},
	}
	require.NoError(t, ValidateRules(rules))

	states := NewEngine(rules, nil).Evaluate(NewEnv(models.Summary{}, nil), now)
	require.Len(t, states, 1)
	assert.Equal(t, "on", states[0].Name)
}

func TestEngine_ReloadRules(t *testing.T) {
	e := NewEngine(DefaultRules(), nil)

	require.Error(t, e.ReloadRules([]*Rule{{Name: "bad", Condition: "nope >"}}))
	require.Len(t, e.Rules(), 2, "failed reload must keep previous rules")

	require.NoError(t, e.ReloadRules([]*Rule{{Name: "any", Condition: "total > 0"}}))
	got := e.Rules()
	require.Len(t, got, 1)
	assert.Equal(t, "any", got[0].Name)
}

func TestLoadRules(t *testing.T) {
	yamlDoc := `
rules:
  - name: p1_compliance
    description: P1 compliance below 90%
    condition: compliance_p1 < 0.9
    severity: critical
    for: 5m
  - name: escalations
    condition: escalated > 3
`
	rules, err := LoadRules(strings.NewReader(yamlDoc))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, SeverityCritical, rules[0].Severity)
	assert.Equal(t, 5*time.Minute, rules[0].ForDuration())
	assert.Equal(t, SeverityMedium, rules[1].Severity)
}

func TestLoadRules_Errors(t *testing.T) {
	tests := map[string]string{
		"malformed":  "rules: [",
		"invalid":    "rules:\n  - name: x\n    condition: 'open >'\n",
		"duplicates": "rules:\n  - name: x\n    condition: open > 1\n  - name: x\n    condition: open > 2\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRulesFromBytes([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules_Empty(t *testing.T) {
	rules, err := LoadRules(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rules)
}
