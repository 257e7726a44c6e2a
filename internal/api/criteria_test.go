package api

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/incidash/internal/models"
)

func TestParseCriteria(t *testing.T) {
	tests := []struct {
		query string
		want  models.FilterCriteria
	}{
		{"", models.FilterCriteria{Priority: "all", Status: "all", Assignee: "all"}},
		{"priority=p2&status=escalated", models.FilterCriteria{Priority: "P2", Status: "Escalated", Assignee: "all"}},
		{"priority=ALL&window=30d", models.FilterCriteria{Priority: "all", Status: "all", Assignee: "all", TimeWindow: models.Window30d}},
		{"assignee=Bob+Smith&search=++net++", models.FilterCriteria{Priority: "all", Status: "all", Assignee: "Bob Smith", SearchTerm: "  net  "}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := ParseCriteria(q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"1", 1, false},
		{"30", 30, false},
		{"31", 0, true},
		{"0", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDays(url.Values{"days": {tt.value}}, 30)
		if tt.wantErr {
			assert.Error(t, err, "parseDays(%q)", tt.value)
			continue
		}
		assert.NoError(t, err, "parseDays(%q)", tt.value)
		assert.Equal(t, tt.want, got, "parseDays(%q)", tt.value)
	}
}
