package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/good-yellow-bee/incidash/internal/analytics"
	"github.com/good-yellow-bee/incidash/internal/dashboard"
	"github.com/good-yellow-bee/incidash/internal/models"
)

// Theme is the terminal palette. Colors are ANSI 256 codes.
type Theme struct {
	Header   lipgloss.Color
	Faint    lipgloss.Color
	Healthy  lipgloss.Color
	AtRisk   lipgloss.Color
	Priority map[models.Priority]lipgloss.Color
	Status   map[models.Status]lipgloss.Color
}

// DefaultTheme targets dark 256-color terminals.
var DefaultTheme = Theme{
	Header:  lipgloss.Color("255"),
	Faint:   lipgloss.Color("245"),
	Healthy: lipgloss.Color("114"), // green
	AtRisk:  lipgloss.Color("196"), // red
	Priority: map[models.Priority]lipgloss.Color{
		models.PriorityP1: lipgloss.Color("196"),
		models.PriorityP2: lipgloss.Color("208"),
		models.PriorityP3: lipgloss.Color("75"),
		models.PriorityP4: lipgloss.Color("245"),
	},
	Status: map[models.Status]lipgloss.Color{
		models.StatusOpen:       lipgloss.Color("114"),
		models.StatusInProgress: lipgloss.Color("220"),
		models.StatusResolved:   lipgloss.Color("245"),
		models.StatusEscalated:  lipgloss.Color("196"),
	},
}

const (
	titleWidth = 40
	trendBar   = "█"
)

// table renders aligned text blocks. With styled false it emits no escape
// sequences.
type table struct {
	styled bool
	theme  Theme
}

func newTable(styled bool) table {
	return table{styled: styled, theme: DefaultTheme}
}

func (t table) style(c lipgloss.Color) *lipgloss.Style {
	if !t.styled || c == "" {
		return nil
	}
	s := lipgloss.NewStyle().Foreground(c)
	return &s
}

func (t table) paint(text string, c lipgloss.Color, bold bool) string {
	s := t.style(c)
	if s == nil {
		return text
	}
	return s.Bold(bold).Render(text)
}

func (t table) title(text string) string {
	return t.paint(text, t.theme.Header, true)
}

func (t table) alert(text string) string {
	return t.paint(text, t.theme.AtRisk, true)
}

func (t table) summary(s models.Summary) string {
	cells := []string{
		fmt.Sprintf("Total %d", s.Total),
		fmt.Sprintf("Open %d", s.Open),
		fmt.Sprintf("In Progress %d", s.InProgress),
		fmt.Sprintf("Resolved %d", s.Resolved),
		fmt.Sprintf("Escalated %d", s.Escalated),
		t.paint(fmt.Sprintf("SLA Breached %d", s.SLABreached), t.breachColor(s), false),
	}
	return strings.Join(cells, "  |  ") + "\n"
}

func (t table) breachColor(s models.Summary) lipgloss.Color {
	if s.SLABreached > 0 {
		return t.theme.AtRisk
	}
	return t.theme.Healthy
}

func (t table) sla(rows []dashboard.SLAView) string {
	headers := []string{"PRIORITY", "TARGET", "AVG", "BREACHED", "RESOLVED", "COMPLIANCE"}
	cells := make([][]string, len(rows))
	colors := make([][]lipgloss.Color, len(rows))
	for i, m := range rows {
		cells[i] = []string{
			m.Priority.Label() + " (" + string(m.Priority) + ")",
			strconv.FormatFloat(m.TargetHours, 'f', 0, 64) + "h",
			strconv.FormatFloat(m.AverageResolutionHours, 'f', 1, 64) + "h",
			strconv.Itoa(m.BreachedCount),
			strconv.Itoa(m.TotalResolvedCount),
			strconv.FormatFloat(m.CompliancePercent, 'f', 1, 64) + "%",
		}
		tone := t.theme.AtRisk
		if m.Tone == analytics.ToneHealthy {
			tone = t.theme.Healthy
		}
		colors[i] = []lipgloss.Color{t.theme.Priority[m.Priority], "", "", "", "", tone}
	}
	return t.grid(headers, cells, colors)
}

func (t table) trend(points []models.TrendPoint) string {
	headers := []string{"DATE", "DAY", "ESCALATIONS", "TOTAL", ""}
	cells := make([][]string, len(points))
	colors := make([][]lipgloss.Color, len(points))
	for i, p := range points {
		cells[i] = []string{
			p.Date,
			p.Label,
			strconv.Itoa(p.Escalations),
			strconv.Itoa(p.Total),
			strings.Repeat(trendBar, p.Escalations),
		}
		colors[i] = []lipgloss.Color{t.theme.Faint, "", "", "", t.theme.AtRisk}
	}
	return t.grid(headers, cells, colors)
}

func (t table) tickets(rows []models.TicketRow, now time.Time) string {
	headers := []string{"ID", "TITLE", "PRIORITY", "STATUS", "ASSIGNEE", "AGE", "SLA"}
	cells := make([][]string, len(rows))
	colors := make([][]lipgloss.Color, len(rows))
	for i, r := range rows {
		sla, slaColor := "ok", t.theme.Healthy
		if r.SLABreached {
			sla, slaColor = "BREACHED", t.theme.AtRisk
		}
		cells[i] = []string{
			r.ID,
			truncate(r.Title, titleWidth),
			string(r.Priority),
			string(r.Status),
			r.Assignee,
			strconv.FormatFloat(r.AgeHours(now), 'f', 1, 64) + "h",
			sla,
		}
		colors[i] = []lipgloss.Color{
			t.theme.Faint, "", t.theme.Priority[r.Priority], t.theme.Status[r.Status], "", "", slaColor,
		}
	}
	return t.grid(headers, cells, colors)
}

// grid pads every column to its widest cell. Widths are measured before
// styling so escape sequences never affect alignment.
func (t table) grid(headers []string, rows [][]string, colors [][]lipgloss.Color) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	line := func(cells []string, paint func(i int, padded string) string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			padded := cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			parts[i] = paint(i, padded)
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		b.WriteString("\n")
	}

	line(headers, func(_ int, padded string) string {
		return t.paint(padded, t.theme.Header, true)
	})
	for r, row := range rows {
		line(row, func(i int, padded string) string {
			return t.paint(padded, colors[r][i], false)
		})
	}
	return b.String()
}

func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) > n-1 {
		runes = runes[:n-1]
	}
	return string(runes) + "…"
}
