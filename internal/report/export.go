// Package report renders dashboard views for files and terminals.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/good-yellow-bee/incidash/internal/dashboard"
	"github.com/good-yellow-bee/incidash/internal/models"
)

// Format defines the output format for exports.
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
)

// ParseFormat parses a string to Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, true
	case "csv":
		return FormatCSV, true
	case "table":
		return FormatTable, true
	default:
		return "", false
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// DefaultFormat is table for terminals and JSON otherwise.
func DefaultFormat(w io.Writer) Format {
	if IsTerminal(w) {
		return FormatTable
	}
	return FormatJSON
}

// Exporter writes dashboard views in one format.
type Exporter struct {
	format Format
	writer io.Writer
	styled bool
}

// NewExporter creates an exporter for the given format. Tables are styled
// when w is a terminal.
func NewExporter(format Format, w io.Writer) *Exporter {
	return &Exporter{
		format: format,
		writer: w,
		styled: IsTerminal(w),
	}
}

// SetStyled forces table styling on or off.
func (e *Exporter) SetStyled(styled bool) {
	e.styled = styled
}

// ExportView writes the whole view.
func (e *Exporter) ExportView(v *dashboard.View) error {
	switch e.format {
	case FormatCSV:
		return e.exportViewCSV(v)
	case FormatTable:
		return e.exportViewTable(v)
	default:
		return e.exportJSON(v)
	}
}

// ExportTickets writes ticket rows only.
func (e *Exporter) ExportTickets(rows []models.TicketRow, now time.Time) error {
	switch e.format {
	case FormatCSV:
		w := csv.NewWriter(e.writer)
		writeTicketsCSV(w, rows, now)
		w.Flush()
		return w.Error()
	case FormatTable:
		_, err := io.WriteString(e.writer, newTable(e.styled).tickets(rows, now))
		return err
	default:
		return e.exportJSON(rows)
	}
}

func (e *Exporter) exportJSON(v any) error {
	encoder := json.NewEncoder(e.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (e *Exporter) exportViewCSV(v *dashboard.View) error {
	w := csv.NewWriter(e.writer)
	defer w.Flush()

	// Summary
	w.Write([]string{"# Summary"})
	w.Write([]string{"window", string(v.Criteria.TimeWindow)})
	w.Write([]string{"last_updated", v.LastUpdated.Format(time.RFC3339)})
	w.Write([]string{"total", strconv.Itoa(v.Summary.Total)})
	w.Write([]string{"open", strconv.Itoa(v.Summary.Open)})
	w.Write([]string{"in_progress", strconv.Itoa(v.Summary.InProgress)})
	w.Write([]string{"resolved", strconv.Itoa(v.Summary.Resolved)})
	w.Write([]string{"escalated", strconv.Itoa(v.Summary.Escalated)})
	w.Write([]string{"sla_breached", strconv.Itoa(v.Summary.SLABreached)})
	w.Write([]string{})

	// SLA
	w.Write([]string{"# SLA"})
	w.Write([]string{"priority", "target_hours", "average_resolution_hours", "breached", "resolved", "compliance_percent"})
	for _, m := range v.SLA {
		w.Write([]string{
			string(m.Priority),
			formatFloat(m.TargetHours),
			formatFloat(m.AverageResolutionHours),
			strconv.Itoa(m.BreachedCount),
			strconv.Itoa(m.TotalResolvedCount),
			formatFloat(m.CompliancePercent),
		})
	}
	w.Write([]string{})

	// Trend
	w.Write([]string{"# Escalation Trend"})
	w.Write([]string{"date", "day", "escalations", "total"})
	for _, p := range v.Trend {
		w.Write([]string{p.Date, p.Label, strconv.Itoa(p.Escalations), strconv.Itoa(p.Total)})
	}
	w.Write([]string{})

	w.Write([]string{"# Tickets"})
	writeTicketsCSV(w, v.Tickets, v.GeneratedAt)

	return w.Error()
}

func writeTicketsCSV(w *csv.Writer, rows []models.TicketRow, now time.Time) {
	w.Write([]string{"id", "title", "priority", "status", "assignee", "created_at", "age_hours", "sla_breached"})
	for _, r := range rows {
		w.Write([]string{
			r.ID,
			r.Title,
			string(r.Priority),
			string(r.Status),
			r.Assignee,
			r.CreatedAt.Format(time.RFC3339),
			formatFloat(r.AgeHours(now)),
			strconv.FormatBool(r.SLABreached),
		})
	}
}

func (e *Exporter) exportViewTable(v *dashboard.View) error {
	t := newTable(e.styled)

	var b strings.Builder
	b.WriteString(t.title(fmt.Sprintf("Incident dashboard  window=%s  updated %s",
		v.Criteria.TimeWindow, v.LastUpdated.Format(time.TimeOnly))))
	b.WriteString("\n\n")
	b.WriteString(t.summary(v.Summary))
	b.WriteString("\n")
	b.WriteString(t.sla(v.SLA))
	b.WriteString("\n")
	b.WriteString(t.trend(v.Trend))
	b.WriteString("\n")
	b.WriteString(t.tickets(v.Tickets, v.GeneratedAt))
	if firing := firingNames(v); len(firing) > 0 {
		b.WriteString("\n")
		b.WriteString(t.alert("Firing: " + strings.Join(firing, ", ")))
		b.WriteString("\n")
	}

	_, err := io.WriteString(e.writer, b.String())
	return err
}

func firingNames(v *dashboard.View) []string {
	var names []string
	for _, r := range v.Rules {
		if r.Firing {
			names = append(names, fmt.Sprintf("%s (%s)", r.Name, r.Severity))
		}
	}
	return names
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
