// Package analytics derives the dashboard's aggregates from ticket
// snapshots. Every function is pure and accepts an empty input.
package analytics

import (
	"time"

	"github.com/good-yellow-bee/incidash/internal/models"
)

// DefaultTrendDays is the length of the escalation trend shown on the dashboard.
const DefaultTrendDays = 7

// DefaultTicketRows is the number of rows shown in the ticket table.
const DefaultTicketRows = 10

// healthyBreachRatio is the breach ratio below which SLA performance is healthy.
const healthyBreachRatio = 0.1

// ComputeSummary counts tickets by status. Escalated counts the escalated
// flag; SLABreached counts resolved tickets whose resolution exceeded the
// SLA target.
func ComputeSummary(tickets []models.Ticket) models.Summary {
	s := models.Summary{Total: len(tickets)}

	for _, t := range tickets {
		switch t.Status {
		case models.StatusOpen:
			s.Open++
		case models.StatusInProgress:
			s.InProgress++
		case models.StatusResolved:
			s.Resolved++
		}

		if t.Escalated {
			s.Escalated++
		}
		if resolvedLate(t) {
			s.SLABreached++
		}
	}

	return s
}

// ComputePriorityDistribution returns one bucket per priority, P1 first.
func ComputePriorityDistribution(tickets []models.Ticket) []models.PriorityBucket {
	idx := make(map[models.Priority]int, len(models.Priorities))
	buckets := make([]models.PriorityBucket, len(models.Priorities))
	for i, p := range models.Priorities {
		buckets[i].Priority = p
		idx[p] = i
	}

	for _, t := range tickets {
		i, ok := idx[t.Priority]
		if !ok {
			continue
		}
		buckets[i].Count++
		if t.IsResolved() {
			buckets[i].Resolved++
		}
	}

	return buckets
}

// ComputeSLACompliance returns SLA performance per priority, P1 first.
// Only tickets carrying a ResolvedAt are measured. A priority with nothing
// measured reports an average of 0 and a compliance of 1.
func ComputeSLACompliance(tickets []models.Ticket) []models.SLAMetric {
	out := make([]models.SLAMetric, 0, len(models.Priorities))

	for _, p := range models.Priorities {
		m := models.SLAMetric{
			Priority:           p,
			TargetHours:        models.SLATargetHours(p),
			ComplianceFraction: 1,
		}

		var sum float64
		for _, t := range tickets {
			if t.Priority != p {
				continue
			}
			hours, ok := t.ResolutionHours()
			if !ok {
				continue
			}
			m.TotalResolvedCount++
			sum += hours
			if hours > m.TargetHours {
				m.BreachedCount++
			}
		}

		if m.TotalResolvedCount > 0 {
			n := float64(m.TotalResolvedCount)
			m.AverageResolutionHours = sum / n
			m.ComplianceFraction = 1 - float64(m.BreachedCount)/n
		}

		out = append(out, m)
	}

	return out
}

// ComputeEscalationTrend returns days consecutive calendar dates ending at
// now's date, oldest first. A ticket belongs to the date its CreatedAt falls
// on in now's location. Callers pass the unfiltered collection.
func ComputeEscalationTrend(tickets []models.Ticket, days int, now time.Time) []models.TrendPoint {
	if days <= 0 {
		return []models.TrendPoint{}
	}

	loc := now.Location()
	points := make([]models.TrendPoint, days)
	index := make(map[string]int, days)

	for i := range days {
		day := now.AddDate(0, 0, i-(days-1))
		key := day.Format(time.DateOnly)
		points[i] = models.TrendPoint{
			Date:  key,
			Label: day.Format("Mon"),
		}
		index[key] = i
	}

	for _, t := range tickets {
		i, ok := index[t.CreatedAt.In(loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		points[i].Total++
		if t.Escalated {
			points[i].Escalations++
		}
	}

	return points
}

// RowBreached reports whether an unresolved ticket has been open longer
// than its SLA target at now. It is independent of Summary.SLABreached.
func RowBreached(t models.Ticket, now time.Time) bool {
	return t.Status != models.StatusResolved && t.AgeHours(now) > t.SLATargetHours
}

// TicketRows projects up to limit tickets into table rows. A limit <= 0
// uses DefaultTicketRows.
func TicketRows(tickets []models.Ticket, now time.Time, limit int) []models.TicketRow {
	if limit <= 0 {
		limit = DefaultTicketRows
	}
	if len(tickets) < limit {
		limit = len(tickets)
	}

	rows := make([]models.TicketRow, limit)
	for i := range limit {
		rows[i] = models.TicketRow{
			Ticket:      tickets[i],
			SLABreached: RowBreached(tickets[i], now),
		}
	}
	return rows
}

// Tone classifies an SLA metric for display.
type Tone string

const (
	ToneHealthy Tone = "healthy"
	ToneAtRisk  Tone = "at_risk"
)

// ComplianceTone is healthy when something was measured and fewer than
// 10% of measured tickets breached.
func ComplianceTone(m models.SLAMetric) Tone {
	if m.TotalResolvedCount > 0 && float64(m.BreachedCount)/float64(m.TotalResolvedCount) < healthyBreachRatio {
		return ToneHealthy
	}
	return ToneAtRisk
}

// BreachRatio returns SLABreached over Resolved, or 0 with nothing resolved.
func BreachRatio(s models.Summary) float64 {
	if s.Resolved == 0 {
		return 0
	}
	return float64(s.SLABreached) / float64(s.Resolved)
}

func resolvedLate(t models.Ticket) bool {
	hours, ok := t.ResolutionHours()
	return ok && hours > t.SLATargetHours
}
