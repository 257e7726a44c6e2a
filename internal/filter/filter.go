// Package filter narrows a ticket snapshot down to the tickets selected by
// the dashboard's filter criteria.
package filter

import (
	"strings"
	"time"

	"github.com/good-yellow-bee/incidash/internal/models"
)

// Predicate reports whether a ticket passes one criterion.
type Predicate struct {
	Name  string
	Match func(t models.Ticket) bool
}

// Predicates returns the active predicates for c evaluated at now.
// Wildcard fields and an empty search term contribute nothing; the time
// window is always active. An unrecognised window matches no ticket.
func Predicates(c models.FilterCriteria, now time.Time) []Predicate {
	c = c.Normalize()
	var preds []Predicate

	if c.Priority != models.All {
		want := models.Priority(c.Priority)
		preds = append(preds, Predicate{
			Name:  "priority=" + c.Priority,
			Match: func(t models.Ticket) bool { return t.Priority == want },
		})
	}

	if c.Status != models.All {
		want := models.Status(c.Status)
		preds = append(preds, Predicate{
			Name:  "status=" + c.Status,
			Match: func(t models.Ticket) bool { return t.Status == want },
		})
	}

	if c.Assignee != models.All {
		want := c.Assignee
		preds = append(preds, Predicate{
			Name:  "assignee=" + c.Assignee,
			Match: func(t models.Ticket) bool { return t.Assignee == want },
		})
	}

	if c.SearchTerm != "" {
		term := strings.ToLower(c.SearchTerm)
		preds = append(preds, Predicate{
			Name: "search=" + c.SearchTerm,
			Match: func(t models.Ticket) bool {
				return strings.Contains(strings.ToLower(t.Title), term) ||
					strings.Contains(strings.ToLower(t.ID), term)
			},
		})
	}

	preds = append(preds, windowPredicate(c.TimeWindow, now))
	return preds
}

// windowPredicate admits tickets created at or after now minus the window.
func windowPredicate(w models.TimeWindow, now time.Time) Predicate {
	if w.Days() == 0 {
		return Predicate{
			Name:  "window=" + string(w),
			Match: func(models.Ticket) bool { return false },
		}
	}

	cutoff := w.Cutoff(now)
	return Predicate{
		Name: "window=" + string(w),
		// Inclusive lower bound.
		Match: func(t models.Ticket) bool { return !t.CreatedAt.Before(cutoff) },
	}
}

// Apply returns the tickets passing every active predicate, in input order.
// The input slice is not modified.
func Apply(tickets []models.Ticket, c models.FilterCriteria, now time.Time) []models.Ticket {
	preds := Predicates(c, now)

	out := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if matchAll(preds, t) {
			out = append(out, t)
		}
	}
	return out
}

// Matches reports whether a single ticket passes c at now.
func Matches(t models.Ticket, c models.FilterCriteria, now time.Time) bool {
	return matchAll(Predicates(c, now), t)
}

func matchAll(preds []Predicate, t models.Ticket) bool {
	for _, p := range preds {
		if !p.Match(t) {
			return false
		}
	}
	return true
}
