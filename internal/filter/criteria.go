package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/good-yellow-bee/incidash/internal/models"
)

// MaxSearchLength bounds the free-text search term.
const MaxSearchLength = 200

var ErrSearchTooLong = errors.New("search term too long")

// Selection is raw, user-supplied filter input.
type Selection struct {
	Priority string
	Status   string
	Assignee string
	Window   string
	Search   string
}

// ParseCriteria validates a selection. Empty selectors and "all" (any case)
// become the wildcard; priorities and statuses are canonicalised. An empty
// window is left empty so the caller's default applies.
func ParseCriteria(sel Selection) (models.FilterCriteria, error) {
	c := models.FilterCriteria{
		Priority: models.All,
		Status:   models.All,
		Assignee: models.All,
	}

	if v := strings.TrimSpace(sel.Priority); v != "" && !isAll(v) {
		p, err := models.ParsePriority(v)
		if err != nil {
			return c, err
		}
		c.Priority = string(p)
	}

	if v := strings.TrimSpace(sel.Status); v != "" && !isAll(v) {
		st, err := models.ParseStatus(v)
		if err != nil {
			return c, err
		}
		c.Status = string(st)
	}

	if v := strings.TrimSpace(sel.Assignee); v != "" {
		c.Assignee = v
	}

	if v := strings.TrimSpace(sel.Window); v != "" {
		w, err := models.ParseTimeWindow(v)
		if err != nil {
			return c, err
		}
		c.TimeWindow = w
	}

	search := sel.Search
	if len(search) > MaxSearchLength {
		return c, fmt.Errorf("%w: limit is %d characters", ErrSearchTooLong, MaxSearchLength)
	}
	c.SearchTerm = search

	return c, nil
}

func isAll(v string) bool {
	return strings.EqualFold(v, models.All)
}
