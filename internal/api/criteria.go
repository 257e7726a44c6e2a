package api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/good-yellow-bee/incidash/internal/filter"
	"github.com/good-yellow-bee/incidash/internal/models"
)

// ParseCriteria reads filter criteria from query parameters
// priority, status, assignee, window and search.
func ParseCriteria(q url.Values) (models.FilterCriteria, error) {
	return filter.ParseCriteria(filter.Selection{
		Priority: q.Get("priority"),
		Status:   q.Get("status"),
		Assignee: q.Get("assignee"),
		Window:   q.Get("window"),
		Search:   q.Get("search"),
	})
}

// parseDays reads the ?days= parameter. Zero means "use the default".
func parseDays(q url.Values, limit int) (int, error) {
	v := q.Get("days")
	if v == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(v)
	if err != nil || days < 1 || days > limit {
		return 0, fmt.Errorf("days must be an integer between 1 and %d", limit)
	}
	return days, nil
}
