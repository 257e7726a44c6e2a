package models

import (
	"errors"
	"fmt"
	"time"
)

// All is the wildcard value for priority, status and assignee criteria.
const All = "all"

// TimeWindow is a trailing period used to scope tickets by creation time.
type TimeWindow string

const (
	Window1d  TimeWindow = "1d"
	Window7d  TimeWindow = "7d"
	Window30d TimeWindow = "30d"
)

// DefaultTimeWindow is the window selected when none is given.
const DefaultTimeWindow = Window7d

var ErrInvalidTimeWindow = errors.New("invalid time window")

// ParseTimeWindow converts a string to TimeWindow.
// An empty string yields DefaultTimeWindow.
func ParseTimeWindow(s string) (TimeWindow, error) {
	switch TimeWindow(s) {
	case "":
		return DefaultTimeWindow, nil
	case Window1d, Window7d, Window30d:
		return TimeWindow(s), nil
	default:
		return "", fmt.Errorf("%w: %q (expected 1d, 7d or 30d)", ErrInvalidTimeWindow, s)
	}
}

// Days returns the window length in days, or 0 for an unknown window.
func (w TimeWindow) Days() int {
	switch w {
	case Window1d:
		return 1
	case Window7d:
		return 7
	case Window30d:
		return 30
	default:
		return 0
	}
}

// Cutoff returns the earliest creation time admitted by the window at now.
func (w TimeWindow) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -w.Days())
}

// FilterCriteria holds the user-selected dashboard filters.
// Priority, Status and Assignee use All as the wildcard.
type FilterCriteria struct {
	Priority   string     `json:"priority"`
	Status     string     `json:"status"`
	Assignee   string     `json:"assignee"`
	TimeWindow TimeWindow `json:"time_window"`
	SearchTerm string     `json:"search_term"`
}

// DefaultCriteria returns criteria with every field at its wildcard and the default window.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		Priority:   All,
		Status:     All,
		Assignee:   All,
		TimeWindow: DefaultTimeWindow,
	}
}

// Normalize replaces empty selector fields with All and an empty window with the default.
func (c FilterCriteria) Normalize() FilterCriteria {
	if c.Priority == "" {
		c.Priority = All
	}
	if c.Status == "" {
		c.Status = All
	}
	if c.Assignee == "" {
		c.Assignee = All
	}
	if c.TimeWindow == "" {
		c.TimeWindow = DefaultTimeWindow
	}
	return c
}
