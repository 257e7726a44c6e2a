// Package models contains the core data structures for incidash.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Priority is the urgency class of a ticket.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

// Priorities lists every priority in display order.
var Priorities = []Priority{PriorityP1, PriorityP2, PriorityP3, PriorityP4}

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
	StatusEscalated  Status = "Escalated"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusEscalated}

var (
	ErrUnknownPriority = errors.New("unknown priority")
	ErrUnknownStatus   = errors.New("unknown status")
)

// slaTargets maps a priority to the maximum allowed hours between creation and resolution.
var slaTargets = map[Priority]float64{
	PriorityP1: 2,
	PriorityP2: 8,
	PriorityP3: 24,
	PriorityP4: 72,
}

// SLATargetHours returns the SLA target for a priority, or 0 if the priority is unknown.
func SLATargetHours(p Priority) float64 {
	return slaTargets[p]
}

// Valid reports whether p is one of P1..P4.
func (p Priority) Valid() bool {
	_, ok := slaTargets[p]
	return ok
}

// Label returns the human readable severity name used in the priority selector.
func (p Priority) Label() string {
	switch p {
	case PriorityP1:
		return "Critical"
	case PriorityP2:
		return "High"
	case PriorityP3:
		return "Medium"
	case PriorityP4:
		return "Low"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusEscalated:
		return true
	default:
		return false
	}
}

// ParsePriority converts a string to Priority. Matching is case-insensitive.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPriority, s)
	}
	return p, nil
}

// ParseStatus converts a string to Status. It accepts the display form
// ("In Progress") as well as compact forms ("in_progress", "inprogress").
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "open":
		return StatusOpen, nil
	case "inprogress":
		return StatusInProgress, nil
	case "resolved":
		return StatusResolved, nil
	case "escalated":
		return StatusEscalated, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// Ticket is a single incident ticket.
type Ticket struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Priority Priority `json:"priority" yaml:"priority"`
	Status   Status   `json:"status" yaml:"status"`
	Assignee string   `json:"assignee" yaml:"assignee"`
	Category string   `json:"category" yaml:"category"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// ResolvedAt is only populated for tickets created already Resolved.
	// A later transition into Resolved leaves it nil.
	ResolvedAt *time.Time `json:"resolved_at,omitempty" yaml:"resolved_at,omitempty"`

	SLATargetHours float64 `json:"sla_target_hours" yaml:"-"`

	// Escalated is independent of Status.
	Escalated bool `json:"escalated" yaml:"escalated"`
}

// NewTicket creates a ticket with its SLA target derived from priority.
func NewTicket(id, title string, priority Priority, status Status, createdAt time.Time) Ticket {
	return Ticket{
		ID:             id,
		Title:          title,
		Priority:       priority,
		Status:         status,
		CreatedAt:      createdAt,
		SLATargetHours: SLATargetHours(priority),
	}
}

// ResolutionHours returns the hours between creation and resolution.
// ok is false when the ticket has no ResolvedAt.
func (t Ticket) ResolutionHours() (hours float64, ok bool) {
	if t.ResolvedAt == nil {
		return 0, false
	}
	return t.ResolvedAt.Sub(t.CreatedAt).Hours(), true
}

// AgeHours returns the hours elapsed since creation at now.
func (t Ticket) AgeHours(now time.Time) float64 {
	return now.Sub(t.CreatedAt).Hours()
}

// IsResolved returns true if the ticket status is Resolved.
func (t Ticket) IsResolved() bool {
	return t.Status == StatusResolved
}

// Clone returns a copy that shares no pointers with t.
func (t Ticket) Clone() Ticket {
	if t.ResolvedAt != nil {
		resolved := *t.ResolvedAt
		t.ResolvedAt = &resolved
	}
	return t
}
