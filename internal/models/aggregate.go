package models

// Summary holds the headline counts for a filtered ticket set.
type Summary struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`

	// Escalated counts the escalated flag, not the Escalated status.
	Escalated int `json:"escalated"`

	// SLABreached counts resolved-and-late tickets only.
	SLABreached int `json:"sla_breached"`
}

// PriorityBucket is one bar of the priority distribution.
type PriorityBucket struct {
	Priority Priority `json:"priority"`
	Count    int      `json:"count"`
	Resolved int      `json:"resolved"`
}

// SLAMetric describes SLA performance for one priority.
type SLAMetric struct {
	Priority               Priority `json:"priority"`
	TargetHours            float64  `json:"target_hours"`
	AverageResolutionHours float64  `json:"average_resolution_hours"`
	BreachedCount          int      `json:"breached_count"`
	TotalResolvedCount     int      `json:"total_resolved_count"`

	// ComplianceFraction is 1 when TotalResolvedCount is 0.
	ComplianceFraction float64 `json:"compliance_fraction"`
}

// CompliancePercent returns ComplianceFraction scaled to 0..100.
func (m SLAMetric) CompliancePercent() float64 {
	return m.ComplianceFraction * 100
}

// TrendPoint is the escalation count for one calendar date.
type TrendPoint struct {
	Date        string `json:"date"`  // YYYY-MM-DD
	Label       string `json:"label"` // short weekday, e.g. "Mon"
	Escalations int    `json:"escalations"`
	Total       int    `json:"total"`
}

// TicketRow is a ticket as shown in the details table.
type TicketRow struct {
	Ticket
	SLABreached bool `json:"sla_breached"`
}

// BreakdownItem is one entry of a static breakdown table.
type BreakdownItem struct {
	Name       string `json:"name" yaml:"name"`
	Count      int    `json:"count" yaml:"count"`
	Percentage int    `json:"percentage,omitempty" yaml:"percentage,omitempty"`
}
