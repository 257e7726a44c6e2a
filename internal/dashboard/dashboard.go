// Package dashboard assembles the dashboard projection from the ticket
// store, the refresh scheduler and the analytics functions.
package dashboard

import (
	"time"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/incidash/internal/alerting"
	"github.com/good-yellow-bee/incidash/internal/analytics"
	"github.com/good-yellow-bee/incidash/internal/clock"
	"github.com/good-yellow-bee/incidash/internal/filter"
	"github.com/good-yellow-bee/incidash/internal/metrics"
	"github.com/good-yellow-bee/incidash/internal/models"
	"github.com/good-yellow-bee/incidash/internal/scheduler"
	"github.com/good-yellow-bee/incidash/internal/store"
)

// Options tunes the projection.
type Options struct {
	DefaultWindow models.TimeWindow // window used when criteria leave it empty
	TicketRows    int               // rows in the ticket table
	TrendDays     int               // length of the escalation trend
}

// DefaultOptions returns the standard dashboard layout.
func DefaultOptions() Options {
	return Options{
		DefaultWindow: models.DefaultTimeWindow,
		TicketRows:    analytics.DefaultTicketRows,
		TrendDays:     analytics.DefaultTrendDays,
	}
}

// SLAView is an SLA metric with its display values.
type SLAView struct {
	models.SLAMetric
	CompliancePercent float64        `json:"compliance_percent"`
	Tone              analytics.Tone `json:"tone"`
}

// View is everything the dashboard shows for one set of criteria.
type View struct {
	Criteria             models.FilterCriteria   `json:"criteria"`
	GeneratedAt          time.Time               `json:"generated_at"`
	LastUpdated          time.Time               `json:"last_updated"`
	Summary              models.Summary          `json:"summary"`
	PriorityDistribution []models.PriorityBucket `json:"priority_distribution"`
	SLA                  []SLAView               `json:"sla"`
	Trend                []models.TrendPoint     `json:"trend"`
	Tickets              []models.TicketRow      `json:"tickets"`
	MatchedTickets       int                     `json:"matched_tickets"`
	Breakdowns           analytics.Lookup        `json:"breakdowns"`
	Rules                []alerting.RuleState    `json:"rules"`
}

// Service serves dashboard projections. It is safe for concurrent use.
type Service struct {
	store     *store.Store
	scheduler *scheduler.Scheduler
	clock     clock.Clock
	lookup    *analytics.LookupTable
	rules     *alerting.Engine
	opts      Options
	logger    *zap.Logger
}

// New creates a dashboard service. A nil lookup uses the built-in tables
// and a nil rule engine evaluates no rules.
func New(st *store.Store, sched *scheduler.Scheduler, clk clock.Clock, lookup *analytics.LookupTable, rules *alerting.Engine, opts Options, logger *zap.Logger) *Service {
	def := DefaultOptions()
	if opts.DefaultWindow == "" {
		opts.DefaultWindow = def.DefaultWindow
	}
	if opts.TicketRows <= 0 {
		opts.TicketRows = def.TicketRows
	}
	if opts.TrendDays <= 0 {
		opts.TrendDays = def.TrendDays
	}
	if clk == nil {
		clk = clock.Real()
	}
	if lookup == nil {
		lookup = analytics.NewLookupTable(analytics.DefaultLookup())
	}
	if rules == nil {
		rules = alerting.NewEngine(nil, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:     st,
		scheduler: sched,
		clock:     clk,
		lookup:    lookup,
		rules:     rules,
		opts:      opts,
		logger:    logger,
	}
}

// Criteria fills empty fields of c with wildcards and the default window.
func (s *Service) Criteria(c models.FilterCriteria) models.FilterCriteria {
	if c.TimeWindow == "" {
		c.TimeWindow = s.opts.DefaultWindow
	}
	return c.Normalize()
}

// View builds the full projection from a single store snapshot and a
// single reading of the clock.
func (s *Service) View(c models.FilterCriteria) View {
	start := time.Now()
	defer func() { metrics.DashboardComputeDuration.Observe(time.Since(start).Seconds()) }()

	c = s.Criteria(c)
	now := s.clock.Now()
	all := s.store.List()
	filtered := filter.Apply(all, c, now)

	summary := analytics.ComputeSummary(filtered)
	sla := analytics.ComputeSLACompliance(filtered)

	return View{
		Criteria:             c,
		GeneratedAt:          now,
		LastUpdated:          s.LastUpdated(),
		Summary:              summary,
		PriorityDistribution: analytics.ComputePriorityDistribution(filtered),
		SLA:                  slaViews(sla),
		Trend:                analytics.ComputeEscalationTrend(all, s.opts.TrendDays, now),
		Tickets:              analytics.TicketRows(filtered, now, s.opts.TicketRows),
		MatchedTickets:       len(filtered),
		Breakdowns:           s.lookup.Get(),
		Rules:                s.evaluateRules(all, now),
	}
}

// Tickets returns every ticket matching c as table rows.
func (s *Service) Tickets(c models.FilterCriteria) []models.TicketRow {
	c = s.Criteria(c)
	now := s.clock.Now()
	filtered := filter.Apply(s.store.List(), c, now)
	return analytics.TicketRows(filtered, now, max(len(filtered), 1))
}

// Summary returns the summary counts for c.
func (s *Service) Summary(c models.FilterCriteria) models.Summary {
	c = s.Criteria(c)
	return analytics.ComputeSummary(filter.Apply(s.store.List(), c, s.clock.Now()))
}

// SLA returns per-priority SLA performance for c.
func (s *Service) SLA(c models.FilterCriteria) []SLAView {
	c = s.Criteria(c)
	return slaViews(analytics.ComputeSLACompliance(filter.Apply(s.store.List(), c, s.clock.Now())))
}

// Trend returns the escalation trend over the whole store. days <= 0 uses
// the configured length.
func (s *Service) Trend(days int) []models.TrendPoint {
	if days <= 0 {
		days = s.opts.TrendDays
	}
	return analytics.ComputeEscalationTrend(s.store.List(), days, s.clock.Now())
}

// Breakdowns returns the static breakdown tables.
func (s *Service) Breakdowns() analytics.Lookup {
	return s.lookup.Get()
}

// Assignees returns the distinct assignees for the filter selector.
func (s *Service) Assignees() []string {
	return s.store.Assignees()
}

// Refresh is the manual refresh: it records the time and nothing else.
func (s *Service) Refresh() time.Time {
	if s.scheduler == nil {
		return s.clock.Now()
	}
	at := s.scheduler.Touch()
	s.logger.Debug("manual refresh", zap.Time("at", at))
	return at
}

// LastUpdated returns when the data was last refreshed.
func (s *Service) LastUpdated() time.Time {
	if s.scheduler == nil {
		return time.Time{}
	}
	return s.scheduler.LastUpdated()
}

// HandleTick is the scheduler hook. It refreshes the store gauges and
// re-evaluates rules against the mutated store.
func (s *Service) HandleTick(at time.Time) {
	all := s.store.List()
	RecordStoreMetrics(all)

	firing := alerting.Firing(s.evaluateRules(all, at))
	if len(firing) > 0 {
		names := make([]string, len(firing))
		for i, f := range firing {
			names[i] = f.Name
		}
		s.logger.Info("rules firing", zap.Strings("rules", names))
	}
}

// evaluateRules runs the rule engine over the whole store, independent of
// the caller's criteria.
func (s *Service) evaluateRules(all []models.Ticket, now time.Time) []alerting.RuleState {
	env := alerting.NewEnv(analytics.ComputeSummary(all), analytics.ComputeSLACompliance(all))
	return s.rules.Evaluate(env, now)
}

// RecordStoreMetrics publishes ticket counts by status.
func RecordStoreMetrics(tickets []models.Ticket) {
	counts := make(map[models.Status]int, len(models.Statuses))
	for _, t := range tickets {
		counts[t.Status]++
	}
	for _, st := range models.Statuses {
		metrics.StoreTickets.WithLabelValues(string(st)).Set(float64(counts[st]))
	}
	metrics.StoreSLABreached.Set(float64(analytics.ComputeSummary(tickets).SLABreached))
}

func slaViews(sla []models.SLAMetric) []SLAView {
	out := make([]SLAView, len(sla))
	for i, m := range sla {
		out[i] = SLAView{
			SLAMetric:         m,
			CompliancePercent: m.CompliancePercent(),
			Tone:              analytics.ComplianceTone(m),
		}
	}
	return out
}
