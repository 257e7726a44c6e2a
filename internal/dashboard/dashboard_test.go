package dashboard

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/incidash/internal/alerting"
	"github.com/good-yellow-bee/incidash/internal/analytics"
	"github.com/good-yellow-bee/incidash/internal/clock"
	"github.com/good-yellow-bee/incidash/internal/models"
	"github.com/good-yellow-bee/incidash/internal/scheduler"
	"github.com/good-yellow-bee/incidash/internal/store"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func ticketsFixture() []models.Ticket {
	mk := func(id string, p models.Priority, s models.Status, assignee string, age time.Duration) models.Ticket {
		t := models.NewTicket(id, "System Network Issue #"+id, p, s, now.Add(-age))
		t.Assignee = assignee
		return t
	}

	late := mk("INCIDENT-0001", models.PriorityP1, models.StatusResolved, "Alice Johnson", 24*time.Hour)
	lateAt := late.CreatedAt.Add(210 * time.Minute)
	late.ResolvedAt = &lateAt

	onTime := mk("INCIDENT-0002", models.PriorityP1, models.StatusResolved, "Bob Smith", 20*time.Hour)
	onTimeAt := onTime.CreatedAt.Add(45 * time.Minute)
	onTime.ResolvedAt = &onTimeAt

	stale := mk("INCIDENT-0003", models.PriorityP2, models.StatusOpen, "Bob Smith", 12*time.Hour)
	stale.Escalated = true

	old := mk("INCIDENT-0004", models.PriorityP3, models.StatusEscalated, "Carol Davis", 20*24*time.Hour)
	old.Escalated = true

	fresh := mk("INCIDENT-0005", models.PriorityP4, models.StatusInProgress, "Alice Johnson", time.Hour)

	return []models.Ticket{late, onTime, stale, old, fresh}
}

type fixture struct {
	clock *clock.FakeClock
	store *store.Store
	sched *scheduler.Scheduler
	svc   *Service
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()

	clk := clock.Fake(now)
	st := store.New(ticketsFixture(), rand.New(rand.NewPCG(1, 1)))
	sched := scheduler.New(st, clk, scheduler.Config{}, nil)
	engine := alerting.NewEngine(alerting.DefaultRules(), nil)
	svc := New(st, sched, clk, nil, engine, opts, nil)

	return fixture{clock: clk, store: st, sched: sched, svc: svc}
}

func TestView_Defaults(t *testing.T) {
	f := newFixture(t, Options{})

	v := f.svc.View(models.FilterCriteria{})

	assert.Equal(t, models.DefaultCriteria(), v.Criteria)
	assert.Equal(t, now, v.GeneratedAt)
	assert.Equal(t, now, v.LastUpdated)

	// The 20-day-old ticket is outside the 7d window.
	assert.Equal(t, 4, v.MatchedTickets)
	assert.Equal(t, models.Summary{
		Total:       4,
		Open:        1,
		InProgress:  1,
		Resolved:    2,
		Escalated:   1,
		SLABreached: 1,
	}, v.Summary)

	require.Len(t, v.PriorityDistribution, 4)
	assert.Equal(t, models.PriorityBucket{Priority: models.PriorityP1, Count: 2, Resolved: 2}, v.PriorityDistribution[0])

	require.Len(t, v.SLA, 4)
	p1 := v.SLA[0]
	assert.InDelta(t, 2.125, p1.AverageResolutionHours, 1e-9)
	assert.Equal(t, 1, p1.BreachedCount)
	assert.InDelta(t, 50.0, p1.CompliancePercent, 1e-9)
	assert.Equal(t, analytics.ToneAtRisk, p1.Tone)
	assert.Equal(t, 1.0, v.SLA[1].ComplianceFraction, "nothing measured for P2")

	require.Len(t, v.Tickets, 4)
	assert.Equal(t, "INCIDENT-0001", v.Tickets[0].ID)
	assert.False(t, v.Tickets[0].SLABreached, "resolved rows are never flagged")
	assert.True(t, v.Tickets[2].SLABreached, "P2 open for 12h")
	assert.False(t, v.Tickets[3].SLABreached)

	assert.Equal(t, analytics.DefaultLookup(), v.Breakdowns)

	require.Len(t, v.Rules, 2)
	assert.True(t, v.Rules[0].Firing, "sla_breaches_present")
	assert.False(t, v.Rules[1].Firing, "open_backlog")
}

func TestView_TrendIgnoresFilters(t *testing.T) {
	f := newFixture(t, Options{})

	v := f.svc.View(models.FilterCriteria{Priority: "P4", TimeWindow: models.Window1d})

	assert.Equal(t, 1, v.MatchedTickets)
	require.Len(t, v.Trend, analytics.DefaultTrendDays)

	var total int
	for _, p := range v.Trend {
		total += p.Total
	}
	assert.Equal(t, 4, total, "trend counts every ticket created in the last 7 days")
	assert.Equal(t, 1, v.Trend[6].Escalations, "INCIDENT-0003 was created today")
}

func TestView_Options(t *testing.T) {
	f := newFixture(t, Options{DefaultWindow: models.Window30d, TicketRows: 2, TrendDays: 3})

	v := f.svc.View(models.FilterCriteria{})
	assert.Equal(t, models.Window30d, v.Criteria.TimeWindow)
	assert.Equal(t, 5, v.MatchedTickets)
	assert.Len(t, v.Tickets, 2)
	assert.Len(t, v.Trend, 3)
}

func TestTickets_ReturnsAllMatches(t *testing.T) {
	f := newFixture(t, Options{TicketRows: 1})

	rows := f.svc.Tickets(models.FilterCriteria{TimeWindow: models.Window30d})
	assert.Len(t, rows, 5)

	rows = f.svc.Tickets(models.FilterCriteria{Assignee: "Nobody"})
	assert.Empty(t, rows)
}

func TestSummaryAndSLA(t *testing.T) {
	f := newFixture(t, Options{})

	s := f.svc.Summary(models.FilterCriteria{Assignee: "Bob Smith"})
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Escalated)

	sla := f.svc.SLA(models.FilterCriteria{Assignee: "Alice Johnson"})
	require.Len(t, sla, 4)
	assert.Equal(t, 1, sla[0].TotalResolvedCount)
	assert.Equal(t, 0.0, sla[0].ComplianceFraction)
}

func TestTrend(t *testing.T) {
	f := newFixture(t, Options{})

	assert.Len(t, f.svc.Trend(0), analytics.DefaultTrendDays)
	assert.Len(t, f.svc.Trend(30), 30)
}

func TestRefresh_TouchesOnly(t *testing.T) {
	f := newFixture(t, Options{})
	before := f.store.List()

	f.clock.Set(now.Add(10 * time.Second))
	at := f.svc.Refresh()

	assert.Equal(t, now.Add(10*time.Second), at)
	assert.Equal(t, at, f.svc.LastUpdated())
	assert.Equal(t, before, f.store.List(), "manual refresh must not mutate tickets")
}

func TestAssignees(t *testing.T) {
	f := newFixture(t, Options{})
	assert.Equal(t, []string{"Alice Johnson", "Bob Smith", "Carol Davis"}, f.svc.Assignees())
}

func TestHandleTick_WiredToScheduler(t *testing.T) {
	f := newFixture(t, Options{})

	ticked := make(chan time.Time, 1)
	f.sched.OnTick(func(at time.Time) {
		f.svc.HandleTick(at)
		ticked <- at
	})
	f.sched.Start(t.Context())
	t.Cleanup(f.sched.Stop)
	f.clock.WaitForTickers(1)

	f.clock.Advance(30 * time.Second)
	select {
	case at := <-ticked:
		assert.Equal(t, at, f.svc.View(models.FilterCriteria{}).LastUpdated)
	case <-time.After(2 * time.Second):
		t.Fatal("tick not delivered")
	}
}

func TestNew_NilCollaborators(t *testing.T) {
	st := store.New(ticketsFixture(), rand.New(rand.NewPCG(1, 1)))
	svc := New(st, nil, clock.Fake(now), nil, nil, Options{}, nil)

	v := svc.View(models.FilterCriteria{})
	assert.Empty(t, v.Rules)
	assert.True(t, v.LastUpdated.IsZero())
	assert.Equal(t, now, svc.Refresh())
}
