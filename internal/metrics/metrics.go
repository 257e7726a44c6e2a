// Package metrics provides Prometheus metrics for incidash.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "incidash"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// HTTPRateLimited counts requests rejected by the rate limiter.
	HTTPRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by the per-client rate limiter",
		},
	)
)

// Scheduler metrics
var (
	// SchedulerTicksTotal counts refresh ticks.
	SchedulerTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Total refresh ticks processed",
		},
	)

	// SchedulerManualRefreshTotal counts manual refresh requests.
	SchedulerManualRefreshTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "manual_refresh_total",
			Help:      "Total manual refresh requests",
		},
	)

	// SchedulerLastUpdated is the unix time of the last refresh.
	SchedulerLastUpdated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "last_updated_timestamp_seconds",
			Help:      "Unix time of the last refresh",
		},
	)
)

// Store metrics
var (
	// StoreTickets reports the ticket count by status.
	StoreTickets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "tickets",
			Help:      "Number of tickets by status",
		},
		[]string{"status"},
	)

	// StoreSLABreached reports resolved tickets that exceeded their SLA target.
	StoreSLABreached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "sla_breached",
			Help:      "Resolved tickets whose resolution exceeded the SLA target",
		},
	)
)

// Dashboard metrics
var (
	// DashboardComputeDuration tracks the time to build a dashboard view.
	DashboardComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "compute_duration_seconds",
			Help:      "Time to build a dashboard view",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	// LookupReloadsTotal counts lookup table reloads by result.
	LookupReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "lookup_reloads_total",
			Help:      "Total lookup table reload attempts",
		},
		[]string{"result"},
	)
)

// Rule metrics
var (
	// RuleFiring is 1 while a threshold rule's condition holds.
	RuleFiring = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "firing",
			Help:      "Whether a threshold rule is currently firing (1) or not (0)",
		},
		[]string{"rule", "severity"},
	)

	// RuleEvalErrors counts rule evaluation failures.
	RuleEvalErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "eval_errors_total",
			Help:      "Total threshold rule evaluation errors",
		},
		[]string{"rule"},
	)
)

// BuildInfo is always 1; its labels carry the running build.
var BuildInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information of the running binary",
	},
	[]string{"version", "commit", "go_version"},
)

// ReloadResult returns the label value for a reload outcome.
func ReloadResult(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
