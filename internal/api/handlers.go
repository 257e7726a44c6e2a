package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/incidash/internal/api/middleware"
	"github.com/good-yellow-bee/incidash/internal/models"
)

// criteria parses the request filters, writing a 400 on failure.
func (s *Server) criteria(w http.ResponseWriter, r *http.Request) (models.FilterCriteria, bool) {
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		JSONError(w, ToError(err))
		return c, false
	}
	return c, true
}

// handleDashboard returns the full dashboard view.
// GET /api/v1/dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := s.criteria(w, r)
	if !ok {
		return
	}
	OK(w, s.dashboard.View(c))
}

// handleTickets returns every ticket matching the filters.
// GET /api/v1/tickets
func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request) {
	c, ok := s.criteria(w, r)
	if !ok {
		return
	}
	rows := s.dashboard.Tickets(c)
	OK(w, TicketsResponse{Tickets: rows, Total: len(rows)})
}

// GET /api/v1/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	c, ok := s.criteria(w, r)
	if !ok {
		return
	}
	OK(w, s.dashboard.Summary(c))
}

// GET /api/v1/sla
func (s *Server) handleSLA(w http.ResponseWriter, r *http.Request) {
	c, ok := s.criteria(w, r)
	if !ok {
		return
	}
	OK(w, s.dashboard.SLA(c))
}

// handleTrend returns the escalation trend. Filters do not apply.
// GET /api/v1/trend?days=N
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	days, err := parseDays(r.URL.Query(), s.config.MaxTrendDays)
	if err != nil {
		JSONError(w, NewValidationError("days", err))
		return
	}
	OK(w, s.dashboard.Trend(days))
}

// GET /api/v1/breakdowns
func (s *Server) handleBreakdowns(w http.ResponseWriter, r *http.Request) {
	OK(w, s.dashboard.Breakdowns())
}

// GET /api/v1/assignees
func (s *Server) handleAssignees(w http.ResponseWriter, r *http.Request) {
	OK(w, s.dashboard.Assignees())
}

// handleRefresh records a manual refresh. Tickets are not mutated.
// POST /api/v1/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	at := s.dashboard.Refresh()
	s.logger.Info("manual refresh",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Time("last_updated", at),
	)
	OK(w, RefreshResponse{LastUpdated: at})
}
