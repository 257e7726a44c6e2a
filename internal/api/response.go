package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/good-yellow-bee/incidash/internal/models"
)

// Response is the envelope of every API response: exactly one of Data and
// Error is set.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// OK writes data with status 200.
func OK(w http.ResponseWriter, data any) {
	writeResponse(w, http.StatusOK, Response{Data: data})
}

// JSONError writes err with its status.
func JSONError(w http.ResponseWriter, err *Error) {
	writeResponse(w, err.Status, Response{Error: err})
}

// TicketsResponse is the body of GET /tickets.
type TicketsResponse struct {
	Tickets []models.TicketRow `json:"tickets"`
	Total   int                `json:"total"`
}

// RefreshResponse is returned by a manual refresh.
type RefreshResponse struct {
	LastUpdated time.Time `json:"last_updated"`
}
