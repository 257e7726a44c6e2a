package api

import (
	"errors"
	"net/http"

	"github.com/good-yellow-bee/incidash/internal/filter"
	"github.com/good-yellow-bee/incidash/internal/models"
)

// Error codes
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// Error is the error half of the response envelope.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"` // offending query parameter
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "Resource not found", Status: http.StatusNotFound}
	ErrMethodNotAllowed = &Error{Code: CodeMethodNotAllowed, Message: "Method not allowed", Status: http.StatusMethodNotAllowed}
	ErrInternal         = &Error{Code: CodeInternalError, Message: "Internal server error", Status: http.StatusInternalServerError}
)

// NewValidationError reports an invalid query parameter.
func NewValidationError(field string, err error) *Error {
	return &Error{
		Code:    CodeValidationFailed,
		Message: err.Error(),
		Field:   field,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// fieldErrors maps parse failures to the query parameter that caused them.
var fieldErrors = []struct {
	sentinel error
	field    string
}{
	{models.ErrUnknownPriority, "priority"},
	{models.ErrUnknownStatus, "status"},
	{models.ErrInvalidTimeWindow, "window"},
	{filter.ErrSearchTooLong, "search"},
}

// ToError converts err to an API error. Known parse failures become 400s;
// anything else is an internal error whose detail is not exposed.
func ToError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.sentinel) {
			return NewValidationError(fe.field, err)
		}
	}
	return &Error{
		Code:    ErrInternal.Code,
		Message: ErrInternal.Message,
		Status:  ErrInternal.Status,
		Err:     err,
	}
}
