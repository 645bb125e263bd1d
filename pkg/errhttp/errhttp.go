// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to classify for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/bookcirc/pkg/httpx"
	"github.com/ghuser/bookcirc/pkg/tenancy"
	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
)

// Machine-readable codes for errors that are not policy rejections.
// Policy rejections use their Reason as code.
const (
	CodeNotFound         = "not_found"
	CodeReservationState = "reservation_closed"
	CodeAccessDenied     = "access_denied"
	CodeInvalidTenant    = "invalid_tenant"
	CodeInvalidDate      = "invalid_date"
	CodeInvalidDays      = "invalid_days"
	CodeMissingReference = "missing_reference"
	CodeAmbiguousKey     = "ambiguous_key"
	CodeInvalidPolicy    = "invalid_policy"
	CodeInvalidInput     = "invalid_input"
	CodeInternal         = "internal"
)

// WriteError maps err to an HTTP status code and writes a JSON error response
// of the form {"error", "code", "details"}.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors.
func WriteError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	var details map[string]any
	if pe, ok := circdomain.AsPolicyError(err); ok {
		details = pe.Details
	}
	httpx.JSONErrorCode(w, status, err.Error(), code, details)
}

// Status returns the HTTP status err maps to.
func Status(err error) int {
	status, _ := classify(err)
	return status
}

func classify(err error) (int, string) {
	if pe, ok := circdomain.AsPolicyError(err); ok {
		return http.StatusConflict, string(pe.Reason) // 409
	}
	switch {
	case errors.Is(err, circdomain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound // 404
	case errors.Is(err, circdomain.ErrReservationClosed):
		return http.StatusConflict, CodeReservationState // 409
	case errors.Is(err, circdomain.ErrAccessDenied):
		return http.StatusForbidden, CodeAccessDenied // 403
	case errors.Is(err, tenancy.ErrInvalidTenant):
		return http.StatusUnprocessableEntity, CodeInvalidTenant // 422
	case errors.Is(err, circdomain.ErrInvalidDate):
		return http.StatusUnprocessableEntity, CodeInvalidDate
	case errors.Is(err, circdomain.ErrInvalidDays):
		return http.StatusUnprocessableEntity, CodeInvalidDays
	case errors.Is(err, circdomain.ErrMissingReference):
		return http.StatusUnprocessableEntity, CodeMissingReference
	case errors.Is(err, circdomain.ErrAmbiguousKey):
		return http.StatusUnprocessableEntity, CodeAmbiguousKey
	case errors.Is(err, circdomain.ErrInvalidPolicy):
		return http.StatusUnprocessableEntity, CodeInvalidPolicy
	case errors.Is(err, circdomain.ErrInvalidInput):
		return http.StatusUnprocessableEntity, CodeInvalidInput
	default:
		return http.StatusInternalServerError, CodeInternal // 500
	}
}
