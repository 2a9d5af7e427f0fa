package core

import (
	"errors"
	"net/http"
)

// Result is the uniform envelope every presentation-facing operation
// resolves to: Success carries data, Failure carries an error string.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	// RawBody is only populated for diagnostic failures (solar code
	// exchange) so the vendor's raw response can be displayed.
	RawBody string `json:"raw_body,omitempty"`
}

// OK builds a success envelope
func OK(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a failure envelope from an error
func Fail(err error) Result {
	res := Result{Success: false, Error: err.Error()}

	var diag *DiagnosticError
	if errors.As(err, &diag) {
		res.RawBody = diag.RawBody
	}

	return res
}

// StatusFor maps a taxonomy error onto an HTTP status for the API layer
func StatusFor(err error) int {
	var (
		validation *ValidationError
		transport  *TransportError
		vendor     *VendorError
		timeout    *TimeoutError
		diag       *DiagnosticError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotConnected):
		return http.StatusUnauthorized
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &transport), errors.As(err, &vendor), errors.As(err, &diag):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
