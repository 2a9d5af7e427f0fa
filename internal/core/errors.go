package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnauthorized means no access token is stored for the vendor.
	// The presentation layer reacts by showing a connect affordance.
	ErrUnauthorized = errors.New("no access token stored - connect the vendor account first")

	// ErrNotConnected is the "null result" of listing calls: the vendor is
	// simply not linked. It is not an error condition for the caller.
	ErrNotConnected = errors.New("vendor account not connected")
)

// ValidationError reports bad caller input. Never retried, surfaced verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// TransportError wraps network or decoding failures talking to a vendor
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// VendorError carries a vendor-reported failure: a non-2xx status or an
// error field inside a 2xx envelope. Message passes through the vendor's
// human-readable text when available.
type VendorError struct {
	Vendor  string
	Status  int
	Message string
}

func (e *VendorError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s API request failed with status %d", e.Vendor, e.Status)
	}
	return fmt.Sprintf("%s API request failed", e.Vendor)
}

// TimeoutError reports that the wake poll budget elapsed without the device
// coming online
type TimeoutError struct {
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("device did not respond in time (waited %s)", e.Budget)
}

// DiagnosticError is the one documented escape hatch: the solar code
// exchange attaches the raw vendor response body so integration failures
// (e.g. an HTML error page) can be shown verbatim. It is intentionally not
// folded into VendorError.
type DiagnosticError struct {
	Err     error
	RawBody string
}

func (e *DiagnosticError) Error() string {
	return e.Err.Error()
}

func (e *DiagnosticError) Unwrap() error {
	return e.Err
}
