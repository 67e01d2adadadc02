// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Failure kinds recognized at the service boundary.
const (
	// KindNotFound indicates a referenced script or CSV file does not exist.
	KindNotFound Kind = "not_found"
	// KindLaunchFailure indicates a script subprocess could not be started.
	KindLaunchFailure Kind = "launch_failure"
	// KindScriptFailure indicates a script ran but exited nonzero.
	// It is domain-level information, not a transport error: the web
	// boundary returns it inside a successful run response, never as an
	// HTTP error status.
	KindScriptFailure Kind = "script_failure"
	// KindIOFailure indicates a read or write on a CSV or script file failed.
	KindIOFailure Kind = "io_failure"
	// KindInvalidInput indicates a malformed request (bad file name,
	// unrecognized credential variable, unparseable payload).
	KindInvalidInput Kind = "invalid_input"
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown Kind = "unknown"
)

// Sentinel errors wrapped by the typed errors below. Callers use
// errors.Is against these for programmatic detection.
var (
	ErrNotFound      = errors.New("not found")
	ErrLaunchFailure = errors.New("launch failure")
	ErrScriptFailure = errors.New("script failure")
	ErrIOFailure     = errors.New("i/o failure")
	ErrInvalidInput  = errors.New("invalid input")
)

type (
	// Kind classifies a failure for boundary translation (HTTP status,
	// CLI exit handling, log fields).
	Kind string

	// NotFoundError is returned when a named script or CSV file does not
	// exist. It wraps ErrNotFound for errors.Is() compatibility.
	NotFoundError struct {
		// Resource is the file name or path that was not found.
		Resource string
	}

	// LaunchFailureError is returned when a script subprocess could not
	// be spawned (missing interpreter, permission denied, and similar).
	// It wraps ErrLaunchFailure for errors.Is() compatibility.
	LaunchFailureError struct {
		Script string
		Cause  error
	}

	// ScriptFailureError reports a script that ran to completion and
	// exited nonzero. It carries the captured stderr so the script author
	// can diagnose the failure without server-side log access.
	// It wraps ErrScriptFailure for errors.Is() compatibility.
	ScriptFailureError struct {
		Script   string
		ExitCode int
		Stderr   string
	}

	// IOFailureError is returned when reading or writing a CSV or script
	// file fails for a reason other than absence.
	// It wraps ErrIOFailure for errors.Is() compatibility.
	IOFailureError struct {
		Op    string
		Path  string
		Cause error
	}

	// InvalidInputError is returned for malformed caller input.
	// It wraps ErrInvalidInput for errors.Is() compatibility.
	InvalidInputError struct {
		Field  string
		Reason string
	}
)

var kindStatus = map[Kind]int{
	KindNotFound:      http.StatusNotFound,
	KindLaunchFailure: http.StatusBadGateway,
	KindIOFailure:     http.StatusInternalServerError,
	KindInvalidInput:  http.StatusBadRequest,
	KindUnknown:       http.StatusInternalServerError,
}

// Kinds returns the kinds that map to an HTTP status, in sorted order.
func Kinds() []Kind {
	kinds := maps.Keys(kindStatus)
	slices.Sort(kinds)
	return kinds
}

// HTTPStatus returns the HTTP status code a boundary should respond with
// for this kind. KindScriptFailure intentionally maps to 200: a failed
// run is still a successfully handled request.
func (k Kind) HTTPStatus() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusOK
}

// String returns the wire name of the kind.
func (k Kind) String() string { return string(k) }

// KindOf classifies err against the failure taxonomy using errors.Is.
// A nil error and errors outside the taxonomy return KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrLaunchFailure):
		return KindLaunchFailure
	case errors.Is(err, ErrScriptFailure):
		return KindScriptFailure
	case errors.Is(err, ErrIOFailure):
		return KindIOFailure
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindUnknown
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found", e.Resource)
}

// Unwrap returns ErrNotFound so callers can use errors.Is.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Error implements the error interface.
func (e *LaunchFailureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to launch %s: %v", e.Script, e.Cause)
	}
	return fmt.Sprintf("failed to launch %s", e.Script)
}

// Unwrap returns ErrLaunchFailure so callers can use errors.Is.
// The underlying cause is folded into the message rather than the chain
// so launch failures never alias other kinds.
func (e *LaunchFailureError) Unwrap() error { return ErrLaunchFailure }

// Error implements the error interface.
func (e *ScriptFailureError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Script, e.ExitCode)
}

// Unwrap returns ErrScriptFailure so callers can use errors.Is.
func (e *ScriptFailureError) Unwrap() error { return ErrScriptFailure }

// Error implements the error interface.
func (e *IOFailureError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Cause)
}

// Unwrap returns ErrIOFailure so callers can use errors.Is.
func (e *IOFailureError) Unwrap() error { return ErrIOFailure }

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidInput so callers can use errors.Is.
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }
