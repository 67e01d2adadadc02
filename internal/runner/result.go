// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"path/filepath"
	"strconv"

	"csvpilot/internal/issue"
)

type (
	// ExitCode represents a process exit status code. Zero means success;
	// anything else is a script-level failure surfaced as-is.
	ExitCode int
)

// ExitCodeKilled marks a run that did not exit on its own, matching what
// os/exec reports for a signal-killed process. Every runtime reports it
// for timed-out runs.
const ExitCodeKilled ExitCode = -1

type (
	// Result is the captured outcome of one script run. It is returned
	// once to the caller and not retained anywhere.
	Result struct {
		// ExitCode is the script process exit code.
		ExitCode ExitCode `json:"exitCode"`
		// Stdout is the full captured standard output.
		Stdout string `json:"stdout"`
		// Stderr is the full captured standard error.
		Stderr string `json:"stderr"`
		// TimedOut is set when the run was killed by the timeout budget.
		TimedOut bool `json:"timedOut,omitempty"`

		// ScriptPath is the script that produced this result.
		ScriptPath string `json:"-"`
	}
)

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// Failure returns a ScriptFailureError when the run exited nonzero, and
// nil for a successful run. The error carries the captured stderr so the
// script author can diagnose without server-side log access.
func (r *Result) Failure() error {
	if r.ExitCode.IsSuccess() {
		return nil
	}
	return &issue.ScriptFailureError{
		Script:   filepath.Base(r.ScriptPath),
		ExitCode: int(r.ExitCode),
		Stderr:   r.Stderr,
	}
}
