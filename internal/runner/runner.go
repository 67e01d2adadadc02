// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"csvpilot/internal/issue"
)

type (
	// ExecutionContext contains everything needed to run one script
	// against one CSV file. It is ephemeral: built per run, discarded
	// after the Result is returned.
	ExecutionContext struct {
		// Context is the Go context for cancellation.
		Context context.Context
		// ScriptPath is the absolute path of the script to run.
		ScriptPath string
		// CSVPath is the absolute path of the CSV file, passed to the
		// script as its positional argument. It must already exist.
		CSVPath string
		// Credentials is the per-run credential overlay.
		Credentials Credentials
		// Timeout bounds the run; zero means no budget.
		Timeout time.Duration
		// WorkDir is the working directory for the script process.
		// Empty inherits the parent's working directory.
		WorkDir string
		// Environ overrides the parent environment source, for tests.
		// When nil, os.Environ() is used.
		Environ func() []string
	}

	// Runtime executes scripts of one kind with captured output.
	Runtime interface {
		// Name returns the runtime name.
		Name() string
		// Available reports whether the runtime can execute on this host.
		Available() bool
		// ExecuteCapture runs the script and captures its output in full.
		// It returns an error only for failures outside the script: a
		// missing path (issue.ErrNotFound) or a process that could not be
		// started (issue.ErrLaunchFailure). A script that runs and exits
		// nonzero is a valid Result, not an error.
		ExecuteCapture(ec *ExecutionContext) (*Result, error)
	}
)

// baseEnviron resolves the parent environment source.
func (ec *ExecutionContext) baseEnviron() []string {
	if ec.Environ != nil {
		return ec.Environ()
	}
	return os.Environ()
}

// runContext derives the context the script runs under, applying the
// timeout budget. The returned cancel must always be called.
func (ec *ExecutionContext) runContext() (context.Context, context.CancelFunc) {
	parent := ec.Context
	if parent == nil {
		parent = context.Background()
	}
	if ec.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, ec.Timeout)
}

// preflight verifies the script and CSV paths exist and the credential
// overlay is well formed, before any process is spawned.
func (ec *ExecutionContext) preflight() error {
	if valid, errs := ec.Credentials.IsValid(); !valid {
		return errs[0]
	}
	for _, path := range []string{ec.ScriptPath, ec.CSVPath} {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return &issue.NotFoundError{Resource: path}
			}
			return &issue.IOFailureError{Op: "stat", Path: path, Cause: err}
		}
	}
	return nil
}
