// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"csvpilot/internal/issue"
)

// waitDelay is how long after kill the runner waits for I/O pipes to
// drain before giving up on a stuck child.
const waitDelay = 5 * time.Second

// PythonRuntime executes *.py scripts under a Python interpreter
// subprocess, with the CSV path as the positional argument.
type PythonRuntime struct {
	// Interpreter overrides the interpreter binary; when empty, python3
	// is used with a fallback to python.
	Interpreter string
}

// NewPythonRuntime creates a PythonRuntime using the given interpreter,
// which may be empty to use the default lookup.
func NewPythonRuntime(interpreter string) *PythonRuntime {
	return &PythonRuntime{Interpreter: interpreter}
}

// Name returns the runtime name.
func (r *PythonRuntime) Name() string { return "python" }

// Available returns whether a Python interpreter can be found.
func (r *PythonRuntime) Available() bool {
	_, err := r.resolveInterpreter()
	return err == nil
}

// resolveInterpreter locates the interpreter binary.
func (r *PythonRuntime) resolveInterpreter() (string, error) {
	if r.Interpreter != "" {
		return exec.LookPath(r.Interpreter)
	}
	if path, err := exec.LookPath("python3"); err == nil {
		return path, nil
	}
	return exec.LookPath("python")
}

// ExecuteCapture runs the script and captures stdout/stderr in full.
func (r *PythonRuntime) ExecuteCapture(ec *ExecutionContext) (*Result, error) {
	if err := ec.preflight(); err != nil {
		return nil, err
	}

	interpreter, err := r.resolveInterpreter()
	if err != nil {
		return nil, &issue.LaunchFailureError{Script: ec.ScriptPath, Cause: err}
	}

	runCtx, cancel := ec.runContext()
	defer cancel()

	cmd := exec.CommandContext(runCtx, interpreter, ec.ScriptPath, ec.CSVPath)
	cmd.Env = BuildEnv(ec.baseEnviron(), ec.Credentials)
	cmd.Dir = ec.WorkDir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, &issue.LaunchFailureError{Script: ec.ScriptPath, Cause: err}
	}

	err = cmd.Wait()
	result := &Result{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		ScriptPath: ec.ScriptPath,
	}

	switch {
	case err == nil:
		// Exit 0.
	case runCtx.Err() != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.ExitCode = ExitCodeKilled
		result.TimedOut = true
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = ExitCode(exitErr.ExitCode())
		} else {
			return nil, &issue.LaunchFailureError{Script: ec.ScriptPath, Cause: err}
		}
	}

	return result, nil
}
