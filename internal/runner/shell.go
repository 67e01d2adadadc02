// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"csvpilot/internal/issue"
)

// ShellRuntime executes *.sh scripts in-process with the embedded
// mvdan/sh interpreter. It honors the same contract as the subprocess
// runtimes: fresh environment per run, captured output, timeout budget.
type ShellRuntime struct{}

// NewShellRuntime creates a new shell runtime.
func NewShellRuntime() *ShellRuntime {
	return &ShellRuntime{}
}

// Name returns the runtime name.
func (r *ShellRuntime) Name() string { return "shell" }

// Available returns whether this runtime is available.
// The interpreter is built in, so it always is.
func (r *ShellRuntime) Available() bool { return true }

// ExecuteCapture runs the script and captures stdout/stderr in full.
// The CSV path is exposed to the script as $1.
func (r *ShellRuntime) ExecuteCapture(ec *ExecutionContext) (*Result, error) {
	if err := ec.preflight(); err != nil {
		return nil, err
	}

	src, err := os.ReadFile(ec.ScriptPath)
	if err != nil {
		return nil, &issue.IOFailureError{Op: "read", Path: ec.ScriptPath, Cause: err}
	}

	prog, err := syntax.NewParser().Parse(bytes.NewReader(src), filepath.Base(ec.ScriptPath))
	if err != nil {
		// A script the interpreter cannot parse is the in-process
		// equivalent of an unstartable subprocess.
		return nil, &issue.LaunchFailureError{Script: ec.ScriptPath, Cause: err}
	}

	var stdout, stderr bytes.Buffer
	env := BuildEnv(ec.baseEnviron(), ec.Credentials)

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, &stdout, &stderr),
		// "--" stops the CSV path from being read as an interpreter option.
		interp.Params("--", ec.CSVPath),
	}
	if ec.WorkDir != "" {
		opts = append(opts, interp.Dir(ec.WorkDir))
	}

	sh, err := interp.New(opts...)
	if err != nil {
		return nil, &issue.LaunchFailureError{Script: ec.ScriptPath, Cause: err}
	}

	runCtx, cancel := ec.runContext()
	defer cancel()

	runErr := sh.Run(runCtx, prog)
	result := &Result{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		ScriptPath: ec.ScriptPath,
	}

	switch {
	case runErr == nil:
		// Exit 0.
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.ExitCode = ExitCodeKilled
		result.TimedOut = true
	default:
		var exitStatus interp.ExitStatus
		if errors.As(runErr, &exitStatus) {
			result.ExitCode = ExitCode(exitStatus)
		} else {
			return nil, &issue.LaunchFailureError{Script: ec.ScriptPath, Cause: runErr}
		}
	}

	return result, nil
}
