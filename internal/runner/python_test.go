// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"csvpilot/internal/issue"
)

// requirePython skips tests that need a real interpreter on hosts
// without one.
func requirePython(t *testing.T) *PythonRuntime {
	t.Helper()
	rt := NewPythonRuntime("")
	if !rt.Available() {
		t.Skip("no python interpreter on PATH")
	}
	return rt
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestPythonExecuteCaptureSuccess(t *testing.T) {
	t.Parallel()
	rt := requirePython(t)
	dir := t.TempDir()

	script := writeTestFile(t, dir, "echo_test.py", "print(\"hello\")\n")
	csv := writeTestFile(t, dir, "a.csv", "col\nval\n")

	result, err := rt.ExecuteCapture(&ExecutionContext{
		Context:    context.Background(),
		ScriptPath: script,
		CSVPath:    csv,
	})
	if err != nil {
		t.Fatalf("ExecuteCapture() failed: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0 (stderr: %s)", result.ExitCode, result.Stderr)
	}
	if result.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want %q", result.Stdout, "hello\n")
	}
	if result.Stderr != "" {
		t.Errorf("Stderr = %q, want empty", result.Stderr)
	}
	if result.Failure() != nil {
		t.Errorf("Failure() = %v, want nil", result.Failure())
	}
}

func TestPythonScriptReceivesCSVPathArgument(t *testing.T) {
	t.Parallel()
	rt := requirePython(t)
	dir := t.TempDir()

	script := writeTestFile(t, dir, "argv.py", "import sys\nprint(sys.argv[1])\n")
	csv := writeTestFile(t, dir, "data.csv", "x\n")

	result, err := rt.ExecuteCapture(&ExecutionContext{
		Context:    context.Background(),
		ScriptPath: script,
		CSVPath:    csv,
	})
	if err != nil {
		t.Fatalf("ExecuteCapture() failed: %v", err)
	}
	if result.Stdout != csv+"\n" {
		t.Errorf("Stdout = %q, want CSV path %q", result.Stdout, csv)
	}
}

func TestPythonUnhandledFaultIsScriptFailure(t *testing.T) {
	t.Parallel()
	rt := requirePython(t)
	dir := t.TempDir()

	script := writeTestFile(t, dir, "boom.py", "raise RuntimeError(\"kaput\")\n")
	csv := writeTestFile(t, dir, "a.csv", "col\n")

	result, err := rt.ExecuteCapture(&ExecutionContext{
		Context:    context.Background(),
		ScriptPath: script,
		CSVPath:    csv,
	})
	if err != nil {
		t.Fatalf("an unhandled fault must not be a runner error, got: %v", err)
	}
	if result.ExitCode == 0 {
		t.Error("ExitCode = 0, want nonzero")
	}
	if result.Stderr == "" {
		t.Error("Stderr should carry the fault text")
	}

	failure := result.Failure()
	if !errors.Is(failure, issue.ErrScriptFailure) {
		t.Errorf("Failure() = %v, want ErrScriptFailure", failure)
	}
	if errors.Is(failure, issue.ErrLaunchFailure) {
		t.Error("a script fault must not classify as a launch failure")
	}
}

func TestPythonCredentialOverlayReachesChild(t *testing.T) {
	t.Parallel()
	rt := requirePython(t)
	dir := t.TempDir()

	script := writeTestFile(t, dir, "env.py",
		"import os\nprint(os.environ.get(\"X_ECM_API_ID\", \"<unset>\"))\nprint(os.environ.get(\"TOKEN\", \"<unset>\"))\n")
	csv := writeTestFile(t, dir, "a.csv", "col\n")

	result, err := rt.ExecuteCapture(&ExecutionContext{
		Context:     context.Background(),
		ScriptPath:  script,
		CSVPath:     csv,
		Credentials: Credentials{EnvECMAPIID: "abc123"},
		Environ:     func() []string { return []string{"PATH=" + os.Getenv("PATH")} },
	})
	if err != nil {
		t.Fatalf("ExecuteCapture() failed: %v", err)
	}
	if result.Stdout != "abc123\n<unset>\n" {
		t.Errorf("Stdout = %q, want supplied key set and unsupplied key unset", result.Stdout)
	}
}

func TestPythonNotFoundBeforeSpawn(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	csv := writeTestFile(t, dir, "a.csv", "col\n")

	// Interpreter deliberately bogus: preflight must reject the missing
	// script before any interpreter resolution or spawn is attempted.
	rt := NewPythonRuntime("definitely-not-an-interpreter")

	_, err := rt.ExecuteCapture(&ExecutionContext{
		Context:    context.Background(),
		ScriptPath: filepath.Join(dir, "missing.py"),
		CSVPath:    csv,
	})
	if !errors.Is(err, issue.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestPythonMissingCSVIsNotFound(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := writeTestFile(t, dir, "ok.py", "print('x')\n")

	rt := NewPythonRuntime("definitely-not-an-interpreter")

	_, err := rt.ExecuteCapture(&ExecutionContext{
		Context:    context.Background(),
		ScriptPath: script,
		CSVPath:    filepath.Join(dir, "missing.csv"),
	})
	if !errors.Is(err, issue.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestPythonMissingInterpreterIsLaunchFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := writeTestFile(t, dir, "ok.py", "print('x')\n")
	csv := writeTestFile(t, dir, "a.csv", "col\n")

	rt := NewPythonRuntime("definitely-not-an-interpreter")

	_, err := rt.ExecuteCapture(&ExecutionContext{
		Context:    context.Background(),
		ScriptPath: script,
		CSVPath:    csv,
	})
	if !errors.Is(err, issue.ErrLaunchFailure) {
		t.Errorf("error = %v, want ErrLaunchFailure", err)
	}
}

func TestPythonTimeoutKillsRun(t *testing.T) {
	t.Parallel()
	rt := requirePython(t)
	dir := t.TempDir()

	script := writeTestFile(t, dir, "sleep.py", "import time\ntime.sleep(30)\n")
	csv := writeTestFile(t, dir, "a.csv", "col\n")

	start := time.Now()
	result, err := rt.ExecuteCapture(&ExecutionContext{
		Context:    context.Background(),
		ScriptPath: script,
		CSVPath:    csv,
		Timeout:    200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("ExecuteCapture() failed: %v", err)
	}
	if !result.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if result.ExitCode != ExitCodeKilled {
		t.Errorf("ExitCode = %d, want %d for a killed run", result.ExitCode, ExitCodeKilled)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("run took %v, timeout budget was not enforced", elapsed)
	}
}
