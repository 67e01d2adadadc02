// SPDX-License-Identifier: MPL-2.0

package issue_test

import (
	"errors"
	"strings"
	"testing"

	"csvpilot/internal/issue"
)

func TestActionableErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("permission denied")
	err := issue.NewErrorContext().
		WithOperation("write CSV file").
		WithResource("devices.csv").
		Wrap(cause).
		Build()

	want := "failed to write CSV file: devices.csv: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, cause) {
		t.Error("ActionableError should unwrap to its cause")
	}
}

func TestActionableErrorFormat(t *testing.T) {
	t.Parallel()

	err := issue.NewErrorContext().
		WithOperation("load configuration").
		WithSuggestion("Check the file syntax").
		WithSuggestion("Remove the file to use defaults").
		Wrap(errors.New("unexpected token")).
		Build()

	plain := err.Format(false)
	if !strings.Contains(plain, "• Check the file syntax") {
		t.Errorf("Format(false) missing suggestion:\n%s", plain)
	}
	if strings.Contains(plain, "Error chain:") {
		t.Errorf("Format(false) should not include the error chain:\n%s", plain)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") {
		t.Errorf("Format(true) missing error chain:\n%s", verbose)
	}
	if !strings.Contains(verbose, "1. unexpected token") {
		t.Errorf("Format(true) missing numbered cause:\n%s", verbose)
	}
}

func TestWrapWithOperation(t *testing.T) {
	t.Parallel()

	if got := issue.WrapWithOperation(nil, "anything"); got != nil {
		t.Errorf("WrapWithOperation(nil) = %v, want nil", got)
	}

	cause := &issue.NotFoundError{Resource: "a.csv"}
	err := issue.WrapWithOperation(cause, "read CSV file")
	if err == nil {
		t.Fatal("WrapWithOperation returned nil for non-nil cause")
	}
	// Kind classification must survive wrapping.
	if issue.KindOf(err) != issue.KindNotFound {
		t.Errorf("KindOf(wrapped) = %q, want %q", issue.KindOf(err), issue.KindNotFound)
	}
}
