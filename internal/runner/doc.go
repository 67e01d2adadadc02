// SPDX-License-Identifier: MPL-2.0

// Package runner executes a script against a CSV file as an isolated
// process, capturing exit code, stdout, and stderr.
//
// Each execution builds its own child environment from the parent
// environment plus the caller-supplied credential overlay; the parent
// process environment is never mutated, so concurrent runs cannot leak
// credentials into each other. Runs are bounded by a timeout budget and
// are killed on context cancellation.
package runner
