// SPDX-License-Identifier: MPL-2.0

package webserver

import (
	"csvpilot/internal/runner"
	"csvpilot/internal/store"
)

type (
	// ErrorResponse is the JSON body of every non-2xx API response.
	ErrorResponse struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}

	// ListResponse is the body of the CSV and script listing endpoints.
	ListResponse struct {
		Files []store.FileInfo `json:"files"`
	}

	// ScriptSummary describes one managed script in a listing.
	ScriptSummary struct {
		Name        string   `json:"name"`
		Description string   `json:"description,omitempty"`
		Required    []string `json:"required,omitempty"`
		Optional    []string `json:"optional,omitempty"`
		// ParseError is set when the script's metadata block is
		// malformed. The script is still listed and still runnable.
		ParseError string `json:"parseError,omitempty"`
	}

	// ScriptListResponse is the body of GET /api/scripts.
	ScriptListResponse struct {
		Scripts []ScriptSummary `json:"scripts"`
	}

	// ScriptResponse is the body of GET /api/scripts/{name}.
	ScriptResponse struct {
		ScriptSummary
		Source string `json:"source"`
	}

	// RunRequest is the body of POST /api/run. Credentials apply to this
	// run only; they are never persisted and never leak into later runs.
	RunRequest struct {
		Script         string             `json:"script"`
		CSV            string             `json:"csv"`
		Credentials    runner.Credentials `json:"credentials,omitempty"`
		TimeoutSeconds int                `json:"timeoutSeconds,omitempty"`
	}

	// RunResponse is the body of a completed run. A nonzero ExitCode is
	// still a completed run: the script was launched and finished.
	RunResponse struct {
		Script         string   `json:"script"`
		CSV            string   `json:"csv"`
		ExitCode       int      `json:"exitCode"`
		Stdout         string   `json:"stdout"`
		Stderr         string   `json:"stderr"`
		TimedOut       bool     `json:"timedOut,omitempty"`
		MissingColumns []string `json:"missingColumns,omitempty"`
	}

	// FetchRequest is the body of POST /api/fetch.
	FetchRequest struct {
		URL string `json:"url"`
	}

	// FetchResponse lists the script files saved by a fetch.
	FetchResponse struct {
		Saved []string `json:"saved"`
	}
)
