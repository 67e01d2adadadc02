// SPDX-License-Identifier: MPL-2.0

// Package execute coordinates one script run: it resolves bare file
// names through the store, checks the script's declared column contract
// against the target CSV, selects a runtime, and executes. The web run
// endpoint and the CLI run command both go through this package.
package execute

import (
	"context"
	"time"

	"csvpilot/internal/runner"
	"csvpilot/internal/script"
	"csvpilot/internal/store"
)

type (
	// RunOptions names the run target and its per-run configuration.
	RunOptions struct {
		// Script is the bare script file name.
		Script store.FileName
		// CSV is the bare CSV file name. The file must exist.
		CSV store.FileName
		// Credentials is the per-run credential overlay.
		Credentials runner.Credentials
		// Timeout overrides the orchestrator's default budget when positive.
		Timeout time.Duration
	}

	// RunReport is the outcome returned to the caller: the captured
	// result plus the compatibility warnings computed before the run.
	RunReport struct {
		*runner.Result

		// Script and CSV echo the run target.
		Script string `json:"script"`
		CSV    string `json:"csv"`

		// MissingColumns lists declared required columns the CSV lacks.
		// A non-empty list is a warning, not a refusal: the script was
		// still run and may have handled the absence itself.
		MissingColumns []string `json:"missingColumns,omitempty"`
	}

	// Orchestrator wires the store, script index, and runtime registry
	// together for run requests.
	Orchestrator struct {
		store          *store.Store
		index          *script.Index
		registry       *runner.Registry
		defaultTimeout time.Duration
	}
)

// NewOrchestrator creates an Orchestrator. defaultTimeout bounds runs
// that do not carry their own budget; zero disables the default bound.
func NewOrchestrator(s *store.Store, idx *script.Index, reg *runner.Registry, defaultTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:          s,
		index:          idx,
		registry:       reg,
		defaultTimeout: defaultTimeout,
	}
}

// Run executes one script against one CSV file. Missing script or CSV
// surfaces as issue.ErrNotFound before any process is spawned; a script
// that exits nonzero is a valid RunReport, not an error.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	sc, err := o.index.Get(opts.Script)
	if err != nil {
		return nil, err
	}

	csvPath, err := o.store.CSVPath(opts.CSV)
	if err != nil {
		return nil, err
	}

	// Reading the CSV up front both enforces its existence before the
	// spawn and feeds the column compatibility check.
	csvData, err := o.store.ReadCSVFile(opts.CSV)
	if err != nil {
		return nil, err
	}

	var missing []string
	if doc, parseErr := store.ParseDocument(csvData); parseErr == nil {
		missing = sc.MissingColumns(doc)
	}

	rt, err := o.registry.ForScript(sc.Path)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = o.defaultTimeout
	}

	result, err := rt.ExecuteCapture(&runner.ExecutionContext{
		Context:     ctx,
		ScriptPath:  sc.Path,
		CSVPath:     csvPath,
		Credentials: opts.Credentials.Clone(),
		Timeout:     timeout,
		// Scripts import sibling helper modules relative to their own
		// directory, so that is the working directory.
		WorkDir: o.store.ScriptDir(),
	})
	if err != nil {
		return nil, err
	}

	return &RunReport{
		Result:         result,
		Script:         opts.Script.String(),
		CSV:            opts.CSV.String(),
		MissingColumns: missing,
	}, nil
}
