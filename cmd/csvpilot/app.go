// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"os"

	"csvpilot/internal/config"
	"csvpilot/internal/execute"
	"csvpilot/internal/ghfetch"
	"csvpilot/internal/issue"
	"csvpilot/internal/runner"
	"csvpilot/internal/script"
	"csvpilot/internal/store"
)

// App wires CLI services and shared dependencies. It is the composition
// root for the CLI layer: Cobra command handlers receive an App and
// delegate all business logic through it.
type App struct {
	Config       *config.Config
	Store        *store.Store
	Index        *script.Index
	Orchestrator *execute.Orchestrator
	Fetcher      *ghfetch.Fetcher
}

// buildApp loads configuration and constructs the service graph.
func buildApp(ctx context.Context) (*App, error) {
	cfg, err := config.NewProvider().Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return nil, err
	}

	// Apply verbose from config unless the flag already asked for it.
	if cfg.UI.Verbose {
		verbose = true
	}

	csvDir, err := cfg.ResolveCSVDir()
	if err != nil {
		return nil, issue.WrapWithOperation(err, "resolve CSV directory")
	}
	scriptsDir, err := cfg.ResolveScriptsDir()
	if err != nil {
		return nil, issue.WrapWithOperation(err, "resolve scripts directory")
	}

	s, err := store.New(csvDir, scriptsDir)
	if err != nil {
		return nil, err
	}

	idx := script.NewIndex(s)
	orch := execute.NewOrchestrator(s, idx, runner.NewRegistry(cfg.Interpreter), cfg.RunTimeout())

	clientOpts := []ghfetch.ClientOption{
		ghfetch.WithUserAgent("csvpilot/" + Version),
	}
	if cfg.Fetch.APIBaseURL != "" {
		clientOpts = append(clientOpts, ghfetch.WithBaseURL(cfg.Fetch.APIBaseURL))
	}
	// An ambient GITHUB_TOKEN raises the API rate limit; it is attached
	// only to requests that target GitHub hosts.
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		clientOpts = append(clientOpts, ghfetch.WithToken(token))
	}

	return &App{
		Config:       cfg,
		Store:        s,
		Index:        idx,
		Orchestrator: orch,
		Fetcher:      ghfetch.NewFetcher(ghfetch.NewClient(clientOpts...), s),
	}, nil
}
