// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for csvpilot.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"csvpilot/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "csvpilot",
		Short: "Edit CSV files and run scripts against them",
		Long: TitleStyle.Render("csvpilot") + SubtitleStyle.Render(" - Edit CSV files and run scripts against them") + `

csvpilot manages a folder of CSV files and a folder of Python and shell
scripts, and runs a chosen script against a chosen CSV file with API
credentials supplied per run. The 'serve' command opens the same
workflow in a browser.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'csvpilot serve' and open the printed URL
  2. Or work from the terminal:

` + SubtitleStyle.Render("Examples:") + `
  csvpilot serve                          Start the local web UI
  csvpilot csv list                       List managed CSV files
  csvpilot scripts list                   List managed scripts
  csvpilot fetch cradlepoint/api-samples  Download scripts from GitHub
  csvpilot run reboot.py devices.csv      Run a script against a CSV`,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/csvpilot/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(csvCmd)
	rootCmd.AddCommand(scriptsCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
