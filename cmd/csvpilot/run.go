// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"csvpilot/internal/execute"
	"csvpilot/internal/issue"
	"csvpilot/internal/runner"
	"csvpilot/internal/store"

	"github.com/spf13/cobra"
)

var (
	runCreds          []string
	runTimeoutSeconds int

	runCmd = &cobra.Command{
		Use:   "run <script> <csv>",
		Short: "Run a script against a CSV file",
		Long: `Run a managed script against a managed CSV file.

The script receives the CSV file path as its first argument. Credentials
passed with --cred are applied to that run's environment only; they are
never written to disk and do not carry over to other runs.

Recognized credential variables:
  ` + strings.Join(runner.RecognizedCredentialVars(), ", ") + `

Examples:
  csvpilot run reboot.py devices.csv
  csvpilot run reboot.py devices.csv --cred X_ECM_API_ID=... --cred X_ECM_API_KEY=...
  csvpilot run speedtest.sh routers.csv --timeout 120`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return wrapForExit(cmd, err)
			}
			defer app.Index.Close()

			creds, err := parseCredFlags(runCreds)
			if err != nil {
				return wrapForExit(cmd, err)
			}

			report, err := app.Orchestrator.Run(cmd.Context(), execute.RunOptions{
				Script:      store.FileName(args[0]),
				CSV:         store.FileName(args[1]),
				Credentials: creds,
				Timeout:     time.Duration(runTimeoutSeconds) * time.Second,
			})
			if err != nil {
				return wrapForExit(cmd, err)
			}

			for _, col := range report.MissingColumns {
				fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+"CSV is missing required column "+FileStyle.Render(col))
			}

			if report.Stdout != "" {
				fmt.Print(report.Stdout)
				if !strings.HasSuffix(report.Stdout, "\n") {
					fmt.Println()
				}
			}
			if report.Stderr != "" {
				fmt.Fprint(os.Stderr, report.Stderr)
				if !strings.HasSuffix(report.Stderr, "\n") {
					fmt.Fprintln(os.Stderr)
				}
			}

			if report.TimedOut {
				fmt.Fprintln(os.Stderr, ErrorStyle.Render("Run timed out."))
			}
			if !report.ExitCode.IsSuccess() {
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				fmt.Fprintln(os.Stderr, ErrorStyle.Render("Exit code: "+report.ExitCode.String()))
				return &ExitError{Code: report.ExitCode, Err: report.Failure()}
			}
			if verbose {
				fmt.Fprintln(os.Stderr, SuccessStyle.Render("Run completed successfully."))
			}
			return nil
		},
	}
)

func init() {
	runCmd.Flags().StringArrayVar(&runCreds, "cred", nil, "credential as NAME=VALUE (repeatable)")
	runCmd.Flags().IntVar(&runTimeoutSeconds, "timeout", 0, "run timeout in seconds (default from config)")
}

// parseCredFlags turns repeated NAME=VALUE flags into a credential overlay.
func parseCredFlags(pairs []string) (runner.Credentials, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	creds := make(runner.Credentials, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, &issue.InvalidInputError{
				Field:  "cred",
				Reason: fmt.Sprintf("%q is not in NAME=VALUE form", pair),
			}
		}
		creds[name] = value
	}
	return creds, nil
}
