// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"csvpilot/internal/store"

	"github.com/spf13/cobra"
)

var (
	csvCmd = &cobra.Command{
		Use:   "csv",
		Short: "Manage CSV files",
		Long: `Manage the CSV files in the managed CSV directory.

Examples:
  csvpilot csv list
  csvpilot csv show devices.csv
  csvpilot csv rm old-devices.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	csvListCmd = &cobra.Command{
		Use:   "list",
		Short: "List managed CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return wrapForExit(cmd, err)
			}
			defer app.Index.Close()

			files, err := app.Store.ListCSVFiles()
			if err != nil {
				return wrapForExit(cmd, err)
			}
			if len(files) == 0 {
				fmt.Println(SubtitleStyle.Render("No CSV files in ") + FileStyle.Render(app.Store.CSVDir()))
				return nil
			}
			fmt.Println(TitleStyle.Render("CSV files") + SubtitleStyle.Render(" in "+app.Store.CSVDir()))
			for _, f := range files {
				fmt.Printf("  %s  %s\n", FileStyle.Render(f.Name), VerboseStyle.Render(formatSize(f.Size)))
			}
			return nil
		},
	}

	csvShowCmd = &cobra.Command{
		Use:   "show <name>",
		Short: "Print a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return wrapForExit(cmd, err)
			}
			defer app.Index.Close()

			data, err := app.Store.ReadCSVFile(store.FileName(args[0]))
			if err != nil {
				return wrapForExit(cmd, err)
			}
			os.Stdout.Write(data)
			return nil
		},
	}

	csvRmCmd = &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return wrapForExit(cmd, err)
			}
			defer app.Index.Close()

			if err := app.Store.DeleteCSVFile(store.FileName(args[0])); err != nil {
				return wrapForExit(cmd, err)
			}
			fmt.Println(SuccessStyle.Render("Deleted ") + FileStyle.Render(args[0]))
			return nil
		},
	}
)

func init() {
	csvCmd.AddCommand(csvListCmd)
	csvCmd.AddCommand(csvShowCmd)
	csvCmd.AddCommand(csvRmCmd)
}

// wrapForExit prints err for the user and converts it into an ExitError
// so Execute maps it onto the process exit code. The command is silenced
// so Cobra does not print the error a second time.
func wrapForExit(cmd *cobra.Command, err error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
	return &ExitError{Code: 1, Err: err}
}

// formatSize renders a byte count for listings.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
