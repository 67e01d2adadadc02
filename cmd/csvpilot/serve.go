// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"csvpilot/internal/issue"
	"csvpilot/internal/webserver"

	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the local web UI",
		Long: `Start the local web server and print the URL to open in a browser.

The web UI lists the managed CSV files and scripts, opens CSVs in an
editable table, edits script sources, downloads scripts from GitHub,
and runs a chosen script against a chosen CSV file with per-run API
credentials. The server binds to the loopback interface by default.

Examples:
  csvpilot serve
  csvpilot serve --port 9000
  csvpilot serve --host 0.0.0.0 --port 8773`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return wrapForExit(cmd, err)
			}
			defer app.Index.Close()

			if err := app.Index.Watch(); err != nil {
				// Watching is best effort; the index still reloads on demand.
				fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+"script change watching unavailable: "+err.Error())
			}

			host := app.Config.Listen.Host
			port := app.Config.Listen.Port
			if cmd.Flags().Changed("host") {
				host = serveHost
			}
			if cmd.Flags().Changed("port") {
				port = servePort
			}

			handler := webserver.NewHandler(app.Store, app.Index, app.Orchestrator, app.Fetcher)
			server := webserver.New(webserver.Config{Host: host, Port: port}, handler)

			if err := server.Start(cmd.Context()); err != nil {
				return wrapForExit(cmd, issue.WrapWithOperation(err, "start web server"))
			}

			fmt.Println(SuccessStyle.Render("csvpilot is running"))
			fmt.Println("  " + FileStyle.Render(server.URL()))
			fmt.Println(SubtitleStyle.Render("  CSV dir:     ") + app.Store.CSVDir())
			fmt.Println(SubtitleStyle.Render("  Scripts dir: ") + app.Store.ScriptDir())
			fmt.Println()
			fmt.Println(VerboseStyle.Render("Press Ctrl+C to stop."))

			select {
			case <-cmd.Context().Done():
			case err := <-server.Err():
				if err != nil {
					return wrapForExit(cmd, err)
				}
				return nil
			}

			if err := server.Stop(); err != nil {
				return wrapForExit(cmd, issue.WrapWithOperation(err, "stop web server"))
			}
			return nil
		},
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "address to bind (default from config, 127.0.0.1)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default from config)")
}
