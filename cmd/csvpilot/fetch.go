// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download scripts from a GitHub repository",
	Long: `Download Python and shell scripts from a GitHub repository or folder
into the managed scripts directory. Non-script files are skipped.

Set GITHUB_TOKEN to raise the API rate limit or to reach private
repositories.

Examples:
  csvpilot fetch cradlepoint/api-samples
  csvpilot fetch https://github.com/cradlepoint/api-samples/tree/master/ncm
  csvpilot fetch https://github.com/cradlepoint/api-samples/blob/master/ncm/reboot_device.py`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd.Context())
		if err != nil {
			return wrapForExit(cmd, err)
		}
		defer app.Index.Close()

		saved, err := app.Fetcher.FetchScripts(cmd.Context(), args[0])
		if err != nil {
			return wrapForExit(cmd, err)
		}
		app.Index.Invalidate()

		fmt.Println(SuccessStyle.Render(fmt.Sprintf("Saved %d script(s) to ", len(saved))) + FileStyle.Render(app.Store.ScriptDir()))
		for _, name := range saved {
			fmt.Println("  " + FileStyle.Render(name))
		}
		return nil
	},
}
