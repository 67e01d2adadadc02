// SPDX-License-Identifier: MPL-2.0

// csvpilot edits CSV files and runs scripts against them, locally,
// from the terminal or a browser.
package main

import "csvpilot/cmd/csvpilot"

func main() {
	cmd.Execute()
}
