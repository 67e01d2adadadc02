// SPDX-License-Identifier: MPL-2.0

// Package script models the runnable scripts csvpilot manages: their
// human-readable description and their declared CSV column requirements.
//
// Column requirements come from a fixed metadata schema embedded in a
// structured comment block near the top of the script, parsed once per
// file. The freeform docstring is used only as the description. This
// keeps compatibility checking deterministic instead of scraping prose.
package script
