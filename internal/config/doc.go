// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/csvpilot/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/csvpilot/config.cue on macOS, %APPDATA%\csvpilot\config.cue
// on Windows). Settings cover the managed CSV and script directories, the Python
// interpreter, the HTTP listen address, and run timeouts.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
