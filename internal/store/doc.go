// SPDX-License-Identifier: MPL-2.0

// Package store provides file access for the two flat directories csvpilot
// manages: one holding CSV files and one holding runnable scripts.
//
// There is no index or metadata file; directory listings are the source of
// truth. File names are validated so that callers can only reach files
// directly inside the managed directories.
package store
