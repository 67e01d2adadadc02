// SPDX-License-Identifier: MPL-2.0

// Package webserver provides the local HTTP server behind the browser UI.
// It exposes a JSON API over the managed CSV and script directories and a
// run endpoint that executes a script against a CSV file. The server binds
// to loopback by default; it fronts local files and spawns local processes,
// so exposing it beyond the local machine is an explicit opt-in.
package webserver
