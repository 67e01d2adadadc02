// SPDX-License-Identifier: MPL-2.0

// Package issue provides error types shared across csvpilot.
//
// It carries two things: the failure taxonomy used at the service
// boundary (not found, launch failure, script failure, I/O failure)
// and the ActionableError type used to attach operation context and
// fix-it suggestions to user-facing errors.
package issue
