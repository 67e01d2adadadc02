// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"maps"

	"csvpilot/internal/issue"
)

// Recognized credential environment variable names. These are the only
// names a caller may override for a run; everything else in the child
// environment is inherited from the parent as-is.
const (
	// EnvECMAPIID and EnvECMAPIKey are the NCM v2 API id/key pair.
	EnvECMAPIID  = "X_ECM_API_ID"
	EnvECMAPIKey = "X_ECM_API_KEY"
	// EnvCPAPIID and EnvCPAPIKey are the Cradlepoint API id/key pair.
	EnvCPAPIID  = "X_CP_API_ID"
	EnvCPAPIKey = "X_CP_API_KEY"
	// EnvToken and EnvNCMAPIToken are two accepted names for the same
	// NCM v3 bearer token.
	EnvToken       = "TOKEN"
	EnvNCMAPIToken = "NCM_API_TOKEN"
)

// recognizedCredentialVars is the allowlist checked by Credentials.IsValid.
var recognizedCredentialVars = map[string]struct{}{
	EnvECMAPIID:    {},
	EnvECMAPIKey:   {},
	EnvCPAPIID:     {},
	EnvCPAPIKey:    {},
	EnvToken:       {},
	EnvNCMAPIToken: {},
}

// Credentials is a per-run credential overlay: variable name to value.
// Only entries actually present are applied; absent recognized names
// retain whatever the parent environment holds, or stay unset.
type Credentials map[string]string

// RecognizedCredentialVars returns the allowlisted variable names in a
// fixed order suitable for display.
func RecognizedCredentialVars() []string {
	return []string{EnvECMAPIID, EnvECMAPIKey, EnvCPAPIID, EnvCPAPIKey, EnvToken, EnvNCMAPIToken}
}

// IsRecognizedCredentialVar reports whether name is on the allowlist.
func IsRecognizedCredentialVar(name string) bool {
	_, ok := recognizedCredentialVars[name]
	return ok
}

// IsValid returns whether every overlay key is a recognized credential
// variable, and a list of validation errors if not.
func (c Credentials) IsValid() (bool, []error) {
	var errs []error
	for name := range c {
		if !IsRecognizedCredentialVar(name) {
			errs = append(errs, &issue.InvalidInputError{
				Field:  "credential",
				Reason: "unrecognized variable " + name,
			})
		}
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// Clone returns an independent copy of the overlay so callers can hold
// onto request payloads without sharing state between runs.
func (c Credentials) Clone() Credentials {
	if c == nil {
		return nil
	}
	out := make(Credentials, len(c))
	maps.Copy(out, c)
	return out
}
