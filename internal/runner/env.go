// SPDX-License-Identifier: MPL-2.0

package runner

import "strings"

// BuildEnv constructs a child-process environment: the base environment
// with the credential overlay applied. Overlay keys replace existing
// entries in place; keys absent from base are appended. The base slice
// is never modified, so every call yields a fresh environment and
// nothing leaks into the parent or into other runs.
func BuildEnv(base []string, creds Credentials) []string {
	env := make([]string, 0, len(base)+len(creds))
	applied := make(map[string]bool, len(creds))

	for _, entry := range base {
		key, _, ok := strings.Cut(entry, "=")
		if !ok {
			env = append(env, entry)
			continue
		}
		if value, overlay := creds[key]; overlay {
			env = append(env, key+"="+value)
			applied[key] = true
			continue
		}
		env = append(env, entry)
	}

	// Overlay keys the parent does not carry.
	for _, key := range RecognizedCredentialVars() {
		if value, ok := creds[key]; ok && !applied[key] {
			env = append(env, key+"="+value)
		}
	}

	return env
}
