// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"path/filepath"
	"strings"

	"csvpilot/internal/issue"
)

// Registry maps script file extensions to runtimes.
type Registry struct {
	python *PythonRuntime
	shell  *ShellRuntime
}

// NewRegistry creates a Registry. The interpreter argument configures
// the Python runtime and may be empty for the default lookup.
func NewRegistry(interpreter string) *Registry {
	return &Registry{
		python: NewPythonRuntime(interpreter),
		shell:  NewShellRuntime(),
	}
}

// ForScript selects the runtime for a script path by extension.
func (r *Registry) ForScript(path string) (Runtime, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return r.python, nil
	case ".sh":
		return r.shell, nil
	default:
		return nil, &issue.InvalidInputError{
			Field:  "script",
			Reason: "no runtime for extension " + filepath.Ext(path),
		}
	}
}
