// SPDX-License-Identifier: MPL-2.0

package ghfetch

import (
	"net/url"
	"strings"

	"csvpilot/internal/issue"
)

// Target identifies a repository path to fetch scripts from.
type Target struct {
	Owner string
	Repo  string
	// Ref is the branch, tag, or commit. Empty means the default branch.
	Ref string
	// Path inside the repository. Empty means the repository root.
	Path string
}

// ParseURL turns a pasted GitHub URL into a Target. Supported forms:
//
//	https://github.com/{owner}/{repo}
//	https://github.com/{owner}/{repo}/blob/{ref}/{path}   (single file)
//	https://github.com/{owner}/{repo}/tree/{ref}/{path}   (folder)
//	https://raw.githubusercontent.com/{owner}/{repo}/{ref}/{path}
//	{owner}/{repo}                                        (shorthand)
func ParseURL(rawURL string) (Target, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return Target{}, &issue.InvalidInputError{Field: "url", Reason: "empty"}
	}

	// Bare owner/repo shorthand, no scheme.
	if !strings.Contains(trimmed, "://") {
		parts := splitPath(trimmed)
		if len(parts) == 2 {
			return Target{Owner: parts[0], Repo: parts[1]}, nil
		}
		return Target{}, &issue.InvalidInputError{Field: "url", Reason: "expected owner/repo or a GitHub URL"}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return Target{}, &issue.InvalidInputError{Field: "url", Reason: "not a valid URL: " + err.Error()}
	}

	parts := splitPath(u.Path)

	if strings.EqualFold(u.Host, "raw.githubusercontent.com") {
		// /{owner}/{repo}/{ref}/{path...}
		if len(parts) < 4 {
			return Target{}, &issue.InvalidInputError{Field: "url", Reason: "raw URL is missing the file path"}
		}
		return Target{
			Owner: parts[0],
			Repo:  parts[1],
			Ref:   parts[2],
			Path:  strings.Join(parts[3:], "/"),
		}, nil
	}

	// Everything else is treated as a github.com-style browser URL,
	// which also covers GitHub Enterprise hosts.
	switch {
	case len(parts) == 2:
		return Target{Owner: parts[0], Repo: parts[1]}, nil
	case len(parts) >= 4 && (parts[2] == "blob" || parts[2] == "tree"):
		return Target{
			Owner: parts[0],
			Repo:  parts[1],
			Ref:   parts[3],
			Path:  strings.Join(parts[4:], "/"),
		}, nil
	default:
		return Target{}, &issue.InvalidInputError{
			Field:  "url",
			Reason: "expected a repository, blob, or tree URL",
		}
	}
}

func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
