// SPDX-License-Identifier: MPL-2.0

package script

import (
	"strings"

	"csvpilot/internal/store"
)

// Script is one runnable script file plus its parsed header. Scripts have
// no identity beyond their path; create, edit, and delete are plain file
// operations on the scripts directory.
type Script struct {
	// Name is the bare file name inside the scripts directory.
	Name string `json:"name"`
	// Path is the absolute file path.
	Path string `json:"-"`
	// Description is the docstring- or comment-derived description.
	Description string `json:"description"`
	// Meta is the declared CSV column contract.
	Meta Metadata `json:"meta"`
	// Err records a malformed metadata block. A script with Err set is
	// still listed and runnable; it just declares no column contract.
	Err error `json:"-"`
}

// Parse builds a Script from its source bytes.
func Parse(name, path string, src []byte) (*Script, error) {
	meta, err := ParseMetadata(name, src)
	if err != nil {
		return nil, err
	}
	return &Script{
		Name:        name,
		Path:        path,
		Description: parseDescription(src),
		Meta:        meta,
	}, nil
}

// Summary returns the first non-empty line of the description.
func (s *Script) Summary() string {
	for _, line := range strings.Split(s.Description, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// MissingColumns reports which declared required columns the document
// lacks, in declaration order. Matching is case-insensitive, the same
// way the scripts read their CSV headers.
func (s *Script) MissingColumns(doc *store.Document) []string {
	var missing []string
	for _, col := range s.Meta.Required {
		if !doc.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}
