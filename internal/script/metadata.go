// SPDX-License-Identifier: MPL-2.0

package script

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Metadata block delimiters. The block is a run of comment lines between
// an opening "# --- csvpilot" marker and a closing "# ---" marker, whose
// uncommented payload is TOML:
//
//	# --- csvpilot
//	# required = ["ncx_network_id"]
//	# optional = ["site_name"]
//	# ---
const (
	metadataOpenMarker  = "# --- csvpilot"
	metadataCloseMarker = "# ---"

	// metadataScanLimit bounds how far into a file the block is searched
	// for, so a large script without one is not scanned end to end.
	metadataScanLimit = 200
)

type (
	// Metadata is the declared contract between a script and the CSV
	// files it accepts.
	Metadata struct {
		// Required lists column names the CSV must contain.
		Required []string `toml:"required" json:"required"`
		// Optional lists column names the script reads when present.
		Optional []string `toml:"optional" json:"optional"`
	}

	// MetadataError is returned when a metadata block is present but
	// malformed. Scripts without a block yield empty Metadata, not an error.
	MetadataError struct {
		Script string
		Cause  error
	}
)

// Error implements the error interface.
func (e *MetadataError) Error() string {
	return fmt.Sprintf("invalid metadata block in %s: %v", e.Script, e.Cause)
}

// Unwrap returns the underlying parse error.
func (e *MetadataError) Unwrap() error { return e.Cause }

// ParseMetadata extracts and decodes the metadata block from script
// source. An absent block is not an error: it yields zero Metadata,
// meaning the script declares no column requirements.
func ParseMetadata(name string, src []byte) (Metadata, error) {
	block, found := extractMetadataBlock(src)
	if !found {
		return Metadata{}, nil
	}

	var meta Metadata
	if err := toml.Unmarshal([]byte(block), &meta); err != nil {
		return Metadata{}, &MetadataError{Script: name, Cause: err}
	}
	return meta, nil
}

// extractMetadataBlock returns the TOML payload between the block
// markers with the leading comment syntax stripped.
func extractMetadataBlock(src []byte) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(string(src)))

	var payload strings.Builder
	inBlock := false
	for line := 0; scanner.Scan() && line < metadataScanLimit; line++ {
		text := strings.TrimSpace(scanner.Text())

		if !inBlock {
			if text == metadataOpenMarker {
				inBlock = true
			}
			continue
		}
		if text == metadataCloseMarker {
			return payload.String(), true
		}
		// Inside the block every line must be a comment; strip "#" and
		// one optional following space.
		if !strings.HasPrefix(text, "#") {
			return "", false
		}
		payload.WriteString(strings.TrimPrefix(strings.TrimPrefix(text, "#"), " "))
		payload.WriteString("\n")
	}

	// Unterminated block is treated as absent.
	return "", false
}

// parseDescription extracts the human-readable description from script
// source. Python scripts use the leading module docstring; shell scripts
// use the leading comment run after the shebang. The metadata block is
// excluded either way.
func parseDescription(src []byte) string {
	text := string(src)

	if doc, ok := pythonDocstring(text); ok {
		return strings.TrimSpace(doc)
	}
	return strings.TrimSpace(leadingComments(text))
}

// pythonDocstring returns the first module-level triple-quoted string.
func pythonDocstring(text string) (string, bool) {
	rest := text
	// Skip shebang, encoding comments, and blank lines.
	for {
		line, tail, found := strings.Cut(rest, "\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if !found {
				return "", false
			}
			rest = tail
			continue
		}
		break
	}

	rest = strings.TrimLeft(rest, " \t\r\n")
	for _, quote := range []string{`"""`, "'''"} {
		if !strings.HasPrefix(rest, quote) {
			continue
		}
		body := rest[len(quote):]
		end := strings.Index(body, quote)
		if end < 0 {
			return "", false
		}
		return body[:end], true
	}
	return "", false
}

// leadingComments collects the first run of "#" comment lines, skipping
// the shebang and any metadata block lines.
func leadingComments(text string) string {
	var out strings.Builder
	inMeta := false

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "#!"):
			continue
		case line == metadataOpenMarker:
			inMeta = true
			continue
		case inMeta && line == metadataCloseMarker:
			inMeta = false
			continue
		case inMeta:
			continue
		case strings.HasPrefix(line, "#"):
			out.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "#"), " "))
			out.WriteString("\n")
		case line == "":
			if out.Len() > 0 {
				return out.String()
			}
		default:
			return out.String()
		}
	}
	return out.String()
}
