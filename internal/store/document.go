// SPDX-License-Identifier: MPL-2.0

package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// Document is the in-memory form of one CSV file: an ordered header plus
// ordered data rows. No schema is enforced beyond what a script chooses
// to require.
type Document struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ParseDocument decodes CSV bytes into a Document. The first record is
// the header. Ragged records are accepted: rows shorter than the header
// are padded with empty cells, longer rows are kept intact. An empty
// input yields an empty Document.
func ParseDocument(data []byte) (*Document, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(records) == 0 {
		return &Document{}, nil
	}

	doc := &Document{Columns: records[0]}
	for _, record := range records[1:] {
		for len(record) < len(doc.Columns) {
			record = append(record, "")
		}
		doc.Rows = append(doc.Rows, record)
	}
	return doc, nil
}

// Encode serializes the Document back to CSV bytes. A Document with no
// columns and no rows encodes to empty output.
func (d *Document) Encode() ([]byte, error) {
	if len(d.Columns) == 0 && len(d.Rows) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(d.Columns); err != nil {
		return nil, fmt.Errorf("encoding CSV header: %w", err)
	}
	for i, row := range d.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("encoding CSV row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("encoding CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ColumnIndex returns the index of the named column, matching
// case-insensitively with surrounding whitespace ignored, the same way
// the scripts themselves read CSV headers. Returns -1 when absent.
func (d *Document) ColumnIndex(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, col := range d.Columns {
		if strings.ToLower(strings.TrimSpace(col)) == want {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists (case-insensitive).
func (d *Document) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}
