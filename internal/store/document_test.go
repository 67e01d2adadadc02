// SPDX-License-Identifier: MPL-2.0

package store_test

import (
	"testing"

	"csvpilot/internal/store"
)

func TestParseDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantCols []string
		wantRows [][]string
	}{
		{
			name:     "simple",
			input:    "router_id,ncx_network_id\n12345,abcd\n67890,abcd\n",
			wantCols: []string{"router_id", "ncx_network_id"},
			wantRows: [][]string{{"12345", "abcd"}, {"67890", "abcd"}},
		},
		{
			name:     "short row padded",
			input:    "a,b,c\n1,2\n",
			wantCols: []string{"a", "b", "c"},
			wantRows: [][]string{{"1", "2", ""}},
		},
		{
			name:     "long row preserved",
			input:    "a,b\n1,2,3\n",
			wantCols: []string{"a", "b"},
			wantRows: [][]string{{"1", "2", "3"}},
		},
		{
			name:     "header only",
			input:    "a,b\n",
			wantCols: []string{"a", "b"},
			wantRows: nil,
		},
		{
			name:     "empty input",
			input:    "",
			wantCols: nil,
			wantRows: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := store.ParseDocument([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseDocument() failed: %v", err)
			}
			if len(doc.Columns) != len(tt.wantCols) {
				t.Fatalf("Columns = %v, want %v", doc.Columns, tt.wantCols)
			}
			for i, col := range tt.wantCols {
				if doc.Columns[i] != col {
					t.Errorf("Columns[%d] = %q, want %q", i, doc.Columns[i], col)
				}
			}
			if len(doc.Rows) != len(tt.wantRows) {
				t.Fatalf("Rows = %v, want %v", doc.Rows, tt.wantRows)
			}
			for i, row := range tt.wantRows {
				for j, cell := range row {
					if doc.Rows[i][j] != cell {
						t.Errorf("Rows[%d][%d] = %q, want %q", i, j, doc.Rows[i][j], cell)
					}
				}
			}
		})
	}
}

func TestDocumentEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	doc := &store.Document{
		Columns: []string{"group_name", "ncx_network_id"},
		Rows:    [][]string{{"My Group", "abcd-efgh"}, {"with,comma", "x"}},
	}

	encoded, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	parsed, err := store.ParseDocument(encoded)
	if err != nil {
		t.Fatalf("ParseDocument(encoded) failed: %v", err)
	}
	if parsed.Columns[0] != "group_name" || parsed.Rows[1][0] != "with,comma" {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
}

func TestDocumentEncodeEmpty(t *testing.T) {
	t.Parallel()

	data, err := (&store.Document{}).Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Encode(empty) = %q, want empty output", data)
	}
}

func TestColumnIndexIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	doc := &store.Document{Columns: []string{"Router ID", " ncx_network_id "}}

	if got := doc.ColumnIndex("router id"); got != 0 {
		t.Errorf("ColumnIndex(router id) = %d, want 0", got)
	}
	if got := doc.ColumnIndex("NCX_NETWORK_ID"); got != 1 {
		t.Errorf("ColumnIndex(NCX_NETWORK_ID) = %d, want 1", got)
	}
	if doc.HasColumn("site_name") {
		t.Error("HasColumn(site_name) = true, want false")
	}
}
