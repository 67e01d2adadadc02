// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Config: {
	csv_dir?:     string
	interpreter?: string
	listen?: {
		host?: string
		port?: int & >=1 & <=65535
	}
}
`

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name: "valid config",
			data: `csv_dir: "/tmp/csv"
listen: port: 8080`,
		},
		{
			name: "empty file",
			data: "",
		},
		{
			name:    "wrong type",
			data:    `listen: port: "eighty"`,
			wantErr: "listen.port",
		},
		{
			name:    "out of range port",
			data:    `listen: port: 99999`,
			wantErr: "listen.port",
		},
		{
			name:    "unknown field",
			data:    `bogus_field: true`,
			wantErr: "bogus_field",
		},
		{
			name:    "syntax error",
			data:    `csv_dir: "unterminated`,
			wantErr: "config.cue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := Decode(testSchema, []byte(tt.data), "#Config", "config.cue")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Decode() failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Decode() = %v, want error containing %q", out, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Decode() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeValues(t *testing.T) {
	t.Parallel()

	out, err := Decode(testSchema, []byte(`csv_dir: "/data"`), "#Config", "config.cue")
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if out["csv_dir"] != "/data" {
		t.Errorf("csv_dir = %v, want /data", out["csv_dir"])
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "f.cue"); err != nil {
		t.Errorf("CheckFileSize(at limit) = %v, want nil", err)
	}
	if err := CheckFileSize(make([]byte, 11), 10, "f.cue"); err == nil {
		t.Error("CheckFileSize(over limit) = nil, want error")
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path []string
		want string
	}{
		{"empty", nil, ""},
		{"single", []string{"csv_dir"}, "csv_dir"},
		{"nested", []string{"listen", "port"}, "listen.port"},
		{"index", []string{"scripts", "0", "name"}, "scripts[0].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatPath(tt.path); got != tt.want {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
