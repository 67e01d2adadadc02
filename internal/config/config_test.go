// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	// No config file present: defaults apply.
	dir := t.TempDir()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Interpreter != DefaultInterpreter {
		t.Errorf("Interpreter = %q, want %q", cfg.Interpreter, DefaultInterpreter)
	}
	if cfg.Listen.Host != DefaultHost || cfg.Listen.Port != DefaultPort {
		t.Errorf("Listen = %+v, want %s:%d", cfg.Listen, DefaultHost, DefaultPort)
	}
	if cfg.RunTimeoutSeconds != DefaultRunTimeoutSeconds {
		t.Errorf("RunTimeoutSeconds = %d, want %d", cfg.RunTimeoutSeconds, DefaultRunTimeoutSeconds)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("ColorScheme = %q, want auto", cfg.UI.ColorScheme)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
csv_dir:     "/srv/data/csv"
interpreter: "/usr/bin/python3.12"
run_timeout: 120
listen: port: 9000
ui: verbose: true
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.CSVDir != "/srv/data/csv" {
		t.Errorf("CSVDir = %q", cfg.CSVDir)
	}
	if cfg.Interpreter != "/usr/bin/python3.12" {
		t.Errorf("Interpreter = %q", cfg.Interpreter)
	}
	if cfg.RunTimeoutSeconds != 120 {
		t.Errorf("RunTimeoutSeconds = %d, want 120", cfg.RunTimeoutSeconds)
	}
	if cfg.Listen.Port != 9000 {
		t.Errorf("Listen.Port = %d, want 9000", cfg.Listen.Port)
	}
	// Fields the file does not set keep their defaults.
	if cfg.Listen.Host != DefaultHost {
		t.Errorf("Listen.Host = %q, want default %q", cfg.Listen.Host, DefaultHost)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
}

func TestLoadExplicitFilePath(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `listen: port: 9100`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Listen.Port != 9100 {
		t.Errorf("Listen.Port = %d, want 9100", cfg.Listen.Port)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Fatal("Load() with missing explicit file = nil, want error")
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: `bogus: true`,
			wantErr: "bogus",
		},
		{
			name:    "port out of range",
			content: `listen: port: 70000`,
			wantErr: "listen.port",
		},
		{
			name:    "wrong type",
			content: `run_timeout: "fast"`,
			wantErr: "run_timeout",
		},
		{
			name:    "syntax error",
			content: `csv_dir: "unterminated`,
			wantErr: "config.cue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfigFile(t, dir, tt.content)

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("Load() = nil error, want schema violation")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if err == nil {
		t.Fatal("Load() with canceled context = nil, want error")
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.CSVDir = "/srv/data/csv"
	cfg.Listen.Port = 9200
	writeConfigFile(t, dir, GenerateCUE(cfg))

	loaded, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() of generated config failed: %v", err)
	}
	if loaded.CSVDir != cfg.CSVDir || loaded.Listen.Port != cfg.Listen.Port {
		t.Errorf("round trip mismatch: got %+v", loaded)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() failed: %v", err)
	}

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	// A second call must not clobber the existing file.
	if err := os.WriteFile(path, []byte(`listen: port: 9300`), 0o644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() second call failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.Contains(string(data), "9300") {
		t.Error("CreateDefaultConfig() overwrote an existing config file")
	}
}
