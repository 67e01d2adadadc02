// SPDX-License-Identifier: MPL-2.0

package webserver

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"csvpilot/internal/execute"
	"csvpilot/internal/runner"
	"csvpilot/internal/script"
	"csvpilot/internal/store"
)

func newTestHandler(t *testing.T) (*store.Store, *Handler) {
	t.Helper()
	base := t.TempDir()
	s, err := store.New(filepath.Join(base, "csv"), filepath.Join(base, "scripts"))
	if err != nil {
		t.Fatalf("store.New() failed: %v", err)
	}
	idx := script.NewIndex(s)
	orch := execute.NewOrchestrator(s, idx, runner.NewRegistry(""), 0)
	return s, NewHandler(s, idx, orch, nil)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	_, h := newTestHandler(t)
	return New(DefaultConfig(), h)
}

func TestServerStartStop(t *testing.T) {
	server := newTestServer(t)

	if server.State() != StateCreated {
		t.Errorf("State should be Created, got %s", server.State())
	}
	if server.IsRunning() {
		t.Error("Server should not be running before Start()")
	}

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	if server.State() != StateRunning {
		t.Errorf("State should be Running, got %s", server.State())
	}
	if server.URL() == "" {
		t.Error("Server URL should not be empty")
	}

	resp, err := http.Get(server.URL() + "/healthz")
	if err != nil {
		t.Fatalf("Failed to check health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Health check returned %d, expected %d", resp.StatusCode, http.StatusOK)
	}

	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
	if server.State() != StateStopped {
		t.Errorf("State should be Stopped, got %s", server.State())
	}
}

func TestServerDoubleStart(t *testing.T) {
	server := newTestServer(t)

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })

	if err := server.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}
}

func TestServerStopBeforeStart(t *testing.T) {
	server := newTestServer(t)

	if err := server.Stop(); err != nil {
		t.Errorf("Stop() before Start() = %v, want nil", err)
	}
	if server.State() != StateStopped {
		t.Errorf("State should be Stopped, got %s", server.State())
	}
}

func TestServerDoubleStop(t *testing.T) {
	server := newTestServer(t)

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("first Stop() failed: %v", err)
	}
	if err := server.Stop(); err != nil {
		t.Errorf("second Stop() = %v, want nil", err)
	}
}

func TestServerCancelledContext(t *testing.T) {
	server := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := server.Start(ctx); err == nil {
		t.Error("Start() with cancelled context should fail")
	}
	if server.State() != StateFailed {
		t.Errorf("State should be Failed, got %s", server.State())
	}
}
