// SPDX-License-Identifier: MPL-2.0

package ghfetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"csvpilot/internal/issue"
	"csvpilot/internal/store"
)

// fakeGitHub serves a minimal contents API plus raw file downloads.
type fakeGitHub struct {
	t     *testing.T
	files map[string]string // repo path -> content
	auth  string            // last seen Authorization header
}

func (g *fakeGitHub) handler(baseURL *string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /raw/{name}", func(w http.ResponseWriter, r *http.Request) {
		g.auth = r.Header.Get("Authorization")
		name := r.PathValue("name")
		for path, content := range g.files {
			if filepath.Base(path) == name {
				fmt.Fprint(w, content)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/", func(w http.ResponseWriter, r *http.Request) {
		g.auth = r.Header.Get("Authorization")
		reqPath := r.URL.Path[len("/repos/o/r/contents"):]
		if len(reqPath) > 0 && reqPath[0] == '/' {
			reqPath = reqPath[1:]
		}

		// Exact file match returns a single object.
		if content, ok := g.files[reqPath]; ok {
			g.writeJSON(w, ContentEntry{
				Name: filepath.Base(reqPath), Path: reqPath, Type: "file",
				Size:        int64(len(content)),
				DownloadURL: *baseURL + "/raw/" + filepath.Base(reqPath),
			})
			return
		}

		// Otherwise list direct children of the directory.
		var entries []ContentEntry
		for path, content := range g.files {
			dir := filepath.Dir(path)
			if dir == "." {
				dir = ""
			}
			if dir != reqPath {
				continue
			}
			entries = append(entries, ContentEntry{
				Name: filepath.Base(path), Path: path, Type: "file",
				Size:        int64(len(content)),
				DownloadURL: *baseURL + "/raw/" + filepath.Base(path),
			})
		}
		if len(entries) == 0 {
			http.NotFound(w, r)
			return
		}
		entries = append(entries, ContentEntry{Name: "subdir", Path: reqPath + "/subdir", Type: "dir"})
		g.writeJSON(w, entries)
	})
	return mux
}

func (g *fakeGitHub) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.t.Fatalf("failed to encode fake response: %v", err)
	}
}

func newFetcherFixture(t *testing.T, files map[string]string, opts ...ClientOption) (*store.Store, *Fetcher, *fakeGitHub) {
	t.Helper()

	gh := &fakeGitHub{t: t, files: files}
	var baseURL string
	srv := httptest.NewServer(gh.handler(&baseURL))
	t.Cleanup(srv.Close)
	baseURL = srv.URL

	base := t.TempDir()
	s, err := store.New(filepath.Join(base, "csv"), filepath.Join(base, "scripts"))
	if err != nil {
		t.Fatalf("store.New() failed: %v", err)
	}

	opts = append([]ClientOption{WithBaseURL(srv.URL), WithHTTPClient(srv.Client())}, opts...)
	return s, NewFetcher(NewClient(opts...), s), gh
}

func TestFetchSingleFile(t *testing.T) {
	t.Parallel()
	s, f, _ := newFetcherFixture(t, map[string]string{
		"ncm/reboot.py": "print('reboot')\n",
	})

	saved, err := f.FetchScripts(context.Background(), "https://github.com/o/r/blob/master/ncm/reboot.py")
	if err != nil {
		t.Fatalf("FetchScripts() failed: %v", err)
	}
	if len(saved) != 1 || saved[0] != "reboot.py" {
		t.Fatalf("saved = %v, want [reboot.py]", saved)
	}

	data, err := s.ReadScriptFile("reboot.py")
	if err != nil {
		t.Fatalf("saved script unreadable: %v", err)
	}
	if string(data) != "print('reboot')\n" {
		t.Errorf("saved content = %q", data)
	}
}

func TestFetchFolder(t *testing.T) {
	t.Parallel()
	s, f, _ := newFetcherFixture(t, map[string]string{
		"ncm/reboot.py":    "print('reboot')\n",
		"ncm/clients.py":   "print('clients')\n",
		"ncm/speedtest.sh": "echo fast\n",
		"ncm/README.md":    "docs\n",
	})

	saved, err := f.FetchScripts(context.Background(), "https://github.com/o/r/tree/master/ncm")
	if err != nil {
		t.Fatalf("FetchScripts() failed: %v", err)
	}
	want := []string{"clients.py", "reboot.py", "speedtest.sh"}
	if len(saved) != len(want) {
		t.Fatalf("saved = %v, want %v", saved, want)
	}
	for i, name := range want {
		if saved[i] != name {
			t.Errorf("saved[%d] = %q, want %q", i, saved[i], name)
		}
	}

	// Non-script files are not written.
	if _, err := s.ReadScriptFile("README.md"); !errors.Is(err, issue.ErrNotFound) {
		t.Errorf("README.md should not have been saved, got err=%v", err)
	}
}

func TestFetchNoScripts(t *testing.T) {
	t.Parallel()
	_, f, _ := newFetcherFixture(t, map[string]string{
		"docs/README.md": "docs\n",
	})

	_, err := f.FetchScripts(context.Background(), "https://github.com/o/r/tree/master/docs")
	if !errors.Is(err, issue.ErrNotFound) {
		t.Errorf("FetchScripts() error = %v, want ErrNotFound", err)
	}
}

func TestFetchMissingPath(t *testing.T) {
	t.Parallel()
	_, f, _ := newFetcherFixture(t, map[string]string{})

	_, err := f.FetchScripts(context.Background(), "https://github.com/o/r/tree/master/nope")
	if err == nil {
		t.Error("FetchScripts() on missing path = nil, want error")
	}
}

func TestFetchInvalidURL(t *testing.T) {
	t.Parallel()
	_, f, _ := newFetcherFixture(t, map[string]string{})

	_, err := f.FetchScripts(context.Background(), "not a url at all")
	if !errors.Is(err, issue.ErrInvalidInput) {
		t.Errorf("FetchScripts() error = %v, want ErrInvalidInput", err)
	}
}

func TestFetchSendsToken(t *testing.T) {
	t.Parallel()
	_, f, gh := newFetcherFixture(t, map[string]string{
		"reboot.py": "print('reboot')\n",
	}, WithToken("gh-secret"))

	if _, err := f.FetchScripts(context.Background(), "https://github.com/o/r/blob/main/reboot.py"); err != nil {
		t.Fatalf("FetchScripts() failed: %v", err)
	}
	if gh.auth != "Bearer gh-secret" {
		t.Errorf("Authorization = %q, want Bearer gh-secret", gh.auth)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := c.GetContents(context.Background(), Target{Owner: "o", Repo: "r", Path: "x"})

	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("GetContents() error = %v, want *RateLimitError", err)
	}
	if rlErr.Limit != 60 {
		t.Errorf("Limit = %d, want 60", rlErr.Limit)
	}
}
