// SPDX-License-Identifier: MPL-2.0

package webserver

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"csvpilot/internal/execute"
	"csvpilot/internal/issue"
	"csvpilot/internal/script"
	"csvpilot/internal/store"
)

// maxBodySize caps request bodies. CSV files and scripts handled here
// are small; anything past this is a caller mistake.
const maxBodySize = 16 << 20

//go:embed static
var staticFiles embed.FS

// ScriptFetcher downloads scripts from a remote URL into the scripts
// directory and returns the saved file names.
type ScriptFetcher interface {
	FetchScripts(ctx context.Context, rawURL string) ([]string, error)
}

// Handler holds the dependencies of the HTTP API.
type Handler struct {
	store   *store.Store
	index   *script.Index
	orch    *execute.Orchestrator
	fetcher ScriptFetcher
	logger  *log.Logger
}

// NewHandler creates the API handler set. fetcher may be nil, in which
// case POST /api/fetch reports the feature as unavailable.
func NewHandler(s *store.Store, idx *script.Index, orch *execute.Orchestrator, fetcher ScriptFetcher) *Handler {
	return &Handler{
		store:   s,
		index:   idx,
		orch:    orch,
		fetcher: fetcher,
		logger:  log.Default(),
	}
}

// Routes builds the route table.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.handleHealth)

	mux.HandleFunc("GET /api/csv", h.handleListCSV)
	mux.HandleFunc("GET /api/csv/{name}", h.handleGetCSV)
	mux.HandleFunc("PUT /api/csv/{name}", h.handlePutCSV)
	mux.HandleFunc("DELETE /api/csv/{name}", h.handleDeleteCSV)

	mux.HandleFunc("GET /api/scripts", h.handleListScripts)
	mux.HandleFunc("GET /api/scripts/{name}", h.handleGetScript)
	mux.HandleFunc("PUT /api/scripts/{name}", h.handlePutScript)
	mux.HandleFunc("DELETE /api/scripts/{name}", h.handleDeleteScript)

	mux.HandleFunc("POST /api/run", h.handleRun)
	mux.HandleFunc("POST /api/fetch", h.handleFetch)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// The static tree is embedded at build time; a missing subtree
		// is a programming error.
		panic(fmt.Sprintf("embedded static tree missing: %v", err))
	}
	mux.Handle("GET /", http.FileServerFS(static))

	return mux
}

// handleHealth responds with 200 OK for health checks.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleListCSV(w http.ResponseWriter, r *http.Request) {
	files, err := h.store.ListCSVFiles()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ListResponse{Files: files})
}

// handleGetCSV returns the parsed document as JSON, or the raw bytes as
// text/csv when ?raw=1 is set.
func (h *Handler) handleGetCSV(w http.ResponseWriter, r *http.Request) {
	name := store.FileName(r.PathValue("name"))
	data, err := h.store.ReadCSVFile(name)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if r.URL.Query().Get("raw") == "1" {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(data)
		return
	}

	doc, err := store.ParseDocument(data)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// handlePutCSV accepts either a JSON document (the editor's save format)
// or raw CSV bytes when Content-Type is text/csv. Writes are whole-file
// replacements; there is no partial edit.
func (h *Handler) handlePutCSV(w http.ResponseWriter, r *http.Request) {
	name := store.FileName(r.PathValue("name"))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.writeError(w, &issue.IOFailureError{Op: "read request body", Cause: err})
		return
	}

	data := body
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "text/csv") {
		var doc store.Document
		if err := json.Unmarshal(body, &doc); err != nil {
			h.writeError(w, &issue.InvalidInputError{Field: "body", Reason: "not a JSON document: " + err.Error()})
			return
		}
		data, err = doc.Encode()
		if err != nil {
			h.writeError(w, err)
			return
		}
	}

	if err := h.store.WriteCSVFile(name, data); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("saved CSV", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteCSV(w http.ResponseWriter, r *http.Request) {
	name := store.FileName(r.PathValue("name"))
	if err := h.store.DeleteCSVFile(name); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("deleted CSV", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListScripts(w http.ResponseWriter, r *http.Request) {
	scripts, err := h.index.All()
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := ScriptListResponse{Scripts: make([]ScriptSummary, 0, len(scripts))}
	for _, s := range scripts {
		resp.Scripts = append(resp.Scripts, summarize(s))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetScript(w http.ResponseWriter, r *http.Request) {
	name := store.FileName(r.PathValue("name"))

	s, err := h.index.Get(name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	src, err := h.store.ReadScriptFile(name)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ScriptResponse{
		ScriptSummary: summarize(s),
		Source:        string(src),
	})
}

// handlePutScript saves raw script source. The script index is
// invalidated so the next listing reflects the new metadata.
func (h *Handler) handlePutScript(w http.ResponseWriter, r *http.Request) {
	name := store.FileName(r.PathValue("name"))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.writeError(w, &issue.IOFailureError{Op: "read request body", Cause: err})
		return
	}

	if err := h.store.WriteScriptFile(name, body); err != nil {
		h.writeError(w, err)
		return
	}
	h.index.Invalidate()
	h.logger.Info("saved script", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteScript(w http.ResponseWriter, r *http.Request) {
	name := store.FileName(r.PathValue("name"))
	if err := h.store.DeleteScriptFile(name); err != nil {
		h.writeError(w, err)
		return
	}
	h.index.Invalidate()
	h.logger.Info("deleted script", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

// handleRun executes a script against a CSV file. The credentials in the
// request apply to this run only. A nonzero exit code is a completed
// run and responds 200; only launch problems and bad input are HTTP
// errors.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		h.writeError(w, &issue.InvalidInputError{Field: "body", Reason: "not a JSON run request: " + err.Error()})
		return
	}

	// The run outlives the request: a caller that disconnects mid-run must
	// not kill an already-launched script. The timeout budget, not the
	// request context, bounds the child.
	runCtx := context.WithoutCancel(r.Context())

	report, err := h.orch.Run(runCtx, execute.RunOptions{
		Script:      store.FileName(req.Script),
		CSV:         store.FileName(req.CSV),
		Credentials: req.Credentials,
		Timeout:     time.Duration(req.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("script run finished",
		"script", report.Script, "csv", report.CSV, "exitCode", report.ExitCode)

	h.writeJSON(w, http.StatusOK, RunResponse{
		Script:         report.Script,
		CSV:            report.CSV,
		ExitCode:       int(report.ExitCode),
		Stdout:         report.Stdout,
		Stderr:         report.Stderr,
		TimedOut:       report.TimedOut,
		MissingColumns: report.MissingColumns,
	})
}

func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	if h.fetcher == nil {
		h.writeError(w, &issue.InvalidInputError{Field: "fetch", Reason: "script download is not configured"})
		return
	}

	var req FetchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		h.writeError(w, &issue.InvalidInputError{Field: "body", Reason: "not a JSON fetch request: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		h.writeError(w, &issue.InvalidInputError{Field: "url", Reason: "empty"})
		return
	}

	saved, err := h.fetcher.FetchScripts(r.Context(), req.URL)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.index.Invalidate()
	h.logger.Info("fetched scripts", "url", req.URL, "saved", len(saved))
	h.writeJSON(w, http.StatusOK, FetchResponse{Saved: saved})
}

func summarize(s *script.Script) ScriptSummary {
	summary := ScriptSummary{
		Name:        s.Name,
		Description: s.Description,
		Required:    s.Meta.Required,
		Optional:    s.Meta.Optional,
	}
	if s.Err != nil {
		summary.ParseError = s.Err.Error()
	}
	return summary
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError translates a domain error into an HTTP response using the
// failure taxonomy.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := issue.KindOf(err)
	status := kind.HTTPStatus()
	if status == http.StatusOK {
		// A kind without an error status (script_failure) should never
		// reach here as an error value.
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "kind", kind, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error(), Kind: kind.String()})
}
