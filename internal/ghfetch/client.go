// SPDX-License-Identifier: MPL-2.0

// Package ghfetch downloads script files from GitHub repositories into
// the managed scripts directory. It speaks the GitHub contents API and
// accepts the URL forms people actually paste: repository pages, blob
// and tree browser URLs, and raw.githubusercontent.com links.
package ghfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"csvpilot/internal/issue"
)

const (
	// maxJSONResponseBytes is the upper bound on JSON API response size (10 MB).
	// Prevents unbounded memory consumption from malicious or malformed responses.
	maxJSONResponseBytes = 10 << 20

	// maxScriptBytes caps a single downloaded script file (1 MB). The
	// scripts this tool manages are small; anything larger is not one.
	maxScriptBytes = 1 << 20
)

type (
	// RateLimitError is returned when the GitHub API rate limit is exceeded.
	RateLimitError struct {
		Limit     int
		Remaining int
		ResetAt   time.Time
	}

	// ContentEntry is one entry of a GitHub contents API response.
	ContentEntry struct {
		Name        string `json:"name"`
		Path        string `json:"path"`
		Type        string `json:"type"` // "file" or "dir"
		Size        int64  `json:"size"`
		DownloadURL string `json:"download_url"`
	}

	// Client queries the GitHub contents API.
	Client struct {
		httpClient *http.Client
		baseURL    string // API base URL (default: "https://api.github.com", overridable for tests)
		token      string // Optional GITHUB_TOKEN for authenticated requests
		userAgent  string // User-Agent header value
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// Error formats the rate limit details as a human-readable message.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exceeded (%d remaining, resets at %s)",
		e.Remaining, e.ResetAt.UTC().Format("15:04 UTC"))
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *Client) {
		g.httpClient = c
	}
}

// WithBaseURL overrides the GitHub API base URL, for GitHub Enterprise
// hosts and test servers.
func WithBaseURL(base string) ClientOption {
	return func(g *Client) {
		g.baseURL = strings.TrimRight(base, "/")
	}
}

// WithToken sets a GitHub personal access token for authenticated requests.
// Authenticated requests have a higher rate limit (5000/hour vs 60/hour).
func WithToken(token string) ClientOption {
	return func(g *Client) {
		g.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(g *Client) {
		g.userAgent = ua
	}
}

// NewClient creates a Client with sensible defaults.
// Defaults: baseURL="https://api.github.com", userAgent="csvpilot/dev",
// httpClient=http.DefaultClient.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    "https://api.github.com",
		userAgent:  "csvpilot/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetContents fetches the contents listing for a path inside a
// repository. A file path yields a single entry; a directory path
// yields one entry per child. ref may be empty for the default branch.
func (c *Client) GetContents(ctx context.Context, target Target) ([]ContentEntry, error) {
	contentsURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.baseURL, target.Owner, target.Repo, strings.TrimPrefix(target.Path, "/"))
	if target.Ref != "" {
		contentsURL += "?ref=" + url.QueryEscape(target.Ref)
	}

	resp, err := c.doRequest(ctx, contentsURL)
	if err != nil {
		return nil, fmt.Errorf("listing contents: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if err := checkRateLimit(resp); err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &issue.NotFoundError{
			Resource: fmt.Sprintf("%s/%s: %s", target.Owner, target.Repo, target.Path),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing contents: unexpected status %d", resp.StatusCode)
	}

	// The contents API returns an object for a file and an array for a
	// directory. Sniff the first byte instead of decoding twice.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("listing contents: reading response: %w", err)
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var entries []ContentEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("listing contents: decoding response: %w", err)
		}
		return entries, nil
	}

	var entry ContentEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("listing contents: decoding response: %w", err)
	}
	return []ContentEntry{entry}, nil
}

// DownloadFile fetches the raw bytes of a single file. The download is
// capped at maxScriptBytes.
func (c *Client) DownloadFile(ctx context.Context, downloadURL string) ([]byte, error) {
	resp, err := c.doRequest(ctx, downloadURL)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(downloadURL), err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: unexpected status %d", redactURL(downloadURL), resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptBytes+1))
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(downloadURL), err)
	}
	if len(data) > maxScriptBytes {
		return nil, fmt.Errorf("downloading %s: file exceeds %d bytes", redactURL(downloadURL), maxScriptBytes)
	}
	return data, nil
}

// doRequest creates and executes an HTTP request with common GitHub API headers.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)

	// Only attach the auth token when the request targets a known GitHub host.
	// This prevents token leakage if a download URL redirects to a third-party CDN.
	if c.token != "" && isGitHubHost(req.URL, c.baseURL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return resp, nil
}

// checkRateLimit inspects the X-RateLimit-* response headers and returns a
// RateLimitError when the remaining quota is zero. It does not inspect the
// HTTP status code; only the header values are examined.
func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		// No rate limit headers present; nothing to check.
		return nil
	}

	rem, err := strconv.Atoi(remaining)
	if err != nil {
		// Malformed header value; skip rate limit check.
		return nil //nolint:nilerr // Non-numeric header is non-fatal.
	}

	if rem > 0 {
		return nil
	}

	// Parse companion headers for a richer error message.
	// Errors are intentionally ignored: malformed or missing values default to zero,
	// which is acceptable for a diagnostic error message.
	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))                 //nolint:errcheck // Best-effort header parsing.
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64) //nolint:errcheck // Best-effort header parsing.
	resetAt := time.Unix(resetUnix, 0)

	return &RateLimitError{
		Limit:     limit,
		Remaining: 0,
		ResetAt:   resetAt,
	}
}

// isGitHubHost reports whether reqURL targets a known GitHub host, so the auth
// token can be safely attached. It matches the configured API base URL host and,
// when the base is api.github.com, also trusts the raw download host.
func isGitHubHost(reqURL *url.URL, baseURL string) bool {
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	// Match the configured API host (covers both production and test servers).
	if strings.EqualFold(reqURL.Host, base.Host) {
		return true
	}
	// When the API base is api.github.com, also trust the public raw host.
	if strings.EqualFold(base.Host, "api.github.com") &&
		strings.EqualFold(reqURL.Host, "raw.githubusercontent.com") {
		return true
	}
	return false
}

// redactURL strips query parameters and fragments from a URL for safe inclusion
// in error messages, preventing accidental exposure of tokens or sensitive data.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
