// SPDX-License-Identifier: MPL-2.0

package ghfetch

import (
	"context"
	"fmt"
	"sort"

	"csvpilot/internal/issue"
	"csvpilot/internal/store"
)

// Fetcher downloads script files into the managed scripts directory.
type Fetcher struct {
	client *Client
	store  *store.Store
}

// NewFetcher creates a Fetcher writing into the given store.
func NewFetcher(client *Client, s *store.Store) *Fetcher {
	return &Fetcher{client: client, store: s}
}

// FetchScripts resolves rawURL, downloads every script file it points
// at, and saves each into the scripts directory. A file URL fetches one
// script; a folder or repository URL fetches every script in that
// folder (subdirectories are not descended into). Returns the saved
// file names sorted.
func (f *Fetcher) FetchScripts(ctx context.Context, rawURL string) ([]string, error) {
	target, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	entries, err := f.client.GetContents(ctx, target)
	if err != nil {
		return nil, issue.WrapWithOperation(err, "fetch scripts from GitHub")
	}

	var saved []string
	for _, entry := range entries {
		if entry.Type != "" && entry.Type != "file" {
			continue
		}
		if !store.IsScriptName(entry.Name) {
			continue
		}
		if entry.DownloadURL == "" {
			continue
		}

		data, err := f.client.DownloadFile(ctx, entry.DownloadURL)
		if err != nil {
			return saved, issue.WrapWithOperation(err, "download script")
		}
		if err := f.store.WriteScriptFile(store.FileName(entry.Name), data); err != nil {
			return saved, err
		}
		saved = append(saved, entry.Name)
	}

	if len(saved) == 0 {
		return nil, &issue.NotFoundError{
			Resource: fmt.Sprintf("no script files (.py, .sh) at %s", rawURL),
		}
	}

	sort.Strings(saved)
	return saved, nil
}
