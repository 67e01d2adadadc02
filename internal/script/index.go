// SPDX-License-Identifier: MPL-2.0

package script

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"

	"csvpilot/internal/issue"
	"csvpilot/internal/store"
)

// Index caches parsed script headers for the scripts directory. Listings
// re-parse only when the cache has been invalidated, either explicitly
// (after a write through the API) or by the directory watcher.
type Index struct {
	store *store.Store

	mu      sync.RWMutex
	scripts map[string]*Script
	loaded  bool

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewIndex creates an Index over the store's scripts directory.
// The cache starts empty; the first listing scans the directory.
func NewIndex(s *store.Store) *Index {
	return &Index{store: s}
}

// All returns every script in the directory, sorted by name, rescanning
// if the cache is stale. Scripts with a malformed metadata block are
// included with empty metadata and Err set, so one broken header does
// not hide the rest of the directory.
func (i *Index) All() ([]*Script, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	scripts := make([]*Script, 0, len(i.scripts))
	for _, s := range i.scripts {
		scripts = append(scripts, s)
	}
	sort.Slice(scripts, func(a, b int) bool { return scripts[a].Name < scripts[b].Name })
	return scripts, nil
}

// Get returns the named script, rescanning if the cache is stale.
func (i *Index) Get(name store.FileName) (*Script, error) {
	if valid, errs := name.IsValid(); !valid {
		return nil, errs[0]
	}
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	s, ok := i.scripts[string(name)]
	if !ok {
		return nil, &issue.NotFoundError{Resource: string(name)}
	}
	return s, nil
}

// Invalidate marks the cache stale; the next listing rescans.
func (i *Index) Invalidate() {
	i.mu.Lock()
	i.loaded = false
	i.mu.Unlock()
}

func (i *Index) ensureLoaded() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.loaded {
		return nil
	}

	files, err := i.store.ListScriptFiles()
	if err != nil {
		return err
	}

	scripts := make(map[string]*Script, len(files))
	for _, f := range files {
		name := store.FileName(f.Name)
		src, err := i.store.ReadScriptFile(name)
		if err != nil {
			// File vanished between listing and read; skip it.
			if issue.KindOf(err) == issue.KindNotFound {
				continue
			}
			return err
		}

		path, err := i.store.ScriptPath(name)
		if err != nil {
			return err
		}

		parsed, err := Parse(f.Name, path, src)
		if err != nil {
			parsed = &Script{
				Name:        f.Name,
				Path:        path,
				Description: parseDescription(src),
				Err:         err,
			}
		}
		scripts[f.Name] = parsed
	}

	i.scripts = scripts
	i.loaded = true
	return nil
}

// Watch starts an fsnotify watcher on the scripts directory that
// invalidates the cache on any change. It returns an error if the Index
// is already watching. Stop the watcher with Close.
func (i *Index) Watch() error {
	i.watchMu.Lock()
	defer i.watchMu.Unlock()

	if i.watcher != nil {
		return fmt.Errorf("script index is already watching %s", i.store.ScriptDir())
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(i.store.ScriptDir()); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watching %s: %w", i.store.ScriptDir(), err)
	}

	i.watcher = fsw
	i.done = make(chan struct{})

	go func(done chan struct{}) {
		for {
			select {
			case _, ok := <-fsw.Events:
				if !ok {
					return
				}
				i.Invalidate()
			case _, ok := <-fsw.Errors:
				// Watch errors degrade to cache-on-demand behavior; the
				// next explicit Invalidate still works.
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}(i.done)

	return nil
}

// Close stops the directory watcher. It is a no-op when not watching.
func (i *Index) Close() error {
	i.watchMu.Lock()
	defer i.watchMu.Unlock()

	if i.watcher == nil {
		return nil
	}
	close(i.done)
	err := i.watcher.Close()
	i.watcher = nil
	return err
}
