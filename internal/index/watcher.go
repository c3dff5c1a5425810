// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces bursts of file events into one reload.
const DefaultWatchDebounce = 250 * time.Millisecond

// StoreWatcher watches the conversation store file and invokes a
// callback after changes settle. Another parley process writing the
// store this way keeps this process's index fresh.
//
// The store is replaced atomically by rename, so the watcher observes
// the parent directory and filters events to the store file's name.
type StoreWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func()

	mu      sync.Mutex
	pending bool
	lastHit time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewStoreWatcher creates a watcher for the store file at path. The
// onChange callback runs on the watcher goroutine after events settle;
// it must not block for long. Call Watch to start.
func NewStoreWatcher(path string, debounce time.Duration, onChange func()) (*StoreWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &StoreWatcher{
		watcher:  fsw,
		path:     path,
		debounce: debounce,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching. Returns an error if the store's directory
// cannot be watched.
func (w *StoreWatcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and releases resources.
func (w *StoreWatcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

func (w *StoreWatcher) processEvents() {
	name := filepath.Base(w.path)
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.lastHit = time.Now()
			w.mu.Unlock()
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the index just goes stale
			// until the next explicit reindex.
		}
	}
}

func (w *StoreWatcher) processPending() {
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			fire := w.pending && time.Since(w.lastHit) >= w.debounce
			if fire {
				w.pending = false
			}
			w.mu.Unlock()
			if fire {
				w.onChange()
			}
		}
	}
}
