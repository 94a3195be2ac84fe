// Package watch re-runs a command file when it changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/satishbabariya/dbcmd/internal/debug"
)

// DefaultDebounce is how long writes must settle before the callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a file for changes
type Watcher struct {
	file     string
	callback func(ctx context.Context) error
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// NewWatcher creates a new file watcher
func NewWatcher(file string, callback func(ctx context.Context) error) (*Watcher, error) {
	absPath, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Editors replace files on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     absPath,
		callback: callback,
		watcher:  watcher,
		debounce: DefaultDebounce,
	}, nil
}

// SetDebounce changes the settle time.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run calls the callback once, then again after every change of the file, until
// ctx is done. Callback failures are logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.callback(ctx); err != nil {
		debug.Error("watch callback failed", "file", w.file, "error", err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var settle <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if path, err := filepath.Abs(event.Name); err == nil && path == w.file {
				timer.Reset(w.debounce)
				settle = timer.C
			}

		case <-settle:
			settle = nil
			if err := w.callback(ctx); err != nil {
				debug.Error("watch callback failed", "file", w.file, "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			debug.Warn("watch error", "file", w.file, "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
