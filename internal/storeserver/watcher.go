package storeserver

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/rawjoystick/joymap/internal/logging"
)

// watchDebounce coalesces the burst of events a single save produces
const watchDebounce = 150 * time.Millisecond

// Watcher reports changes to the mapping file that this process did not
// make, such as the remapper rewriting it after a device probe.
type Watcher struct {
	store    *FileStore
	onChange func(data []byte)
	debounce time.Duration
}

// NewWatcher creates a watcher for the store's file. onChange receives the
// new content.
func NewWatcher(store *FileStore, onChange func(data []byte)) *Watcher {
	return &Watcher{store: store, onChange: onChange, debounce: watchDebounce}
}

// Run watches until ctx is done. The directory is watched rather than the
// file because atomic saves replace the file's inode.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	path := filepath.Clean(w.store.Path())
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	logging.Info("Watching mapping file", zap.String("path", path))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("File watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.check()
		}
	}
}

func (w *Watcher) check() {
	data, err := w.store.Read()
	if err != nil {
		logging.Debug("Mapping file not readable after change", zap.Error(err))
		return
	}
	if w.store.IsOwnWrite(data) {
		return
	}
	logging.LogMappingEvent(w.store.Path(), "file", len(data))
	w.onChange(data)
}
