package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"meilisync/internal/logging"
)

// DefaultDebounce is the quiet period after the last file event before the
// configuration is reloaded.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the configuration file whenever it changes on disk and
// hands the new value to a callback.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(Search)

	fsw *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for path. The directory is watched rather
// than the file so editors that replace the file by rename are handled.
// A non-positive debounce selects DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, onChange func(Search)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}

	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	return &Watcher{
		path:     absPath,
		debounce: debounce,
		onChange: onChange,
		fsw:      fsw,
	}, nil
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fsw.Close(); err != nil {
			logging.Warn("failed to close config watcher: %v", err)
		}
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	}()

	logging.Info("Watching configuration file %s", w.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Config watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	logging.Debug("Config file event: %s", event)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logging.Error("Failed to reload configuration: %v", err)
		return
	}
	logging.Info("Configuration file changed, applying new configuration")
	w.onChange(cfg)
}
