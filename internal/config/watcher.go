package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long file activity must settle before a reload.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads the config file when it changes. The parent directory is
// watched so editors that save through rename are still seen.
type Watcher struct {
	path     string
	onChange func(*Config)
	debounce time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	lastEvent time.Time
}

// NewWatcher creates a watcher for path. onChange receives every valid reload.
func NewWatcher(path string, onChange func(*Config), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logger,
	}
}

// SetDebounce sets the debounce duration
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(dir); err != nil {
		return err
	}
	w.logger.Info("watching config file", zap.String("path", w.path))

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			// Debounce: wait for activity to settle
			w.mu.Lock()
			w.lastEvent = time.Now()
			w.mu.Unlock()

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				w.mu.Lock()
				elapsed := time.Since(w.lastEvent)
				w.mu.Unlock()

				if elapsed >= w.debounce && ctx.Err() == nil {
					w.reload()
				}
			})

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			// Log errors but continue watching
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("ignoring invalid config change", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("config reloaded", zap.String("path", w.path))
	w.onChange(cfg)
}
