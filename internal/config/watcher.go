package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"oauthrelay/pkg/logging"
)

const (
	// DefaultDebounceInterval is the quiet period after the last change before reloading.
	DefaultDebounceInterval = 250 * time.Millisecond

	// DefaultPollInterval is the fallback polling interval when fsnotify is unavailable.
	DefaultPollInterval = 5 * time.Second
)

// WatcherOptions configure a Watcher.
type WatcherOptions struct {
	// ConfigPath is the directory holding config.yaml.
	ConfigPath string

	// Debounce collapses bursts of events from editors that write in several steps.
	Debounce time.Duration

	// PollInterval is used when fsnotify cannot watch the directory.
	PollInterval time.Duration

	// OnChange receives every successfully loaded and validated configuration.
	OnChange func(Config)
}

// Watcher reloads config.yaml when it changes. Invalid files are logged and
// ignored, so the last good configuration stays in effect.
type Watcher struct {
	opts WatcherOptions

	debounceMu    sync.Mutex
	debounceTimer *time.Timer

	// lastModTime is only touched by the polling goroutine.
	lastModTime time.Time
}

// NewWatcher creates a Watcher. Call Run to start it.
func NewWatcher(opts WatcherOptions) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounceInterval
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Watcher{opts: opts}
}

// Run watches until ctx is done. It always returns nil; fsnotify failures fall
// back to polling.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopDebounce()

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("ConfigWatcher", "fsnotify not available, falling back to polling: %v", err)
		w.poll(ctx)
		return nil
	}
	defer fsWatcher.Close()

	// The directory is watched rather than the file so atomic renames are seen.
	if err := fsWatcher.Add(w.opts.ConfigPath); err != nil {
		logging.Warn("ConfigWatcher", "Failed to watch %s, falling back to polling: %v", w.opts.ConfigPath, err)
		w.poll(ctx)
		return nil
	}

	logging.Info("ConfigWatcher", "Watching %s for configuration changes", w.opts.ConfigPath)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("ConfigWatcher", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != configFileName {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	logging.Debug("ConfigWatcher", "Configuration file changed: %s (%s)", event.Name, event.Op)
	w.reloadDebounced()
}

func (w *Watcher) reloadDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.opts.Debounce, w.reload)
}

func (w *Watcher) stopDebounce() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.opts.ConfigPath)
	if err != nil {
		logging.Error("ConfigWatcher", err, "Ignoring invalid configuration, keeping the previous one")
		return
	}
	logging.Info("ConfigWatcher", "Configuration reloaded")
	if w.opts.OnChange != nil {
		w.opts.OnChange(cfg)
	}
}

func (w *Watcher) poll(ctx context.Context) {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	w.changed()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.changed() {
				logging.Debug("ConfigWatcher", "Configuration change detected via polling")
				w.reloadDebounced()
			}
		}
	}
}

// changed reports whether config.yaml has a newer modification time than last seen.
func (w *Watcher) changed() bool {
	info, err := os.Stat(FilePath(w.opts.ConfigPath))
	if err != nil {
		return false
	}
	mod := info.ModTime()
	seen := !w.lastModTime.IsZero()
	newer := mod.After(w.lastModTime)
	w.lastModTime = mod
	return seen && newer
}
