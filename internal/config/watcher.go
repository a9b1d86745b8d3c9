package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"opscheck/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is how long the watcher waits after the last
// change event before reloading, so an editor's write-rename dance causes
// one reload rather than several.
const DefaultDebounceInterval = 500 * time.Millisecond

// DefaultPollInterval is the fallback polling period when fsnotify is not
// available.
const DefaultPollInterval = 10 * time.Second

// Watcher reloads the configuration when the config file changes and hands
// the result to OnChange. It prefers fsnotify and falls back to polling.
type Watcher struct {
	path         string
	pollInterval time.Duration
	onChange     func(Config)

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	fsWatcher *fsnotify.Watcher

	debounceMu    sync.Mutex
	debounceTimer *time.Timer

	lastModTime time.Time
}

// NewWatcher creates a watcher for the config file at path. onChange is
// called with the freshly loaded configuration after every change that
// survives validation.
func NewWatcher(path string, onChange func(Config)) *Watcher {
	return &Watcher{
		path:         path,
		pollInterval: DefaultPollInterval,
		onChange:     onChange,
	}
}

// Start begins watching. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	w.stopCh = make(chan struct{})
	w.running = true

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("ConfigWatcher", "fsnotify not available, falling back to polling: %v", err)
		go w.poll()
		return nil
	}

	// Watch the directory, not the file: editors replace the file on save
	// and a file watch dies with the old inode.
	if err := fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		logging.Warn("ConfigWatcher", "Failed to watch %s, falling back to polling: %v",
			filepath.Dir(w.path), err)
		fsWatcher.Close()
		go w.poll()
		return nil
	}

	w.fsWatcher = fsWatcher
	go w.processEvents(fsWatcher.Events, fsWatcher.Errors)

	logging.Info("ConfigWatcher", "Watching %s for configuration changes", w.path)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("ConfigWatcher", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}
}

func (w *Watcher) processEvents(events <-chan fsnotify.Event, errs <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logging.Debug("ConfigWatcher", "Config file changed: %s", event.Name)
			w.reloadDebounced()
		case err, ok := <-errs:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "fsnotify error")
		}
	}
}

func (w *Watcher) reloadDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(DefaultDebounceInterval, func() {
		w.mu.Lock()
		running := w.running
		w.mu.Unlock()
		if !running {
			return
		}

		cfg, err := Load(w.path)
		if err != nil {
			// Keep running with the previous configuration.
			logging.Error("ConfigWatcher", err, "Reload failed, keeping current configuration")
			return
		}
		logging.Info("ConfigWatcher", "Configuration reloaded")
		w.onChange(cfg)
	})
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	if info, err := os.Stat(w.path); err == nil {
		w.lastModTime = info.ModTime()
	}

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if info.ModTime().After(w.lastModTime) {
				w.lastModTime = info.ModTime()
				logging.Debug("ConfigWatcher", "Config file change detected via polling")
				w.reloadDebounced()
			}
		}
	}
}
