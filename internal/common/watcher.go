package common

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/ternarybob/arbor"
)

// ConfigWatcher reloads the configuration file when it changes on disk.
// Invalid edits are logged and ignored; the last good config stays active.
type ConfigWatcher struct {
	path      string
	watcher   *fsnotify.Watcher
	logger    arbor.ILogger
	mu        sync.Mutex
	callbacks []func(*Config)
	done      chan struct{}
}

// NewConfigWatcher watches the directory holding path so that editors which
// replace the file through a rename are still noticed
func NewConfigWatcher(path string, logger arbor.ILogger) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &ConfigWatcher{
		path:    filepath.Clean(path),
		watcher: watcher,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// OnReload registers a callback receiving every successfully reloaded config
func (w *ConfigWatcher) OnReload(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching in the background
func (w *ConfigWatcher) Start() {
	go w.watch()
}

// Stop stops watching and waits for the watch loop to exit
func (w *ConfigWatcher) Stop() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *ConfigWatcher) watch() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

func (w *ConfigWatcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("Ignoring invalid config change")
		return
	}

	w.logger.Info().Str("path", w.path).Int("pages", len(cfg.Pages)).Msg("Configuration reloaded")

	w.mu.Lock()
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	for _, callback := range callbacks {
		callback(cfg)
	}
}
