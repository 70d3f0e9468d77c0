package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/danmaq/internal/config"
)

// defaultDebounce covers editors that save through a temp file and rename.
const defaultDebounce = 200 * time.Millisecond

// ConfigWatcher reloads danmaqd.toml when it changes. Invalid files are
// reported and the last good config stays in effect.
type ConfigWatcher struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	debounce time.Duration
	onReload func(*config.DaemonConfig)
	onError  func(error)
	current  *config.DaemonConfig

	fs   *fsnotify.Watcher
	stop context.CancelFunc
	done chan struct{}
}

// NewConfigWatcher creates a watcher for path, or for the default daemon
// config location when path is empty.
func NewConfigWatcher(path string, logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		p, err := config.DaemonConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &ConfigWatcher{path: path, logger: logger, debounce: defaultDebounce}, nil
}

// SetDebounce sets the quiet period after the last write before reloading.
func (w *ConfigWatcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// SetReloadCallback is called with each successfully loaded config.
func (w *ConfigWatcher) SetReloadCallback(fn func(*config.DaemonConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// SetErrorCallback is called when a changed file fails to load.
func (w *ConfigWatcher) SetErrorCallback(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Current returns the last config that loaded cleanly.
func (w *ConfigWatcher) Current() *config.DaemonConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Start watches the config file's directory until ctx ends or Stop is called.
// The file itself need not exist yet.
func (w *ConfigWatcher) Start(ctx context.Context, initial *config.DaemonConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fs != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return err
	}

	ctx, w.stop = context.WithCancel(ctx)
	w.fs = fw
	w.current = initial
	w.done = make(chan struct{})
	go w.run(ctx, fw, w.done)

	w.logger.Debug("config watcher started", "path", w.path, "debounce", w.debounce)
	return nil
}

// Stop ends watching and waits for the watch goroutine.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	fw, stop, done := w.fs, w.stop, w.done
	w.fs = nil
	w.mu.Unlock()
	if fw == nil {
		return
	}

	stop()
	<-done
	_ = fw.Close()
	w.logger.Debug("config watcher stopped")
}

func (w *ConfigWatcher) run(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	name := filepath.Base(w.path)
	settle := time.NewTimer(time.Hour)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.mu.Lock()
			d := w.debounce
			w.mu.Unlock()
			settle.Reset(d)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		case <-settle.C:
			w.reload()
		}
	}
}

func (w *ConfigWatcher) reload() {
	cfg, err := config.LoadDaemonConfigFrom(w.path)

	w.mu.Lock()
	onReload, onError := w.onReload, w.onError
	if err == nil {
		w.current = cfg
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("config changed but failed to load, keeping previous", "path", w.path, "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}
	w.logger.Info("config reloaded", "path", w.path)
	if onReload != nil {
		onReload(cfg)
	}
}
