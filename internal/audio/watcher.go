package audio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the cue when its file changes on disk. It tracks one path
// at a time; watching a new path replaces the old one.
type Watcher struct {
	player *Player
	logger *slog.Logger

	mu   sync.Mutex
	fs   *fsnotify.Watcher
	path string // cleaned
	stop context.CancelFunc
	done chan struct{}
}

// NewWatcher creates a watcher that reloads into player.
func NewWatcher(player *Player, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{player: player, logger: logger}
}

// Start begins watching. A path set before Start is picked up.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fs != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fs = fw
	w.addDir(w.path)

	ctx, w.stop = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx, fw, w.done)

	w.logger.Debug("audio watcher started")
	return nil
}

// Watch makes path the watched cue file.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if path == w.path {
		return
	}
	w.removeDir(w.path)
	w.path = path
	w.addDir(path)
}

// Unwatch stops watching path if it is the watched one.
func (w *Watcher) Unwatch(path string) {
	if path == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if filepath.Clean(path) != w.path {
		return
	}
	w.removeDir(w.path)
	w.path = ""
}

// Watching reports whether path is the watched cue.
func (w *Watcher) Watching(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return path != "" && w.path == filepath.Clean(path)
}

// Stop ends watching and waits for the watch goroutine.
func (w *Watcher) Stop() {
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
	w.logger.Debug("audio watcher stopped")
}

// addDir and removeDir need mu held. The directory is watched rather than
// the file so replaced files keep being seen.
func (w *Watcher) addDir(path string) {
	if w.fs == nil || path == "" {
		return
	}
	if err := w.fs.Add(filepath.Dir(path)); err != nil {
		w.logger.Debug("failed to watch sound directory", "path", path, "error", err)
	}
}

func (w *Watcher) removeDir(path string) {
	if w.fs == nil || path == "" {
		return
	}
	_ = w.fs.Remove(filepath.Dir(path))
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			path := filepath.Clean(ev.Name)
			if !w.Watching(path) {
				continue
			}
			w.logger.Debug("cue file changed, reloading", "path", path)
			if w.player != nil {
				w.player.Reload(path)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("audio watcher error", "error", err)
		}
	}
}
