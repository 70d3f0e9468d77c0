package theme

import (
	"context"
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/danmaq/internal/model"
)

// Loader applies the theme and the generated font rules to a GDK display.
// The font provider sits one priority above the theme so the configured
// font always wins.
type Loader struct {
	mu        sync.RWMutex
	logger    *slog.Logger
	provider  *gtk.CSSProvider
	font      *gtk.CSSProvider
	themesDir string
	theme     *Theme
	watcher   *Watcher
}

// NewLoader creates a new theme loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	themesDir, err := ThemesDir()
	if err != nil {
		logger.Warn("failed to get themes directory", "error", err)
		themesDir = ""
	}

	return &Loader{
		logger:    logger,
		provider:  gtk.NewCSSProvider(),
		font:      gtk.NewCSSProvider(),
		themesDir: themesDir,
	}
}

// LoadTheme loads a theme by name. User themes override bundled ones.
func (l *Loader) LoadTheme(name string) {
	t, err := Resolve(name, l.themesDir)
	if err != nil {
		l.logger.Warn("theme not found, using default", "theme", name)
	}

	l.mu.Lock()
	l.theme = t
	l.provider.LoadFromString(t.CSS)
	l.mu.Unlock()

	l.logger.Info("loaded theme", "name", t.Name, "bundled", t.Bundled, "path", t.Path)
}

// SetFont regenerates the font rules.
func (l *Loader) SetFont(font model.Font, shadowBlur int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.font.LoadFromString(FontCSS(font, shadowBlur))
}

// Apply attaches both providers to a display. A nil display selects the default.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}

	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	gtk.StyleContextAddProviderForDisplay(display, l.font, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION+1)
	l.logger.Debug("applied theme to display", "name", l.CurrentTheme())
}

// StartHotReload watches the current user theme and reapplies it on change.
// Callbacks run on the watcher goroutine; dispatch marshals them to the UI thread.
func (l *Loader) StartHotReload(ctx context.Context, dispatch func(fn func())) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
	if l.theme == nil || l.theme.Bundled {
		l.logger.Debug("not starting hot-reload for bundled theme")
		return
	}

	l.watcher = NewWatcher(l.theme, l.logger)
	l.watcher.SetChangeCallback(func(css string) {
		dispatch(func() {
			l.mu.Lock()
			l.provider.LoadFromString(css)
			l.mu.Unlock()
			l.logger.Info("hot-reloaded theme", "name", l.CurrentTheme())
		})
	})
	if err := l.watcher.Start(ctx); err != nil {
		l.logger.Warn("failed to start theme watcher", "error", err)
	}
}

// StopHotReload stops watching the theme.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
}

// CurrentTheme returns the name of the loaded theme.
func (l *Loader) CurrentTheme() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.theme == nil {
		return ""
	}
	return l.theme.Name
}
