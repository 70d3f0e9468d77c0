package display

import (
	"log/slog"
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"

	"github.com/jmylchreest/danmaq/internal/canvas"
)

// LayoutManager resolves the configured monitor and its geometry.
type LayoutManager struct {
	monitor int
	display *gdk.Display
	logger  *slog.Logger
}

// NewLayoutManager creates a layout manager for a 1-based monitor number.
// Zero selects the first monitor.
func NewLayoutManager(monitor int, logger *slog.Logger) *LayoutManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &LayoutManager{
		monitor: monitor,
		display: gdk.DisplayGetDefault(),
		logger:  logger,
	}
}

// SetMonitor changes the configured monitor number.
func (l *LayoutManager) SetMonitor(monitor int) {
	l.monitor = monitor
}

// GetMonitor returns the configured monitor, falling back to the first one
// when the number is 0 or out of range. Returns nil with no display.
func (l *LayoutManager) GetMonitor() *gdk.Monitor {
	if l.display == nil {
		return nil
	}

	monitors := l.display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		l.logger.Warn("no monitors available")
		return nil
	}

	index := uint(0)
	if l.monitor > 0 {
		index = uint(l.monitor - 1)
	}
	if index >= monitors.NItems() {
		l.logger.Warn("configured monitor not available, using first",
			"configured", l.monitor,
			"available", monitors.NItems(),
		)
		index = 0
	}

	return wrapMonitor(monitors.Item(index))
}

// MonitorGeometry returns the monitor rectangle in global logical pixels.
func MonitorGeometry(monitor *gdk.Monitor) (canvas.Rect, error) {
	if monitor == nil {
		return canvas.Rect{}, &DisplayError{Message: "no monitor"}
	}
	g := monitor.Geometry()
	if g == nil || g.Width() <= 0 || g.Height() <= 0 {
		return canvas.Rect{}, &DisplayError{Message: "monitor has no geometry"}
	}
	return canvas.Rect{X: g.X(), Y: g.Y(), Width: g.Width(), Height: g.Height()}, nil
}

// HandleMonitorChange refreshes the display reference after a hotplug.
func (l *LayoutManager) HandleMonitorChange() {
	l.display = gdk.DisplayGetDefault()
	if l.display == nil {
		l.logger.Warn("no display available after monitor change")
		return
	}
	if monitors := l.display.Monitors(); monitors != nil {
		l.logger.Info("monitor configuration changed", "count", monitors.NItems())
	}
}

// wrapMonitor casts a list item to a gdk.Monitor. gotk4 keeps its own
// wrapper unexported, so this mirrors its struct layout.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
