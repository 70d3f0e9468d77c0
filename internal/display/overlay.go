package display

import (
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/danmaq/internal/canvas"
)

// OverlayNamespace is the layer-shell namespace and the window CSS class.
const OverlayNamespace = "danmaq-overlay"

// Overlay is the transparent full-monitor window that hosts comment labels.
type Overlay struct {
	window   *gtk.Window
	fixed    *gtk.Fixed
	geometry canvas.Rect
	logger   *slog.Logger
}

// NewOverlay creates the overlay window on monitor. The window is not shown
// until Show is called.
func NewOverlay(app *gtk.Application, monitor *gdk.Monitor, logger *slog.Logger) (*Overlay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !layershell.IsSupported() {
		return nil, &DisplayError{Message: "compositor does not support wlr-layer-shell"}
	}

	geometry, err := MonitorGeometry(monitor)
	if err != nil {
		return nil, err
	}

	o := &Overlay{
		geometry: geometry,
		logger:   logger,
	}

	o.window = gtk.NewWindow()
	o.window.SetApplication(app)
	o.window.SetDecorated(false)
	o.window.SetResizable(false)
	o.window.SetCanTarget(false)
	o.window.SetFocusable(false)
	o.window.AddCSSClass(OverlayNamespace)

	layershell.InitForWindow(o.window)
	layershell.SetLayer(o.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(o.window, 0)
	layershell.SetKeyboardMode(o.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(o.window, OverlayNamespace)
	for _, edge := range []layershell.LayerShellEdge{
		layershell.LayerShellEdgeTop,
		layershell.LayerShellEdgeBottom,
		layershell.LayerShellEdgeLeft,
		layershell.LayerShellEdgeRight,
	} {
		layershell.SetAnchor(o.window, edge, true)
		layershell.SetMargin(o.window, edge, 0)
	}
	layershell.SetMonitor(o.window, monitor)

	o.fixed = gtk.NewFixed()
	o.fixed.SetCanTarget(false)
	o.window.SetChild(o.fixed)

	logger.Debug("overlay created",
		"x", geometry.X, "y", geometry.Y,
		"width", geometry.Width, "height", geometry.Height,
	)
	return o, nil
}

// Geometry returns the covered monitor rectangle in global coordinates.
func (o *Overlay) Geometry() canvas.Rect {
	return o.geometry
}

// SetMonitor moves the overlay to another monitor.
func (o *Overlay) SetMonitor(monitor *gdk.Monitor) error {
	geometry, err := MonitorGeometry(monitor)
	if err != nil {
		return err
	}
	layershell.SetMonitor(o.window, monitor)
	o.geometry = geometry
	o.logger.Info("overlay moved", "width", geometry.Width, "height", geometry.Height)
	return nil
}

// Show presents the overlay.
// TODO: set an empty input region on the surface once gotk4 exposes
// cairo regions for gdk.Surface, so pointer events pass through.
func (o *Overlay) Show() {
	o.window.SetVisible(true)
}

// Close destroys the overlay window.
func (o *Overlay) Close() {
	o.window.Destroy()
}

// local converts a global point to window coordinates.
func (o *Overlay) local(p canvas.Point) (float64, float64) {
	return float64(p.X - o.geometry.X), float64(p.Y - o.geometry.Y)
}

func (o *Overlay) put(w gtk.Widgetter, p canvas.Point) {
	x, y := o.local(p)
	o.fixed.Put(w, x, y)
}

func (o *Overlay) move(w gtk.Widgetter, p canvas.Point) {
	x, y := o.local(p)
	o.fixed.Move(w, x, y)
}

func (o *Overlay) remove(w gtk.Widgetter) {
	o.fixed.Remove(w)
}
