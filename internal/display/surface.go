package display

import (
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/danmaq/internal/canvas"
	"github.com/jmylchreest/danmaq/internal/model"
)

// Renderer creates label surfaces on an overlay.
type Renderer struct {
	overlay *Overlay
	logger  *slog.Logger
}

// NewRenderer creates a renderer drawing into overlay.
func NewRenderer(overlay *Overlay, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{overlay: overlay, logger: logger}
}

// NewSurface creates a hidden label for text, measured with the active theme.
func (r *Renderer) NewSurface(text string, style model.Style, wrapWidth int) canvas.Surface {
	label := gtk.NewLabel("")
	label.SetMarkup(markup(text, style))
	label.SetCanTarget(false)
	label.SetOpacity(0)
	for _, class := range surfaceClasses(style, wrapWidth > 0) {
		label.AddCSSClass(class)
	}
	if wrapWidth > 0 {
		label.SetWrap(true)
		label.SetMaxWidthChars(1)
		label.SetXAlign(0)
		label.SetSizeRequest(wrapWidth, -1)
	}

	// Parented before measuring so theme rules under the overlay apply.
	r.overlay.put(label, canvas.Point{X: r.overlay.geometry.X, Y: r.overlay.geometry.Y})

	s := &Surface{label: label, overlay: r.overlay, logger: r.logger}
	_, s.width, _, _ = label.Measure(gtk.OrientationHorizontal, -1)
	if wrapWidth > 0 {
		s.width = max(s.width, wrapWidth)
	}
	_, s.height, _, _ = label.Measure(gtk.OrientationVertical, s.width)
	return s
}

// Surface is a comment label on the overlay.
type Surface struct {
	label   *gtk.Label
	overlay *Overlay
	logger  *slog.Logger

	width, height int
	anim          *animation
	closed        bool
}

// Size returns the measured label size.
func (s *Surface) Size() (int, int) {
	return s.width, s.height
}

// Move places the label and makes it visible.
func (s *Surface) Move(p canvas.Point) {
	if s.closed {
		return
	}
	s.overlay.move(s.label, p)
	s.label.SetOpacity(1)
}

// Animate moves the label linearly from one point to another. A shift
// started while another is running finishes the earlier one first.
func (s *Surface) Animate(from, to canvas.Point, d time.Duration) canvas.Animation {
	a := &animation{}
	if s.closed {
		a.finish()
		return a
	}
	if s.anim != nil && !s.anim.done {
		s.anim.timed.Skip()
	}

	s.Move(from)
	target := adw.NewCallbackAnimationTarget(func(v float64) {
		if s.closed {
			return
		}
		s.overlay.move(s.label, lerp(from, to, v))
	})
	a.timed = adw.NewTimedAnimation(s.label, 0, 1, uint(max(d.Milliseconds(), 0)), target)
	a.timed.SetEasing(adw.Linear)
	a.timed.ConnectDone(a.finish)
	s.anim = a
	a.timed.Play()
	return a
}

// Close stops any motion and removes the label from the overlay.
func (s *Surface) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.anim != nil && !s.anim.done {
		s.anim.timed.Pause()
	}
	s.overlay.remove(s.label)
}

// animation adapts adw.TimedAnimation to canvas.Animation. Callbacks
// registered after the motion ended run immediately.
type animation struct {
	timed     *adw.TimedAnimation
	done      bool
	callbacks []func()
}

func (a *animation) OnComplete(fn func()) {
	if a.done {
		fn()
		return
	}
	a.callbacks = append(a.callbacks, fn)
}

func (a *animation) finish() {
	if a.done {
		return
	}
	a.done = true
	for _, fn := range a.callbacks {
		fn()
	}
	a.callbacks = nil
}

func lerp(from, to canvas.Point, v float64) canvas.Point {
	return canvas.Point{
		X: from.X + int(float64(to.X-from.X)*v),
		Y: from.Y + int(float64(to.Y-from.Y)*v),
	}
}

// markup renders text as Pango markup carrying the font and translucent fill.
func markup(text string, style model.Style) string {
	weight := "normal"
	if style.Font.Bold {
		weight = "bold"
	}
	alpha := max(int(style.Fill.AlphaPercent()+0.5), 1)
	return fmt.Sprintf(`<span font_family="%s" size="%d" weight="%s" foreground="%s" alpha="%s%%">%s</span>`,
		html.EscapeString(style.Font.Family),
		style.Font.Size*1024,
		weight,
		style.Fill.Hex(),
		strconv.Itoa(alpha),
		html.EscapeString(text),
	)
}

// surfaceClasses returns the CSS classes themes use to style a comment.
func surfaceClasses(style model.Style, vertical bool) []string {
	classes := []string{"danmaku"}
	if style.Outline == (model.RGB{}) {
		classes = append(classes, "outline-dark")
	} else {
		classes = append(classes, "outline-light")
	}
	if vertical {
		classes = append(classes, "vertical")
	}
	return classes
}
