// Package headless implements a canvas renderer that draws nothing.
// Surfaces are measured from their text and animations complete on the
// injected scheduler, so the daemon can run without a display server.
package headless

import (
	"log/slog"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jmylchreest/danmaq/internal/canvas"
	"github.com/jmylchreest/danmaq/internal/model"
)

// Renderer creates logging surfaces.
type Renderer struct {
	sched  canvas.Scheduler
	logger *slog.Logger
	seq    int
}

// NewRenderer creates a renderer whose animations finish on sched.
func NewRenderer(sched canvas.Scheduler, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{sched: sched, logger: logger}
}

// fontPixels converts a point size to pixels at 96 dpi.
func fontPixels(pt int) int {
	return pt * 4 / 3
}

// Measure returns the pixel size the text would occupy. Each terminal cell
// counts as half the font's pixel size; wrapped text keeps the wrap width.
func Measure(text string, font model.Font, wrapWidth int) (width, height int) {
	px := max(fontPixels(font.Size), 2)
	cell := px / 2
	lineHeight := px + px/4

	if wrapWidth <= 0 {
		widest := 0
		lines := strings.Split(text, "\n")
		for _, line := range lines {
			widest = max(widest, runewidth.StringWidth(line))
		}
		return widest * cell, len(lines) * lineHeight
	}

	return wrapWidth, wrapLines(text, max(wrapWidth/cell, 1)) * lineHeight
}

// wrapLines counts the lines text takes when broken at cols cells.
func wrapLines(text string, cols int) int {
	lines := 0
	for _, para := range strings.Split(text, "\n") {
		lines++
		used := 0
		for _, r := range para {
			w := runewidth.RuneWidth(r)
			if used+w > cols && used > 0 {
				lines++
				used = 0
			}
			used += w
		}
	}
	return lines
}

// NewSurface implements canvas.Renderer.
func (r *Renderer) NewSurface(text string, style model.Style, wrapWidth int) canvas.Surface {
	r.seq++
	w, h := Measure(text, style.Font, wrapWidth)
	s := &Surface{
		id:     r.seq,
		text:   text,
		width:  w,
		height: h,
		sched:  r.sched,
		logger: r.logger.With("surface", r.seq),
	}
	s.logger.Debug("surface created",
		"text", runewidth.Truncate(text, 32, "…"),
		"size", [2]int{w, h},
		"fill", style.Fill.Fill(),
		"outline", style.Outline.Hex(),
	)
	return s
}

// Surface is a measured, invisible comment surface.
type Surface struct {
	id            int
	text          string
	width, height int
	pos           canvas.Point
	closed        bool

	sched  canvas.Scheduler
	logger *slog.Logger
}

// Size implements canvas.Surface.
func (s *Surface) Size() (int, int) {
	return s.width, s.height
}

// Position returns the last point the surface was moved or animated to.
func (s *Surface) Position() canvas.Point {
	return s.pos
}

// Closed reports whether Close was called.
func (s *Surface) Closed() bool {
	return s.closed
}

// Move implements canvas.Surface.
func (s *Surface) Move(p canvas.Point) {
	s.pos = p
	s.logger.Debug("surface moved", "x", p.X, "y", p.Y)
}

// Animate implements canvas.Surface. The surface jumps to the target when the
// motion completes.
func (s *Surface) Animate(from, to canvas.Point, d time.Duration) canvas.Animation {
	s.pos = from
	a := &animation{}
	s.logger.Debug("surface animating", "from", from, "to", to, "duration", d)
	s.sched.Schedule(d, func() {
		s.pos = to
		a.finish()
	})
	return a
}

// Close implements canvas.Surface.
func (s *Surface) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.logger.Debug("surface closed")
}

type animation struct {
	done     bool
	handlers []func()
}

func (a *animation) OnComplete(fn func()) {
	if a.done {
		fn()
		return
	}
	a.handlers = append(a.handlers, fn)
}

func (a *animation) finish() {
	a.done = true
	for _, fn := range a.handlers {
		fn()
	}
	a.handlers = nil
}
