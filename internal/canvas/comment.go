package canvas

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/danmaq/internal/model"
)

// State is a comment lifecycle state.
type State int

const (
	StateInitializing State = iota
	StateInMotion
	StateClosing
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateInMotion:
		return "in-motion"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Comment is one danmaku bound to a slot lease on its canvas.
// The canvas outlives every comment it creates.
type Comment struct {
	id       string
	text     string
	color    model.Color
	position model.Position
	slot     int

	canvas  *Canvas
	surface Surface

	x, y          int // Canvas-local position
	width, height int

	state  State
	onExit func(c *Comment)
}

func newComment(cv *Canvas, text string, color model.Color, position model.Position, slot int) *Comment {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		id = ulid.Make()
	}

	wrap := 0
	if position == model.PositionVertical {
		wrap = cv.config.StackWidth
	}
	style := model.NewStyle(cv.config.Font, color, cv.config.ShadowBlur)
	surface := cv.renderer.NewSurface(text, style, wrap)
	w, h := surface.Size()

	return &Comment{
		id:       id.String(),
		text:     text,
		color:    color,
		position: position,
		slot:     slot,
		canvas:   cv,
		surface:  surface,
		width:    w,
		height:   h,
		state:    StateInitializing,
	}
}

// ID returns the comment's ULID.
func (c *Comment) ID() string { return c.id }

// Text returns the displayed text.
func (c *Comment) Text() string { return c.text }

// Color returns the packed fill color.
func (c *Comment) Color() model.Color { return c.color }

// Position returns the display kind.
func (c *Comment) Position() model.Position { return c.position }

// Slot returns the leased row. For vertical-stack comments it is the nominal
// anchor row and holds no lease.
func (c *Comment) Slot() int { return c.slot }

// State returns the lifecycle state.
func (c *Comment) State() State { return c.state }

// Geometry returns the canvas-local rectangle. For moving comments X is the
// start of the motion.
func (c *Comment) Geometry() Rect {
	return Rect{X: c.x, Y: c.y, Width: c.width, Height: c.height}
}

// start places the surface and begins the motion for the comment's kind.
func (c *Comment) start() {
	cv := c.canvas
	cfg := cv.config
	screenW := cv.screen.Width
	c.y = cv.SlotY(c.slot)

	switch c.position {
	case model.PositionTopScroll, model.PositionBottomScroll:
		c.x = screenW - 1
		c.linearMotion(c.x, -c.width, cfg.ScrollDuration)
	case model.PositionTopReverse:
		c.x = -c.width
		c.linearMotion(c.x, screenW-1, cfg.ScrollDuration)
	case model.PositionTopStatic, model.PositionBottomStatic:
		c.x = (screenW - c.width) / 2
		c.linearMotion(c.x, c.x, cfg.StaticDuration)
	case model.PositionVertical:
		c.x = cfg.StackX
		c.y -= c.height - cfg.StackBaseline
		c.surface.Move(cv.GlobalPoint(Point{X: c.x, Y: c.y}))
		c.transition(StateInMotion)
		cv.sched.Schedule(cfg.StackTimeout, c.close)
	}
}

// linearMotion animates horizontally at the comment's row and closes on completion.
// Static comments use the same path with equal endpoints so every kind shares
// one completion hook.
func (c *Comment) linearMotion(startX, endX int, d time.Duration) {
	cv := c.canvas
	from := cv.GlobalPoint(Point{X: startX, Y: c.y})
	to := cv.GlobalPoint(Point{X: endX, Y: c.y})
	c.transition(StateInMotion)
	c.surface.Animate(from, to, d).OnComplete(c.close)
}

// ShiftUp moves a vertical-stack comment up by dy pixels. A comment that would
// cross above the top margin closes at once instead of animating.
func (c *Comment) ShiftUp(dy int) {
	if c.position != model.PositionVertical || c.state != StateInMotion {
		return
	}

	cv := c.canvas
	cur := cv.GlobalPoint(Point{X: c.x, Y: c.y})
	c.y -= dy
	if c.y < cv.config.Margin {
		c.close()
		return
	}
	next := cv.GlobalPoint(Point{X: c.x, Y: c.y})
	c.surface.Animate(cur, next, cv.config.ShiftDuration)
}

// close runs the terminal transition. Later timer or animation callbacks are no-ops.
func (c *Comment) close() {
	if c.state >= StateClosing {
		return
	}
	c.transition(StateClosing)
	c.transition(StateClosed)
	if c.onExit != nil {
		c.onExit(c)
	}
	c.surface.Close()
}

func (c *Comment) transition(next State) {
	c.canvas.logger.Debug("danmaku state", "id", c.id, "from", c.state.String(), "to", next.String())
	c.state = next
}
