package canvas

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/jmylchreest/danmaq/internal/model"
)

// ErrNoSlot is returned when no free row was found for a comment.
var ErrNoSlot = errors.New("no free slot")

// NoSlot is the slot index of comments that hold no table lease.
const NoSlot = -1

const (
	probeBudget    = 10
	preferredProbe = 5
)

// Config holds the layout constants and timings of a canvas.
type Config struct {
	LineHeight int // Row height in pixels
	Margin     int // Vertical inset excluded from rows, top and bottom

	StackX        int // Left edge of vertical-stack comments
	StackWidth    int // Wrap width of vertical-stack comments
	StackGap      int // Extra spacing added when pushing the stack up
	StackBaseline int // Offset from the anchor row to the comment bottom

	ScrollDuration time.Duration
	StaticDuration time.Duration
	StackTimeout   time.Duration
	ShiftDuration  time.Duration

	Font       model.Font
	ShadowBlur int
}

// DefaultConfig returns the stock layout.
func DefaultConfig() Config {
	return Config{
		LineHeight:     40,
		Margin:         20,
		StackX:         150,
		StackWidth:     400,
		StackGap:       14,
		StackBaseline:  18,
		ScrollDuration: 10 * time.Second,
		StaticDuration: 10 * time.Second,
		StackTimeout:   20 * time.Second,
		ShiftDuration:  100 * time.Millisecond,
		Font:           model.Font{Family: "Sans", Size: 24, Bold: true},
		ShadowBlur:     6,
	}
}

// Status is a point-in-time copy of the canvas occupancy.
type Status struct {
	Flying  []bool
	Static  []bool
	Stacked int
	Active  int
}

// Canvas owns the row slot tables of one screen and tracks live comments.
type Canvas struct {
	screen   Rect
	config   Config
	renderer Renderer
	sched    Scheduler
	rng      RandSource
	logger   *slog.Logger

	flying  *SlotTable
	static  *SlotTable
	stacked []*Comment // Insertion order, oldest first

	active map[string]*Comment

	onClose func(c *Comment)
}

// New creates a canvas covering screen. The row count is fixed here:
// (screen height - 2*margin) / line height.
func New(screen Rect, cfg Config, renderer Renderer, sched Scheduler, logger *slog.Logger) (*Canvas, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LineHeight <= 0 {
		return nil, fmt.Errorf("line height must be positive, got %d", cfg.LineHeight)
	}
	if renderer == nil || sched == nil {
		return nil, errors.New("canvas requires a renderer and a scheduler")
	}

	rows := max((screen.Height-2*cfg.Margin)/cfg.LineHeight, 0)

	c := &Canvas{
		screen:   screen,
		config:   cfg,
		renderer: renderer,
		sched:    sched,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		logger:   logger,
		flying:   NewSlotTable(rows),
		static:   NewSlotTable(rows),
		active:   make(map[string]*Comment),
	}

	logger.Debug("canvas created",
		"screen", fmt.Sprintf("%dx%d+%d+%d", screen.Width, screen.Height, screen.X, screen.Y),
		"rows", rows,
		"line_height", cfg.LineHeight,
	)
	return c, nil
}

// SetRand replaces the random source used for flying-row probes.
func (c *Canvas) SetRand(r RandSource) {
	c.rng = r
}

// SetCloseCallback sets the callback invoked after a comment's slot is reclaimed.
func (c *Canvas) SetCloseCallback(cb func(comment *Comment)) {
	c.onClose = cb
}

// Screen returns the screen bounds.
func (c *Canvas) Screen() Rect {
	return c.screen
}

// Config returns the layout configuration.
func (c *Canvas) Config() Config {
	return c.config
}

// Rows returns the size of each slot table.
func (c *Canvas) Rows() int {
	return c.flying.Len()
}

// Active returns the number of live comments.
func (c *Canvas) Active() int {
	return len(c.active)
}

// Stacked returns the live vertical-stack comments, oldest first.
func (c *Canvas) Stacked() []*Comment {
	return slices.Clone(c.stacked)
}

// Snapshot returns a copy of the current occupancy.
func (c *Canvas) Snapshot() Status {
	return Status{
		Flying:  c.flying.Snapshot(),
		Static:  c.static.Snapshot(),
		Stacked: len(c.stacked),
		Active:  len(c.active),
	}
}

// SlotY returns the top pixel row of a slot.
func (c *Canvas) SlotY(slot int) int {
	return c.config.LineHeight*slot + c.config.Margin
}

// GlobalPoint translates a canvas-local point into absolute coordinates.
func (c *Canvas) GlobalPoint(p Point) Point {
	return c.screen.Origin().Add(p)
}

// AllocateSlot leases a row for a comment of the given position.
//
// Flying rows are found by up to ten random probes: the first five sample the
// preferred half (upper for top-scroll and top-reverse, lower for bottom-scroll),
// the rest the whole table. The search is probabilistic and may miss free rows.
// Static rows are scanned linearly, from the top for top-static and from the
// bottom for bottom-static.
func (c *Canvas) AllocateSlot(position model.Position) (int, error) {
	slot := NoSlot
	switch position {
	case model.PositionTopScroll, model.PositionTopReverse:
		n := c.flying.Len()
		slot = c.probe(0, n/2)
	case model.PositionBottomScroll:
		n := c.flying.Len()
		slot = c.probe(n/2, n-n/2)
	case model.PositionTopStatic:
		if slot = c.static.FirstFree(); slot >= 0 {
			c.static.TryAcquire(slot)
		}
	case model.PositionBottomStatic:
		if slot = c.static.LastFree(); slot >= 0 {
			c.static.TryAcquire(slot)
		}
	default:
		return NoSlot, model.ErrInvalidPosition
	}

	c.logger.Debug("slot allocation", "position", position.String(), "slot", slot)
	if slot < 0 {
		return NoSlot, ErrNoSlot
	}
	return slot, nil
}

// probe samples the flying table, preferring [base, base+span).
func (c *Canvas) probe(base, span int) int {
	n := c.flying.Len()
	if n == 0 {
		return NoSlot
	}
	for i := range probeBudget {
		var try int
		if i < preferredProbe && span > 0 {
			try = base + c.rng.IntN(span)
		} else {
			try = c.rng.IntN(n)
		}
		if c.flying.TryAcquire(try) {
			return try
		}
	}
	return NoSlot
}

// ReleaseSlot frees a row lease. Each successful allocation must be released once.
func (c *Canvas) ReleaseSlot(index int, table Table) {
	var t *SlotTable
	switch table {
	case TableFlying:
		t = c.flying
	case TableStatic:
		t = c.static
	default:
		c.logger.Warn("release into unknown table", "table", int(table), "slot", index)
		return
	}
	if index < 0 || index >= t.Len() {
		c.logger.Warn("release of out-of-range slot", "table", table.String(), "slot", index)
		return
	}
	if !t.Release(index) {
		c.logger.Debug("released slot was already free", "table", table.String(), "slot", index)
	}
}

// NewComment creates and starts a comment, or drops the request.
// Dropped requests return model.ErrInvalidPosition or ErrNoSlot; nothing is displayed.
func (c *Canvas) NewComment(text string, color model.Color, position model.Position) (*Comment, error) {
	if !position.Valid() {
		c.logger.Debug("dropping danmaku with invalid position", "position", int(position))
		return nil, model.ErrInvalidPosition
	}

	if position == model.PositionVertical {
		return c.newStacked(text, color), nil
	}

	slot, err := c.AllocateSlot(position)
	if err != nil {
		c.logger.Debug("screen is full, dropping danmaku", "position", position.String(), "error", err)
		return nil, err
	}

	comment := newComment(c, text, color, position, slot)
	c.register(comment)
	comment.start()
	return comment, nil
}

// newStacked inserts a vertical-stack comment at the bottom of the list,
// pushing the existing entries up by its height plus the stack gap.
func (c *Canvas) newStacked(text string, color model.Color) *Comment {
	anchor := c.static.Len() - 1
	comment := newComment(c, text, color, model.PositionVertical, anchor)
	c.register(comment)
	comment.start()

	dy := comment.height + c.config.StackGap
	for _, older := range slices.Clone(c.stacked) {
		older.ShiftUp(dy)
	}

	c.stacked = append(c.stacked, comment)
	return comment
}

func (c *Canvas) register(comment *Comment) {
	c.active[comment.id] = comment
	comment.onExit = c.deleteDanmaku
	c.logger.Debug("danmaku shown",
		"id", comment.id,
		"position", comment.position.String(),
		"slot", comment.slot,
		"active", len(c.active),
	)
}

// deleteDanmaku reclaims the slot or stack entry of a finished comment.
func (c *Canvas) deleteDanmaku(comment *Comment) {
	if _, ok := c.active[comment.id]; !ok {
		return
	}
	delete(c.active, comment.id)

	switch {
	case comment.position.IsScrolling():
		c.ReleaseSlot(comment.slot, TableFlying)
	case comment.position.IsStatic():
		c.ReleaseSlot(comment.slot, TableStatic)
	case comment.position == model.PositionVertical:
		c.stacked = slices.DeleteFunc(c.stacked, func(s *Comment) bool { return s == comment })
	}

	c.logger.Debug("danmaku closed", "id", comment.id, "position", comment.position.String())

	if c.onClose != nil {
		c.onClose(comment)
	}
}
