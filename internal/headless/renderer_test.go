package headless

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/danmaq/internal/canvas"
	"github.com/jmylchreest/danmaq/internal/model"
)

var font = model.Font{Family: "Sans", Size: 24, Bold: true}

func TestMeasure(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wrap   int
		width  int
		height int
	}{
		// 24pt = 32px, 16px per cell, 40px per line
		{"ascii", "abc", 0, 48, 40},
		{"wide runes", "弾幕", 0, 64, 40},
		{"mixed", "ok弾", 0, 64, 40},
		{"multi line", "ab\nabcd", 0, 64, 80},
		{"wrap fits", "abcd", 160, 160, 40},
		{"wrap breaks", "abcdefghijklmnopqrstuvwxy", 160, 160, 120},
		{"wrap wide", "弾幕弾幕弾幕", 160, 160, 80},
		{"empty", "", 0, 0, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Measure(tt.text, font, tt.wrap)
			assert.Equal(t, tt.width, w)
			assert.Equal(t, tt.height, h)
		})
	}
}

func TestSurface_AnimationCompletes(t *testing.T) {
	sched := canvas.NewManualScheduler()
	r := NewRenderer(sched, nil)

	s := r.NewSurface("hi", model.NewStyle(font, model.ColorWhite, 6), 0).(*Surface)
	done := 0
	s.Animate(canvas.Point{X: 100}, canvas.Point{X: -32}, time.Second).OnComplete(func() { done++ })
	assert.Equal(t, canvas.Point{X: 100}, s.Position())

	sched.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, done)

	sched.Advance(time.Millisecond)
	assert.Equal(t, 1, done)
	assert.Equal(t, canvas.Point{X: -32}, s.Position())
}

func TestRenderer_DrivesCanvas(t *testing.T) {
	sched := canvas.NewManualScheduler()
	cv, err := canvas.New(canvas.Rect{Width: 1280, Height: 720}, canvas.DefaultConfig(), NewRenderer(sched, nil), sched, nil)
	require.NoError(t, err)

	c, err := cv.NewComment("hello", model.ColorWhite, model.PositionTopScroll)
	require.NoError(t, err)
	assert.Equal(t, 80, c.Geometry().Width)
	assert.Equal(t, 1, cv.Snapshot().Active)

	sched.Advance(10 * time.Second)
	assert.Equal(t, canvas.StateClosed, c.State())
	assert.Equal(t, 0, cv.Active())
}
