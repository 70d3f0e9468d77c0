package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/danmaq/internal/canvas"
	"github.com/jmylchreest/danmaq/internal/model"
)

func TestMarkup(t *testing.T) {
	font := model.Font{Family: "Noto Sans", Size: 24, Bold: true}

	t.Run("escapes text", func(t *testing.T) {
		got := markup(`<b>"hi" & bye</b>`, model.NewStyle(font, 0xFFFFFFFF, 6))
		assert.Contains(t, got, "&lt;b&gt;&#34;hi&#34; &amp; bye&lt;/b&gt;")
		assert.NotContains(t, got, "<b>")
	})

	t.Run("fill and font", func(t *testing.T) {
		got := markup("x", model.NewStyle(font, 0xFF000080, 6))
		assert.Contains(t, got, `foreground="#ff0000"`)
		assert.Contains(t, got, `alpha="50%"`)
		assert.Contains(t, got, `size="24576"`)
		assert.Contains(t, got, `weight="bold"`)
		assert.Contains(t, got, `font_family="Noto Sans"`)
	})

	t.Run("transparent fill keeps minimum alpha", func(t *testing.T) {
		got := markup("x", model.NewStyle(model.Font{Family: "Sans", Size: 10}, 0x00000000, 0))
		assert.Contains(t, got, `alpha="1%"`)
		assert.Contains(t, got, `weight="normal"`)
	})
}

func TestSurfaceClasses(t *testing.T) {
	font := model.Font{Family: "Sans", Size: 24}

	tests := []struct {
		name     string
		color    model.Color
		vertical bool
		want     []string
	}{
		{"bright fill", 0xFFFFFFFF, false, []string{"danmaku", "outline-dark"}},
		{"dark fill", 0x202020FF, false, []string{"danmaku", "outline-light"}},
		{"vertical", 0xFFFFFFFF, true, []string{"danmaku", "outline-dark", "vertical"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, surfaceClasses(model.NewStyle(font, tt.color, 0), tt.vertical))
		})
	}
}

func TestLerp(t *testing.T) {
	from := canvas.Point{X: 1919, Y: 60}
	to := canvas.Point{X: -200, Y: 60}

	assert.Equal(t, from, lerp(from, to, 0))
	assert.Equal(t, to, lerp(from, to, 1))
	assert.Equal(t, canvas.Point{X: 1919 - 1059, Y: 60}, lerp(from, to, 0.5))
}

func TestAnimationCallbacks(t *testing.T) {
	a := &animation{}
	calls := 0
	a.OnComplete(func() { calls++ })
	a.finish()
	a.finish()
	assert.Equal(t, 1, calls)

	a.OnComplete(func() { calls++ })
	assert.Equal(t, 2, calls, "late callbacks run immediately")
}

func TestDisplayError(t *testing.T) {
	inner := assert.AnError
	err := &DisplayError{Message: "no monitor", Cause: inner}
	assert.Equal(t, "no monitor: "+inner.Error(), err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "plain", (&DisplayError{Message: "plain"}).Error())
}
