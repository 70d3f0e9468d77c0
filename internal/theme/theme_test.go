package theme

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/danmaq/internal/model"
)

func TestBundledThemes(t *testing.T) {
	assert.Equal(t, []string{"default", "minimal"}, BundledThemes())

	_, ok := BundledTheme("default")
	assert.True(t, ok)
	_, ok = BundledTheme("_outline")
	assert.False(t, ok, "partials are not themes")

	partial, ok := bundledImport("_outline")
	require.True(t, ok)
	assert.Contains(t, partial, ".outline-dark")
}

func TestProcessImports_NoImports(t *testing.T) {
	css := `.danmaku { color: red; }`
	assert.Equal(t, css, ProcessImports(css, "", nil))
}

func TestProcessImports_EmbeddedPartial(t *testing.T) {
	css, _ := BundledTheme("default")
	result := ProcessImports(css, "", nil)
	assert.Contains(t, result, "/* imported (embedded): _outline.css */")
	assert.Contains(t, result, ".danmaku.outline-light")
	assert.NotContains(t, result, "@import")
}

func TestProcessImports_NestedAndCircular(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_a.css"), []byte(`@import "_b.css";
.a { color: red; }`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_b.css"), []byte(`@import "_a.css";
.b { color: blue; }`), 0644))

	result := ProcessImports(`@import url("_a.css");
.main {}`, dir, nil)

	assert.Contains(t, result, "/* imported: _a.css */")
	assert.Contains(t, result, "/* imported: _b.css */")
	assert.Contains(t, result, "/* circular import prevented: _a.css */")
	assert.Contains(t, result, ".main")
}

func TestProcessImports_Missing(t *testing.T) {
	result := ProcessImports(`@import "nowhere.css";`, t.TempDir(), nil)
	assert.Contains(t, result, "/* import failed: nowhere.css")
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "minimal.css"), []byte(`.danmaku { padding: 9px; }`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "neon.css"), []byte(`.danmaku { color: lime; }`), 0644))

	tests := []struct {
		name    string
		theme   string
		bundled bool
		resolve string
		wantErr bool
	}{
		{"empty selects default", "", true, "default", false},
		{"bundled", "default", true, "default", false},
		{"user overrides bundled", "minimal", false, "minimal", false},
		{"user only", "neon", false, "neon", false},
		{"unknown falls back", "nope", true, "default", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := Resolve(tt.theme, dir)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.NotNil(t, th)
			assert.Equal(t, tt.resolve, th.Name)
			assert.Equal(t, tt.bundled, th.Bundled)
		})
	}
}

func TestListAvailableThemes(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"neon.css", "default.css", "_part.css", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	themes, err := ListAvailableThemes(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"default", "minimal", "neon"}, themes)

	themes, err = ListAvailableThemes(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"default", "minimal"}, themes)
}

func TestThemeReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neon.css")
	require.NoError(t, os.WriteFile(path, []byte(`.danmaku { color: lime; }`), 0644))

	th, err := NewTheme("neon", path)
	require.NoError(t, err)

	changed, err := th.Reload()
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(path, []byte(`.danmaku { color: pink; }`), 0644))
	changed, err = th.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, th.CSS, "pink")
}

func TestFontCSS(t *testing.T) {
	css := FontCSS(model.Font{Family: `Noto "Sans" CJK`, Size: 24, Bold: true}, 6)
	assert.Contains(t, css, `font-family: "Noto \"Sans\" CJK";`)
	assert.Contains(t, css, "font-size: 24pt;")
	assert.Contains(t, css, "font-weight: bold;")
	assert.Contains(t, css, "text-shadow: 0 0 6px black;")
	assert.Contains(t, css, "text-shadow: 0 0 6px white;")

	assert.Contains(t, FontCSS(model.Font{Family: "Sans", Size: 12}, 0), "font-weight: normal;")
}

func TestWatcher_ReportsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neon.css")
	require.NoError(t, os.WriteFile(path, []byte(`.danmaku { color: lime; }`), 0644))
	th, err := NewTheme("neon", path)
	require.NoError(t, err)

	w := NewWatcher(th, nil)
	got := make(chan string, 16)
	w.SetChangeCallback(func(css string) {
		select {
		case got <- css:
		default:
		}
	})
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	require.NoError(t, os.WriteFile(path, []byte(`.danmaku { color: pink; }`), 0644))

	// A write may surface as truncate then write; wait for the final content.
	timeout := time.After(3 * time.Second)
	for {
		select {
		case css := <-got:
			if strings.Contains(css, "pink") {
				return
			}
		case <-timeout:
			t.Fatal("no change reported")
		}
	}
}

func TestWatcher_BundledIgnored(t *testing.T) {
	th, err := Resolve("default", "")
	require.NoError(t, err)
	w := NewWatcher(th, nil)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
}
