package theme

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed themes/*.css
var bundledFS embed.FS

// DefaultThemeName is the theme used when none is configured or found.
const DefaultThemeName = "default"

// BundledTheme returns the CSS of a theme shipped with danmaqd, without
// resolving its imports. Partials are not themes.
func BundledTheme(name string) (string, bool) {
	if name == "" || strings.HasPrefix(name, "_") {
		return "", false
	}
	return bundledFile(name + ".css")
}

// BundledThemes lists the shipped theme names.
func BundledThemes() []string {
	files, _ := fs.Glob(bundledFS, "themes/[^_]*.css")
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, strings.TrimSuffix(path.Base(file), ".css"))
	}
	return names
}

// bundledImport serves an @import target missing from disk. Both partials
// (_outline.css) and whole themes may be imported.
func bundledImport(base string) (string, bool) {
	if !strings.HasSuffix(base, ".css") {
		base += ".css"
	}
	return bundledFile(base)
}

func bundledFile(file string) (string, bool) {
	data, err := bundledFS.ReadFile(path.Join("themes", file))
	if err != nil {
		return "", false
	}
	return string(data), true
}
