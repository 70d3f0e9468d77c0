package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jmylchreest/danmaq/internal/model"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a resolved stylesheet.
type Theme struct {
	Name    string
	Path    string // Empty for embedded themes
	CSS     string // With imports inlined
	ModTime time.Time
	Bundled bool
}

// ThemesDir returns the path to the user's themes directory.
func ThemesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "danmaq", "themes"), nil
}

// NewTheme loads a CSS file and inlines its imports.
func NewTheme(name, path string) (*Theme, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Theme{
		Name:    name,
		Path:    path,
		CSS:     ProcessImports(string(css), filepath.Dir(path), nil),
		ModTime: info.ModTime(),
	}, nil
}

// Resolve finds a theme by name: the user themes directory first, then the
// bundled set, then the default theme.
func Resolve(name, themesDir string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	if themesDir != "" {
		path := filepath.Join(themesDir, name+".css")
		if _, err := os.Stat(path); err == nil {
			t, err := NewTheme(name, path)
			if err == nil {
				return t, nil
			}
			// Fall through to bundled themes
		}
	}

	if css, found := BundledTheme(name); found {
		return &Theme{Name: name, CSS: ProcessImports(css, "", nil), Bundled: true}, nil
	}

	css, _ := BundledTheme(DefaultThemeName)
	t := &Theme{Name: DefaultThemeName, CSS: ProcessImports(css, "", nil), Bundled: true}
	return t, fmt.Errorf("theme %q not found, using %s", name, DefaultThemeName)
}

// ProcessImports resolves and inlines @import statements in CSS.
// Imports are resolved relative to baseDir, falling back to embedded partials.
// The seen map prevents circular imports.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		importPath := submatch[1]

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}

		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		imported, err := os.ReadFile(fullPath)
		if err != nil {
			if embedded, found := bundledImport(filepath.Base(importPath)); found {
				return "/* imported (embedded): " + importPath + " */\n" + embedded
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		return "/* imported: " + importPath + " */\n" +
			ProcessImports(string(imported), filepath.Dir(fullPath), seen)
	})
}

// Reload re-reads a user theme. It reports whether the CSS changed.
func (t *Theme) Reload() (bool, error) {
	if t.Bundled {
		return false, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return false, err
	}
	css, err := os.ReadFile(t.Path)
	if err != nil {
		return false, err
	}

	processed := ProcessImports(string(css), filepath.Dir(t.Path), nil)
	changed := processed != t.CSS
	t.CSS = processed
	t.ModTime = info.ModTime()
	return changed, nil
}

// ListAvailableThemes lists bundled themes followed by user themes in themesDir.
func ListAvailableThemes(themesDir string) ([]string, error) {
	seen := make(map[string]bool)
	var themes []string
	for _, name := range BundledThemes() {
		seen[name] = true
		themes = append(themes, name)
	}

	if themesDir == "" {
		return themes, nil
	}
	entries, err := os.ReadDir(themesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return themes, nil
		}
		return themes, err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "_") || filepath.Ext(name) != ".css" {
			continue
		}
		if themeName := strings.TrimSuffix(name, ".css"); !seen[themeName] {
			seen[themeName] = true
			themes = append(themes, themeName)
		}
	}
	return themes, nil
}

// FontCSS renders the comment font and outline shadow rules.
func FontCSS(font model.Font, shadowBlur int) string {
	weight := "normal"
	if font.Bold {
		weight = "bold"
	}
	family := strings.ReplaceAll(font.Family, `"`, `\"`)

	var b strings.Builder
	fmt.Fprintf(&b, ".danmaku {\n  font-family: \"%s\";\n  font-size: %dpt;\n  font-weight: %s;\n}\n", family, font.Size, weight)
	fmt.Fprintf(&b, ".danmaku.outline-dark {\n  text-shadow: 0 0 %dpx black;\n}\n", shadowBlur)
	fmt.Fprintf(&b, ".danmaku.outline-light {\n  text-shadow: 0 0 %dpx white;\n}\n", shadowBlur)
	return b.String()
}
