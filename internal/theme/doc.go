// Package theme handles CSS theme loading and hot-reload for danmaqd.
// Themes come from ~/.config/danmaq/themes/ or the embedded set, and the
// configured font is layered on top as a generated stylesheet.
package theme
