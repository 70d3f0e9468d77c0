// Package daemon provides the main orchestration for danmaqd.
// It owns the canvas for the active monitor, the headless event loop
// and the configuration hot-reload watcher.
package daemon
