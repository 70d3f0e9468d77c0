package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/danmaq/internal/config"
)

func startWatcher(t *testing.T) (*ConfigWatcher, string, chan *config.DaemonConfig, chan error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "danmaqd.toml")

	w, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	reloads := make(chan *config.DaemonConfig, 4)
	errs := make(chan error, 4)
	w.SetReloadCallback(func(c *config.DaemonConfig) { reloads <- c })
	w.SetErrorCallback(func(err error) { errs <- err })

	require.NoError(t, w.Start(context.Background(), config.DefaultDaemonConfig()))
	t.Cleanup(w.Stop)
	return w, path, reloads, errs
}

func TestConfigWatcher_Reload(t *testing.T) {
	w, path, reloads, _ := startWatcher(t)

	require.NoError(t, os.WriteFile(path, []byte("[display]\nline_height = 48\n"), 0644))

	select {
	case cfg := <-reloads:
		assert.Equal(t, 48, cfg.Display.LineHeight)
		assert.Same(t, cfg, w.Current())
	case <-time.After(3 * time.Second):
		t.Fatal("no reload")
	}
}

func TestConfigWatcher_InvalidKeepsOld(t *testing.T) {
	w, path, reloads, errs := startWatcher(t)
	initial := w.Current()

	require.NoError(t, os.WriteFile(path, []byte("[audio]\nvolume = 900\n"), 0644))

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "volume")
		assert.Same(t, initial, w.Current())
	case <-reloads:
		t.Fatal("invalid config was applied")
	case <-time.After(3 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	_, path, reloads, _ := startWatcher(t)

	other := filepath.Join(filepath.Dir(path), "other.toml")
	require.NoError(t, os.WriteFile(other, []byte("x = 1\n"), 0644))

	select {
	case <-reloads:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(200 * time.Millisecond):
	}
}
