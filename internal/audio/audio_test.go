package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/danmaq/internal/config"
)

func TestVolumeToExponent(t *testing.T) {
	assert.InDelta(t, 0.0, volumeToExponent(1), 1e-9)
	assert.InDelta(t, -1.0, volumeToExponent(0.5), 1e-9)
	assert.InDelta(t, -2.0, volumeToExponent(0.25), 1e-9)
	assert.Equal(t, -10.0, volumeToExponent(0))
}

func TestPlayer_SetVolumeClamps(t *testing.T) {
	p := NewPlayer(nil)
	p.SetVolume(1.5)
	assert.Equal(t, 1.0, p.Volume())
	p.SetVolume(-1)
	assert.Equal(t, 0.0, p.Volume())
}

func TestPlayer_NoCue(t *testing.T) {
	p := NewPlayer(nil)
	assert.NoError(t, p.Play())
	assert.NoError(t, p.Load(""))
	assert.Empty(t, p.Loaded())

	p.Reload(filepath.Join(t.TempDir(), "cue.wav"))
	assert.Empty(t, p.Loaded(), "reload ignores paths that are not loaded")
}

func TestPlayer_LoadErrors(t *testing.T) {
	p := NewPlayer(nil)

	err := p.Load(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorContains(t, err, "failed to open")

	txt := filepath.Join(t.TempDir(), "cue.txt")
	require.NoError(t, os.WriteFile(txt, []byte("not audio"), 0644))
	assert.ErrorContains(t, p.Load(txt), "unsupported audio format")
	assert.Empty(t, p.Loaded())
}

func TestManager_Disabled(t *testing.T) {
	cfg := config.DefaultDaemonConfig()
	m := NewManager(cfg, nil)
	assert.False(t, m.Enabled())
	assert.NoError(t, m.PlayCue())

	cfg.Audio.Enabled = true
	m = NewManager(cfg, nil)
	assert.False(t, m.Enabled(), "enabled without a sound file does nothing")
}

func TestManager_Throttle(t *testing.T) {
	m := NewManager(config.DefaultDaemonConfig(), nil)
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	assert.True(t, m.allow())
	now = now.Add(50 * time.Millisecond)
	assert.False(t, m.allow())
	now = now.Add(30 * time.Millisecond)
	assert.True(t, m.allow())

	m.SetMinInterval(0)
	assert.True(t, m.allow())
}

func TestManager_UpdateConfig(t *testing.T) {
	cfg := config.DefaultDaemonConfig()
	m := NewManager(cfg, nil)

	next := config.DefaultDaemonConfig()
	next.Audio.Enabled = true
	next.Audio.Sound = filepath.Join(t.TempDir(), "cue.ogg")
	next.Audio.Volume = 40
	m.UpdateConfig(next)

	assert.True(t, m.Enabled())
	assert.InDelta(t, 0.4, m.player.Volume(), 1e-9)
	assert.True(t, m.watcher.Watching(next.Audio.Sound))

	m.UpdateConfig(cfg)
	assert.False(t, m.Enabled())
	assert.False(t, m.watcher.Watching(next.Audio.Sound))
}

func TestWatcher_TracksOnePath(t *testing.T) {
	w := NewWatcher(nil, nil)
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.wav"), filepath.Join(dir, "b.wav")

	w.Watch(a)
	assert.True(t, w.Watching(a))

	w.Watch(b)
	assert.False(t, w.Watching(a), "watching a new cue replaces the old one")
	assert.True(t, w.Watching(b))

	w.Unwatch(a)
	assert.True(t, w.Watching(b), "unwatching another path is a no-op")
	w.Unwatch(b)
	assert.False(t, w.Watching(b))
	assert.False(t, w.Watching(""))
}
