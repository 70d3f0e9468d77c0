package audio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/danmaq/internal/config"
)

// Manager plays the cue sound for accepted danmaku, at most once per interval.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher

	enabled  bool
	sound    string
	interval time.Duration
	lastCue  time.Time

	now func() time.Time
}

// NewManager creates a new audio manager.
func NewManager(cfg *config.DaemonConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(logger)
	m := &Manager{
		logger:   logger,
		player:   player,
		watcher:  NewWatcher(player, logger),
		interval: 80 * time.Millisecond,
		now:      time.Now,
	}
	m.apply(cfg)
	return m
}

// SetMinInterval sets the shortest gap between two cues. A burst of comments
// plays one cue.
func (m *Manager) SetMinInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval = d
}

func (m *Manager) apply(cfg *config.DaemonConfig) {
	if cfg == nil {
		return
	}
	m.mu.Lock()
	m.enabled = cfg.Audio.Enabled && cfg.Audio.Sound != ""
	m.sound = cfg.SoundPath()
	m.mu.Unlock()

	m.player.SetVolume(float64(cfg.Audio.Volume) / 100.0)
}

// Start preloads the cue and watches it for changes.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.RLock()
	enabled, sound := m.enabled, m.sound
	m.mu.RUnlock()

	if !enabled {
		m.logger.Debug("audio cue disabled")
		return nil
	}
	if err := m.player.Load(sound); err != nil {
		m.logger.Warn("failed to load cue sound", "path", sound, "error", err)
	}
	if err := m.watcher.Start(ctx); err != nil {
		return err
	}
	m.watcher.Watch(sound)

	m.logger.Info("audio manager started", "sound", sound)
	return nil
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

// PlayCue plays the cue sound unless disabled or throttled.
func (m *Manager) PlayCue() error {
	m.mu.Lock()
	if !m.enabled || !m.allow() {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	return m.player.Play()
}

// allow reports whether a cue may play now and records it. Callers hold mu.
func (m *Manager) allow() bool {
	now := m.now()
	if !m.lastCue.IsZero() && now.Sub(m.lastCue) < m.interval {
		return false
	}
	m.lastCue = now
	return true
}

// Enabled reports whether cues will play.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// UpdateConfig applies a hot-reloaded configuration.
func (m *Manager) UpdateConfig(cfg *config.DaemonConfig) {
	m.mu.RLock()
	oldSound := m.sound
	m.mu.RUnlock()

	m.apply(cfg)

	m.mu.RLock()
	enabled, sound := m.enabled, m.sound
	m.mu.RUnlock()

	if sound != oldSound || !enabled {
		m.watcher.Unwatch(oldSound)
		m.player.Unload()
	}
	if enabled {
		if sound != m.player.Loaded() {
			if err := m.player.Load(sound); err != nil {
				m.logger.Warn("failed to load cue sound on reload", "path", sound, "error", err)
			}
		}
		m.watcher.Watch(sound)
	}
	m.logger.Debug("audio manager config updated", "enabled", enabled)
}
