package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "100ms", "10s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '100ms', '10s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for danmaqd.
// Loaded from ~/.config/danmaq/danmaqd.toml
type DaemonConfig struct {
	Display DisplayConfig `toml:"display"`
	Style   StyleConfig   `toml:"style"`
	Stack   StackConfig   `toml:"stack"`
	Motion  MotionConfig  `toml:"motion"`
	Theme   ThemeConfig   `toml:"theme"`
	Audio   AudioConfig   `toml:"audio"`
}

// DisplayConfig selects the monitor and the row grid.
type DisplayConfig struct {
	Monitor    int `toml:"monitor"`     // 0 = default, 1+ = specific monitor
	LineHeight int `toml:"line_height"` // Row height in pixels
	Margin     int `toml:"margin"`      // Top and bottom inset in pixels
}

// StyleConfig describes the comment text face.
type StyleConfig struct {
	FontFamily string `toml:"font_family"`
	FontSize   int    `toml:"font_size"` // Points
	Bold       bool   `toml:"bold"`
	ShadowBlur int    `toml:"shadow_blur"`
}

// StackConfig places vertical-stack comments.
type StackConfig struct {
	X        int `toml:"x"`        // Left edge in pixels
	Width    int `toml:"width"`    // Wrap width in pixels
	Gap      int `toml:"gap"`      // Extra spacing when the stack is pushed up
	Baseline int `toml:"baseline"` // Offset from the anchor row to the comment bottom
}

// MotionConfig contains the comment timings.
type MotionConfig struct {
	Scroll       Duration `toml:"scroll"`        // Scroll traversal time
	Static       Duration `toml:"static"`        // Static display time
	StackTimeout Duration `toml:"stack_timeout"` // Vertical-stack lifetime
	Shift        Duration `toml:"shift"`         // Vertical-stack push animation
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name string `toml:"name"` // Theme name without .css extension
}

// AudioConfig contains the cue sound settings.
type AudioConfig struct {
	Enabled bool   `toml:"enabled"`
	Volume  int    `toml:"volume"` // 0-100
	Sound   string `toml:"sound"`  // Path to a wav, ogg or mp3 file
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Display: DisplayConfig{
			Monitor:    0,
			LineHeight: 40,
			Margin:     20,
		},
		Style: StyleConfig{
			FontFamily: "Sans",
			FontSize:   24,
			Bold:       true,
			ShadowBlur: 6,
		},
		Stack: StackConfig{
			X:        150,
			Width:    400,
			Gap:      14,
			Baseline: 18,
		},
		Motion: MotionConfig{
			Scroll:       Duration(10 * time.Second),
			Static:       Duration(10 * time.Second),
			StackTimeout: Duration(20 * time.Second),
			Shift:        Duration(100 * time.Millisecond),
		},
		Theme: ThemeConfig{
			Name: "default",
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  80,
		},
	}
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "danmaq", "danmaqd.toml"), nil
}

// LoadDaemonConfig loads the daemon configuration from the default path.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfig() (*DaemonConfig, error) {
	path, err := DaemonConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadDaemonConfigFrom(path)
}

// LoadDaemonConfigFrom loads the daemon configuration from path.
func LoadDaemonConfigFrom(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfig saves the daemon configuration to the default path.
func SaveDaemonConfig(config *DaemonConfig) error {
	path, err := DaemonConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveDaemonConfigTo(config, path)
}

// SaveDaemonConfigTo writes the configuration to path.
func SaveDaemonConfigTo(config *DaemonConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	if c.Display.Monitor < 0 {
		return fmt.Errorf("monitor must be 0 or a 1-based index, got %d", c.Display.Monitor)
	}
	if c.Display.LineHeight < 8 || c.Display.LineHeight > 400 {
		return fmt.Errorf("line_height must be between 8 and 400, got %d", c.Display.LineHeight)
	}
	if c.Display.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", c.Display.Margin)
	}

	if strings.TrimSpace(c.Style.FontFamily) == "" {
		return fmt.Errorf("font_family must not be empty")
	}
	if c.Style.FontSize < 1 || c.Style.FontSize > 200 {
		return fmt.Errorf("font_size must be between 1 and 200, got %d", c.Style.FontSize)
	}
	if c.Style.ShadowBlur < 0 {
		return fmt.Errorf("shadow_blur must not be negative, got %d", c.Style.ShadowBlur)
	}

	if c.Stack.Width < 1 {
		return fmt.Errorf("stack width must be positive, got %d", c.Stack.Width)
	}
	if c.Stack.Gap < 0 {
		return fmt.Errorf("stack gap must not be negative, got %d", c.Stack.Gap)
	}

	for name, d := range map[string]Duration{
		"scroll":        c.Motion.Scroll,
		"static":        c.Motion.Static,
		"stack_timeout": c.Motion.StackTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("motion %s must be positive, got %s", name, d.Duration())
		}
	}
	if c.Motion.Shift < 0 {
		return fmt.Errorf("motion shift must not be negative, got %s", c.Motion.Shift.Duration())
	}

	if strings.TrimSpace(c.Theme.Name) == "" {
		return fmt.Errorf("theme name must not be empty")
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	return nil
}

// SoundPath returns the cue sound path with ~ expanded.
func (c *DaemonConfig) SoundPath() string {
	return expandPath(c.Audio.Sound)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
