package audio

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// speakerLatency keeps the cue close to the comment appearing.
const speakerLatency = 50 * time.Millisecond

// Player holds the decoded cue sound in memory and plays it on demand.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger

	volume float64 // 0.0 to 1.0

	// Speaker rate, fixed by the first decoded cue.
	rate    beep.SampleRate
	speaker bool

	cuePath string
	cue     *beep.Buffer
}

// NewPlayer creates a player with no cue loaded.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{logger: logger, volume: 1.0}
}

// SetVolume sets the playback volume, clamped to 0.0..1.0.
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = min(max(volume, 0), 1)
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Loaded returns the path of the current cue, or "" if none.
func (p *Player) Loaded() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cuePath
}

// Load decodes a WAV, OGG or MP3 file and makes it the cue. An empty path
// unloads. On error the previous cue is kept.
func (p *Player) Load(path string) error {
	if path == "" {
		p.Unload()
		return nil
	}
	buf, err := decodeCue(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.speaker {
		rate := buf.Format().SampleRate
		if err := speaker.Init(rate, rate.N(speakerLatency)); err != nil {
			return fmt.Errorf("failed to initialize speaker: %w", err)
		}
		p.rate = rate
		p.speaker = true
		p.logger.Debug("speaker initialized", "sample_rate", rate)
	}
	p.cuePath = path
	p.cue = buf
	p.logger.Debug("cue loaded", "path", path, "samples", buf.Len())
	return nil
}

// Reload re-decodes the cue if path is the loaded one.
func (p *Player) Reload(path string) {
	if path == "" || filepath.Clean(p.Loaded()) != filepath.Clean(path) {
		return
	}
	if err := p.Load(path); err != nil {
		p.logger.Warn("failed to reload cue, keeping previous", "path", path, "error", err)
	}
}

// Unload drops the decoded cue.
func (p *Player) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cuePath = ""
	p.cue = nil
}

// Play starts the cue. It does nothing when no cue is loaded.
func (p *Player) Play() error {
	p.mu.Lock()
	buf, volume, rate := p.cue, p.volume, p.rate
	p.mu.Unlock()

	if buf == nil {
		return nil
	}

	var s beep.Streamer = buf.Streamer(0, buf.Len())
	if from := buf.Format().SampleRate; from != rate {
		s = beep.Resample(4, from, rate, s)
	}
	if volume < 1.0 {
		s = &effects.Volume{
			Streamer: s,
			Base:     2,
			Volume:   volumeToExponent(volume),
			Silent:   volume == 0,
		}
	}
	speaker.Play(s)
	return nil
}

// Close releases the speaker and the cue.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.speaker {
		speaker.Close()
		p.speaker = false
	}
	p.cuePath = ""
	p.cue = nil
	p.logger.Debug("audio player closed")
}

func decodeCue(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".ogg":
		stream, format, err = vorbis.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = stream.Close() }()

	buf := beep.NewBuffer(format)
	buf.Append(stream)
	return buf, nil
}

// volumeToExponent maps a linear 0..1 volume onto the base-2 exponent used by
// effects.Volume, so 0.5 is one halving of amplitude.
func volumeToExponent(volume float64) float64 {
	if volume <= 0 {
		return -10
	}
	return math.Log2(volume)
}
