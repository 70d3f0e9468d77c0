package daemon

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jmylchreest/danmaq/internal/canvas"
	"github.com/jmylchreest/danmaq/internal/config"
	"github.com/jmylchreest/danmaq/internal/model"
)

// Status is a snapshot of the service for status queries.
type Status struct {
	Flying    []bool
	Static    []bool
	Stacked   int
	Active    int // Includes comments still draining on replaced canvases
	Rows      int
	StartedAt time.Time
}

// Service routes danmaku requests to the canvas of the active screen.
// It is not safe for concurrent use; every call must happen on the UI thread.
type Service struct {
	logger   *slog.Logger
	renderer canvas.Renderer
	sched    canvas.Scheduler

	screen canvas.Rect
	config *config.DaemonConfig

	canvas  *canvas.Canvas
	retired []*canvas.Canvas // Replaced canvases with comments still on screen

	startedAt time.Time
	rand      func() canvas.RandSource

	onSubmit func(req model.Request, id string)
	onClose  func(id string, position model.Position)
}

// NewService creates a service with a canvas covering screen.
func NewService(cfg *config.DaemonConfig, screen canvas.Rect, renderer canvas.Renderer, sched canvas.Scheduler, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}

	s := &Service{
		logger:    logger,
		renderer:  renderer,
		sched:     sched,
		screen:    screen,
		config:    cfg,
		startedAt: time.Now(),
	}

	cv, err := s.newCanvas(screen, cfg)
	if err != nil {
		return nil, err
	}
	s.canvas = cv
	return s, nil
}

// CanvasConfig maps the daemon configuration onto the canvas layout.
func CanvasConfig(cfg *config.DaemonConfig) canvas.Config {
	return canvas.Config{
		LineHeight:     cfg.Display.LineHeight,
		Margin:         cfg.Display.Margin,
		StackX:         cfg.Stack.X,
		StackWidth:     cfg.Stack.Width,
		StackGap:       cfg.Stack.Gap,
		StackBaseline:  cfg.Stack.Baseline,
		ScrollDuration: cfg.Motion.Scroll.Duration(),
		StaticDuration: cfg.Motion.Static.Duration(),
		StackTimeout:   cfg.Motion.StackTimeout.Duration(),
		ShiftDuration:  cfg.Motion.Shift.Duration(),
		Font: model.Font{
			Family: cfg.Style.FontFamily,
			Size:   cfg.Style.FontSize,
			Bold:   cfg.Style.Bold,
		},
		ShadowBlur: cfg.Style.ShadowBlur,
	}
}

// SetSubmitCallback sets the callback invoked after a comment is accepted.
func (s *Service) SetSubmitCallback(cb func(req model.Request, id string)) {
	s.onSubmit = cb
}

// SetCloseCallback sets the callback invoked when a comment leaves the screen.
func (s *Service) SetCloseCallback(cb func(id string, position model.Position)) {
	s.onClose = cb
}

// SetRandFactory sets the random source given to every new canvas.
func (s *Service) SetRandFactory(f func() canvas.RandSource) {
	s.rand = f
	if f != nil {
		s.canvas.SetRand(f())
	}
}

// Canvas returns the canvas receiving new comments.
func (s *Service) Canvas() *canvas.Canvas {
	return s.canvas
}

// Config returns the configuration in effect.
func (s *Service) Config() *config.DaemonConfig {
	return s.config
}

// Submit displays a danmaku. It returns the comment ID, or an error when the
// request was dropped.
func (s *Service) Submit(req model.Request) (string, error) {
	if err := req.Validate(); err != nil {
		s.logger.Debug("rejecting danmaku", "position", int(req.Position), "error", err)
		return "", err
	}

	comment, err := s.canvas.NewComment(req.Text, req.Color, req.Position)
	if err != nil {
		return "", err
	}

	id := comment.ID()
	if s.onSubmit != nil {
		s.onSubmit(req, id)
	}
	return id, nil
}

// Status returns the occupancy of the current canvas.
func (s *Service) Status() Status {
	snap := s.canvas.Snapshot()
	active := snap.Active
	for _, cv := range s.retired {
		active += cv.Active()
	}
	return Status{
		Flying:    snap.Flying,
		Static:    snap.Static,
		Stacked:   snap.Stacked,
		Active:    active,
		Rows:      s.canvas.Rows(),
		StartedAt: s.startedAt,
	}
}

// UpdateConfig applies a reloaded configuration. When the layout changes, new
// comments go to a fresh canvas and existing ones finish on the old one.
func (s *Service) UpdateConfig(cfg *config.DaemonConfig) error {
	if CanvasConfig(cfg) == s.canvas.Config() {
		s.config = cfg
		return nil
	}
	if err := s.replaceCanvas(s.screen, cfg); err != nil {
		return err
	}
	s.config = cfg
	return nil
}

// SetScreen moves new comments onto a canvas covering screen.
func (s *Service) SetScreen(screen canvas.Rect) error {
	if screen == s.screen {
		return nil
	}
	if err := s.replaceCanvas(screen, s.config); err != nil {
		return err
	}
	s.screen = screen
	return nil
}

func (s *Service) replaceCanvas(screen canvas.Rect, cfg *config.DaemonConfig) error {
	cv, err := s.newCanvas(screen, cfg)
	if err != nil {
		return err
	}

	old := s.canvas
	s.canvas = cv
	if old.Active() > 0 {
		s.retired = append(s.retired, old)
	}
	s.logger.Info("canvas rebuilt", "rows", cv.Rows(), "draining", old.Active())
	return nil
}

func (s *Service) newCanvas(screen canvas.Rect, cfg *config.DaemonConfig) (*canvas.Canvas, error) {
	cv, err := canvas.New(screen, CanvasConfig(cfg), s.renderer, s.sched, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create canvas: %w", err)
	}
	if s.rand != nil {
		cv.SetRand(s.rand())
	}
	cv.SetCloseCallback(func(c *canvas.Comment) {
		s.handleClose(cv, c)
	})
	return cv, nil
}

func (s *Service) handleClose(cv *canvas.Canvas, c *canvas.Comment) {
	if cv != s.canvas && cv.Active() == 0 {
		s.retired = slices.DeleteFunc(s.retired, func(r *canvas.Canvas) bool { return r == cv })
		s.logger.Debug("retired canvas drained")
	}
	if s.onClose != nil {
		s.onClose(c.ID(), c.Position())
	}
}
