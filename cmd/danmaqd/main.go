// Package main is the entry point for the danmaqd overlay daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/danmaq/internal/audio"
	"github.com/jmylchreest/danmaq/internal/canvas"
	"github.com/jmylchreest/danmaq/internal/config"
	"github.com/jmylchreest/danmaq/internal/daemon"
	"github.com/jmylchreest/danmaq/internal/dbus"
	"github.com/jmylchreest/danmaq/internal/display"
	"github.com/jmylchreest/danmaq/internal/headless"
	"github.com/jmylchreest/danmaq/internal/model"
	"github.com/jmylchreest/danmaq/internal/theme"
)

const (
	appID   = "io.github.jmylchreest.danmaqd"
	appName = "danmaqd"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	headlessMode := flag.Bool("headless", false, "Run without a display, logging comments instead of drawing them")
	width := flag.Int("width", 1920, "Screen width in headless mode")
	height := flag.Int("height", 1080, "Screen height in headless mode")
	configPath := flag.String("config", "", "Path to danmaqd.toml (default: $XDG_CONFIG_HOME/danmaq/danmaqd.toml)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("danmaqd version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		p, err := config.DaemonConfigPath()
		if err != nil {
			logger.Error("failed to get config path", "error", err)
			os.Exit(1)
		}
		path = p
	}

	cfg, err := config.LoadDaemonConfigFrom(path)
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}

	if *headlessMode {
		runHeadless(logger, cfg, path, canvas.Rect{Width: *width, Height: *height})
		return
	}
	runDaemonMode(logger, cfg, path)
}

func serverInfo() dbus.ServerInfo {
	info := dbus.DefaultServerInfo()
	info.Name = appName
	info.Version = version
	return info
}

func styleFont(cfg *config.DaemonConfig) model.Font {
	return daemon.CanvasConfig(cfg).Font
}

// runHeadless drives the canvas from an EventLoop with a logging renderer.
func runHeadless(logger *slog.Logger, cfg *config.DaemonConfig, path string, screen canvas.Rect) {
	logger.Info("starting danmaqd in headless mode", "version", version,
		"width", screen.Width, "height", screen.Height)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loop := daemon.NewEventLoop(logger)
	svc, err := daemon.NewService(cfg, screen, headless.NewRenderer(loop, logger), loop, logger)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	audioManager := audio.NewManager(cfg, logger)
	if err := audioManager.Start(ctx); err != nil {
		logger.Warn("failed to start audio manager", "error", err)
	}
	defer audioManager.Stop()
	svc.SetSubmitCallback(func(model.Request, string) {
		go playCue(audioManager, logger)
	})

	dbusServer := dbus.NewServer(loop.Dispatch, logger)
	dbusServer.SetServerInfo(serverInfo())
	daemon.Bind(dbusServer, svc, logger)
	if err := dbusServer.Start(); err != nil {
		logger.Error("failed to start D-Bus server", "error", err)
		os.Exit(1)
	}
	defer func() { _ = dbusServer.Stop() }()

	configWatcher, err := daemon.NewConfigWatcher(path, logger)
	if err != nil {
		logger.Warn("failed to create config watcher", "error", err)
	} else {
		configWatcher.SetReloadCallback(func(newConfig *config.DaemonConfig) {
			loop.Dispatch(func() {
				if err := svc.UpdateConfig(newConfig); err != nil {
					logger.Warn("failed to apply config", "error", err)
				}
				audioManager.UpdateConfig(newConfig)
			})
		})
		configWatcher.SetErrorCallback(func(err error) {
			logger.Warn("config reload rejected, keeping previous config", "error", err)
		})
		if err := configWatcher.Start(ctx, cfg); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		}
		defer configWatcher.Stop()
	}

	logger.Info("danmaqd ready", "dbus_interface", dbus.DBusInterface)
	if err := loop.Run(ctx); err != nil {
		logger.Error("event loop failed", "error", err)
	}
	logger.Info("danmaqd stopped")
}

// runDaemonMode draws comments on a layer-shell overlay.
func runDaemonMode(logger *slog.Logger, cfg *config.DaemonConfig, path string) {
	logger.Info("starting danmaqd", "version", version)

	app := adw.NewApplication(appID, 0)
	idle := func(fn func()) { glib.IdleAdd(fn) }

	// Shared state between GTK main loop and signal handlers
	var (
		dbusServer    *dbus.Server
		overlay       *display.Overlay
		layout        *display.LayoutManager
		svc           *daemon.Service
		themeLoader   *theme.Loader
		audioManager  *audio.Manager
		configWatcher *daemon.ConfigWatcher
		running       atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	stop := func() {
		if !running.CompareAndSwap(true, false) {
			return
		}
		if audioManager != nil {
			audioManager.Stop()
		}
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if dbusServer != nil {
			_ = dbusServer.Stop()
		}
		if overlay != nil {
			overlay.Close()
			overlay = nil
		}
	}

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		glib.IdleAdd(func() {
			stop()
			app.Quit()
		})
	}()

	applyConfig := func(newConfig *config.DaemonConfig) {
		if newConfig.Display.Monitor != cfg.Display.Monitor {
			layout.SetMonitor(newConfig.Display.Monitor)
			if err := overlay.SetMonitor(layout.GetMonitor()); err != nil {
				logger.Warn("failed to move overlay", "monitor", newConfig.Display.Monitor, "error", err)
			} else if err := svc.SetScreen(overlay.Geometry()); err != nil {
				logger.Warn("failed to resize canvas", "error", err)
			}
		}
		if err := svc.UpdateConfig(newConfig); err != nil {
			logger.Warn("failed to apply config", "error", err)
			return
		}
		audioManager.UpdateConfig(newConfig)

		if newConfig.Theme.Name != cfg.Theme.Name {
			themeLoader.LoadTheme(newConfig.Theme.Name)
			themeLoader.StartHotReload(ctx, idle)
		}
		themeLoader.SetFont(styleFont(newConfig), newConfig.Style.ShadowBlur)
		cfg = newConfig
		logger.Info("configuration reloaded")
	}

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		themeLoader = theme.NewLoader(logger)
		themeLoader.LoadTheme(cfg.Theme.Name)
		themeLoader.SetFont(styleFont(cfg), cfg.Style.ShadowBlur)
		themeLoader.Apply(nil)
		themeLoader.StartHotReload(ctx, idle)

		layout = display.NewLayoutManager(cfg.Display.Monitor, logger)
		var err error
		overlay, err = display.NewOverlay(&app.Application, layout.GetMonitor(), logger)
		if err != nil {
			logger.Error("failed to create overlay", "error", err)
			app.Quit()
			return
		}

		svc, err = daemon.NewService(cfg, overlay.Geometry(), display.NewRenderer(overlay, logger), display.Scheduler{}, logger)
		if err != nil {
			logger.Error("failed to create service", "error", err)
			app.Quit()
			return
		}

		audioManager = audio.NewManager(cfg, logger)
		if err := audioManager.Start(ctx); err != nil {
			logger.Warn("failed to start audio manager", "error", err)
		}
		svc.SetSubmitCallback(func(model.Request, string) {
			go playCue(audioManager, logger)
		})

		dbusServer = dbus.NewServer(idle, logger)
		dbusServer.SetServerInfo(serverInfo())
		daemon.Bind(dbusServer, svc, logger)
		if err := dbusServer.Start(); err != nil {
			logger.Error("failed to start D-Bus server", "error", err)
			app.Quit()
			return
		}

		configWatcher, err = daemon.NewConfigWatcher(path, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			configWatcher.SetReloadCallback(func(newConfig *config.DaemonConfig) {
				glib.IdleAdd(func() { applyConfig(newConfig) })
			})
			configWatcher.SetErrorCallback(func(err error) {
				logger.Warn("config reload rejected, keeping previous config", "error", err)
			})
			if err := configWatcher.Start(ctx, cfg); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
		}

		overlay.Show()
		logger.Info("danmaqd ready", "dbus_interface", dbus.DBusInterface, "rows", svc.Canvas().Rows())
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		stop()
	})

	status := app.Run(os.Args[:1])
	cancel()

	if status != 0 {
		logger.Error("application exited with error", "status", status)
		os.Exit(status)
	}
	logger.Info("danmaqd stopped")
}

func playCue(m *audio.Manager, logger *slog.Logger) {
	if err := m.PlayCue(); err != nil {
		logger.Debug("failed to play cue", "error", err)
	}
}
