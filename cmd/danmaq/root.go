// Package main provides the danmaq CLI for sending danmaku to danmaqd.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/danmaq/internal/dbus"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var (
	globalOpts struct {
		verbose    bool
		configPath string
		timeout    time.Duration
	}
	logger = slog.Default()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "danmaq",
	Short: "Send scrolling comments to the danmaqd overlay",
	Long: `danmaq talks to the danmaqd overlay daemon over the session bus.

Comments scroll across the screen, sit at the top or bottom, or stack up
on the left, depending on their position:

  0 vertical       stacked on the left, pushed up by newer comments
  1 top-scroll     right to left across the upper half
  2 bottom-scroll  right to left across the lower half
  3 top-reverse    left to right across the upper half
  4 top-static     centred, upper rows
  5 bottom-static  centred, lower rows`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to daemon config file (default: ~/.config/danmaq/danmaqd.toml)")
	rootCmd.PersistentFlags().DurationVar(&globalOpts.timeout, "timeout", 5*time.Second,
		"D-Bus call timeout")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// connect opens a client to the daemon.
func connect() (*dbus.Client, error) {
	client, err := dbus.NewClient(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to danmaqd: %w", err)
	}
	return client, nil
}

// callContext bounds a single D-Bus call.
func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, globalOpts.timeout)
}
