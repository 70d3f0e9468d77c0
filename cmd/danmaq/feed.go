package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/danmaq/internal/feed"
	"github.com/jmylchreest/danmaq/internal/model"
)

var feedOpts struct {
	file     string
	color    string
	position string
	interval time.Duration
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Stream danmaku from stdin or a file",
	Long: `Read one danmaku per line and send each to the overlay.

Lines are either plain text, shown with the default color and position, or
JSON objects:

  {"text": "hello", "color": "#00ff00", "position": "bottom-static"}

Blank lines are skipped. Malformed JSON lines are reported and skipped.`,
	Example: `  chat-bridge | danmaq feed
  danmaq feed --file comments.jsonl --interval 200ms`,
	Args: cobra.NoArgs,
	RunE: runFeed,
}

func init() {
	rootCmd.AddCommand(feedCmd)

	feedCmd.Flags().StringVarP(&feedOpts.file, "file", "f", "",
		"Read from file instead of stdin")
	feedCmd.Flags().StringVarP(&feedOpts.color, "color", "c", "#ffffffff",
		"Default fill color")
	feedCmd.Flags().StringVarP(&feedOpts.position, "position", "p", model.PositionTopScroll.String(),
		"Default position")
	feedCmd.Flags().DurationVar(&feedOpts.interval, "interval", 0,
		"Delay between comments")
}

// feedStats counts the outcome of a feed run.
type feedStats struct {
	sent, dropped, skipped int
}

func (s feedStats) String() string {
	return fmt.Sprintf("sent %s, dropped %s, skipped %s",
		humanize.Comma(int64(s.sent)), humanize.Comma(int64(s.dropped)), humanize.Comma(int64(s.skipped)))
}

// sender delivers one request and returns its id ("" when dropped).
type sender func(req model.Request) (string, error)

// pump sends every request from r. Bad lines are reported on errOut and skipped.
func pump(r *feed.Reader, send sender, interval time.Duration, errOut io.Writer) (feedStats, error) {
	var stats feedStats
	for {
		req, err := r.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		var lineErr *feed.LineError
		if errors.As(err, &lineErr) {
			fmt.Fprintln(errOut, "skipping:", lineErr)
			stats.skipped++
			continue
		}
		if err != nil {
			return stats, err
		}

		id, err := send(req)
		if err != nil {
			return stats, err
		}
		if id == "" {
			stats.dropped++
		} else {
			stats.sent++
		}

		if interval > 0 {
			time.Sleep(interval)
		}
	}
}

func runFeed(cmd *cobra.Command, args []string) error {
	color, err := model.ParseColor(feedOpts.color)
	if err != nil {
		return err
	}
	position, err := model.ParsePosition(feedOpts.position)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if feedOpts.file != "" {
		f, err := os.Open(feedOpts.file)
		if err != nil {
			return fmt.Errorf("failed to open feed file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	send := func(req model.Request) (string, error) {
		ctx, cancel := callContext(cmd.Context())
		defer cancel()
		return client.NewDanmaku(ctx, req)
	}

	stats, err := pump(feed.NewReader(in, color, position), send, feedOpts.interval, cmd.ErrOrStderr())
	logger.Info("feed finished", "sent", stats.sent, "dropped", stats.dropped, "skipped", stats.skipped)
	if err != nil {
		return fmt.Errorf("feed stopped after %s: %w", stats, err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), stats)
	return nil
}
