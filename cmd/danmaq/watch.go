package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/danmaq/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of row occupancy",
	Long: `Poll the daemon and draw the flying and static rows as they fill and
free up.

Key bindings:
  r           Refresh now
  ?           Toggle help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	closed, err := client.SubscribeClosed(cmd.Context())
	if err != nil {
		logger.Warn("failed to subscribe to close signals", "error", err)
	}
	return tui.Run(client, closed)
}
