package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/danmaq/internal/model"
)

var sendOpts struct {
	color    string
	position string
}

var sendCmd = &cobra.Command{
	Use:   "send TEXT...",
	Short: "Show one danmaku",
	Long: `Show one danmaku on the overlay. The arguments are joined with spaces.

Colors are #rrggbb, #rrggbbaa, 0xrrggbbaa or a decimal number. Positions are
given by name or number. A comment is dropped when its rows are all busy.`,
	Example: `  danmaq send "hello world"
  danmaq send --color '#ff000080' --position top-static "red and translucent"
  danmaq send -p 0 "stacked on the left"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.color, "color", "c", "#ffffffff",
		"Fill color")
	sendCmd.Flags().StringVarP(&sendOpts.position, "position", "p", model.PositionTopScroll.String(),
		"Position ("+strings.Join(positionChoices(), ", ")+")")
}

func positionChoices() []string {
	var names []string
	for _, p := range model.ValidPositions() {
		names = append(names, p.String())
	}
	return names
}

// buildRequest parses the send flags into a request.
func buildRequest(text, color, position string) (model.Request, error) {
	c, err := model.ParseColor(color)
	if err != nil {
		return model.Request{}, err
	}
	p, err := model.ParsePosition(position)
	if err != nil {
		return model.Request{}, err
	}
	req := model.Request{Text: text, Color: c, Position: p}
	if err := req.Validate(); err != nil {
		return model.Request{}, err
	}
	return req, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(strings.Join(args, " "), sendOpts.color, sendOpts.position)
	if err != nil {
		return err
	}

	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := callContext(cmd.Context())
	defer cancel()

	id, err := client.NewDanmaku(ctx, req)
	if err != nil {
		return err
	}
	if id == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "danmaku dropped: no free row")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
