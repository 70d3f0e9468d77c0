package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/danmaq/internal/dbus"
)

var statusOpts struct {
	format string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row occupancy of the running daemon",
	Long: `Show which flying and static rows are held, how many comments are
stacked on the left and how many are on screen in total.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "o", "text",
		"Output format (text, json, yaml)")
}

// statusReport is the machine-readable status output.
type statusReport struct {
	Server    string      `json:"server" yaml:"server"`
	Version   string      `json:"version" yaml:"version"`
	Status    dbus.Status `json:"status" yaml:"status"`
	Uptime    string      `json:"uptime" yaml:"uptime"`
	StartedAt time.Time   `json:"started_at_time" yaml:"started_at_time"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := callContext(cmd.Context())
	defer cancel()

	info, err := client.GetServerInformation(ctx)
	if err != nil {
		return err
	}
	st, err := client.GetStatus(ctx)
	if err != nil {
		return err
	}
	return writeStatus(cmd.OutOrStdout(), statusOpts.format, info, st, time.Now())
}

// writeStatus renders a status in the requested format.
func writeStatus(w io.Writer, format string, info dbus.ServerInfo, st dbus.Status, now time.Time) error {
	started := st.Started()
	report := statusReport{
		Server:    info.Name,
		Version:   info.Version,
		Status:    st,
		Uptime:    now.Sub(started).Round(time.Second).String(),
		StartedAt: started,
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(report)
	case "text", "":
		fmt.Fprintf(w, "%s %s, started %s\n", info.Name, info.Version, humanize.RelTime(started, now, "ago", "from now"))
		fmt.Fprintf(w, "flying  %s  %d/%d\n", cells(st.Flying), st.FlyingUsed(), len(st.Flying))
		fmt.Fprintf(w, "static  %s  %d/%d\n", cells(st.Static), st.StaticUsed(), len(st.Static))
		fmt.Fprintf(w, "stacked %d\nactive  %d\n", st.Stacked, st.Active)
		return nil
	default:
		return fmt.Errorf("unknown format %q: must be text, json or yaml", format)
	}
}

func cells(v []bool) string {
	var b strings.Builder
	for _, used := range v {
		if used {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
