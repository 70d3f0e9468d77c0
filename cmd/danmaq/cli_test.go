package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/danmaq/internal/config"
	"github.com/jmylchreest/danmaq/internal/dbus"
	"github.com/jmylchreest/danmaq/internal/feed"
	"github.com/jmylchreest/danmaq/internal/model"
)

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		color    string
		position string
		want     model.Request
		wantErr  error
	}{
		{
			name: "by name", text: "hi", color: "#ff0000", position: "top-static",
			want: model.Request{Text: "hi", Color: 0xFF0000FF, Position: model.PositionTopStatic},
		},
		{
			name: "by number", text: "hi", color: "0x00ff0080", position: "0",
			want: model.Request{Text: "hi", Color: 0x00FF0080, Position: model.PositionVertical},
		},
		{name: "bad position", text: "hi", color: "#ffffff", position: "sideways", wantErr: model.ErrInvalidPosition},
		{name: "empty text", text: "", color: "#ffffff", position: "1", wantErr: model.ErrEmptyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildRequest(tt.text, tt.color, tt.position)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPump(t *testing.T) {
	input := strings.Join([]string{
		"plain line",
		"",
		`{"text": "json", "color": "#00ff00", "position": "bottom-static"}`,
		`{"text": broken`,
		"dropped",
	}, "\n")

	var got []model.Request
	send := func(req model.Request) (string, error) {
		got = append(got, req)
		if req.Text == "dropped" {
			return "", nil
		}
		return "id", nil
	}

	var errOut bytes.Buffer
	r := feed.NewReader(strings.NewReader(input), model.ColorWhite, model.PositionTopScroll)
	stats, err := pump(r, send, 0, &errOut)
	require.NoError(t, err)

	assert.Equal(t, feedStats{sent: 2, dropped: 1, skipped: 1}, stats)
	require.Len(t, got, 3)
	assert.Equal(t, model.PositionTopScroll, got[0].Position)
	assert.Equal(t, model.PositionBottomStatic, got[1].Position)
	assert.Contains(t, errOut.String(), "line 4")
	assert.Equal(t, "sent 2, dropped 1, skipped 1", stats.String())
}

func TestPump_SendError(t *testing.T) {
	boom := errors.New("bus gone")
	r := feed.NewReader(strings.NewReader("a\nb\n"), model.ColorWhite, model.PositionTopScroll)

	stats, err := pump(r, func(model.Request) (string, error) { return "", boom }, 0, &bytes.Buffer{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, feedStats{}, stats)
}

func testStatus() (dbus.ServerInfo, dbus.Status, time.Time) {
	now := time.Unix(1700000600, 0)
	info := dbus.ServerInfo{Name: "danmaqd", Vendor: "jmylchreest", Version: "1.2.3"}
	st := dbus.Status{
		Flying:    []bool{true, false, false},
		Static:    []bool{false, true, false},
		Stacked:   1,
		Active:    3,
		StartedAt: now.Add(-10 * time.Minute).Unix(),
	}
	return info, st, now
}

func TestWriteStatus_Text(t *testing.T) {
	info, st, now := testStatus()
	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, "text", info, st, now))

	out := buf.String()
	assert.Contains(t, out, "danmaqd 1.2.3, started 10 minutes ago")
	assert.Contains(t, out, "flying  #..  1/3")
	assert.Contains(t, out, "static  .#.  1/3")
	assert.Contains(t, out, "stacked 1")
	assert.Contains(t, out, "active  3")
}

func TestWriteStatus_JSON(t *testing.T) {
	info, st, now := testStatus()
	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, "json", info, st, now))

	var report struct {
		Server string      `json:"server"`
		Uptime string      `json:"uptime"`
		Status dbus.Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "danmaqd", report.Server)
	assert.Equal(t, "10m0s", report.Uptime)
	assert.Equal(t, st, report.Status)
}

func TestWriteStatus_YAML(t *testing.T) {
	info, st, now := testStatus()
	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, "YAML", info, st, now))

	var report map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "1.2.3", report["version"])
	assert.Contains(t, report, "status")
}

func TestWriteStatus_UnknownFormat(t *testing.T) {
	info, st, now := testStatus()
	err := writeStatus(&bytes.Buffer{}, "xml", info, st, now)
	assert.ErrorContains(t, err, "unknown format")
}

func TestConfigInitAndPrint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "danmaqd.toml")
	globalOpts.configPath = path
	t.Cleanup(func() { globalOpts.configPath = "" })

	var out bytes.Buffer
	configInitCmd.SetOut(&out)
	require.NoError(t, runConfigInit(configInitCmd, nil))
	assert.Contains(t, out.String(), path)

	cfg, err := config.LoadDaemonConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultDaemonConfig(), cfg)

	err = runConfigInit(configInitCmd, nil)
	assert.ErrorContains(t, err, "already exists")

	out.Reset()
	configPrintCmd.SetOut(&out)
	require.NoError(t, runConfigPrint(configPrintCmd, nil))
	assert.Contains(t, out.String(), "[display]")
	assert.Contains(t, out.String(), "line_height = 40")
}
