package dbus

import (
	"time"

	"github.com/jmylchreest/danmaq/internal/model"
)

const (
	// DBusInterface is the danmaku interface name.
	DBusInterface = "io.github.jmylchreest.Danmaq"
	// DBusPath is the danmaku object path.
	DBusPath = "/io/github/jmylchreest/Danmaq"
	// DBusBusName is the bus name to claim.
	DBusBusName = "io.github.jmylchreest.Danmaq"
)

// Error names returned by the server.
const (
	ErrorTimeout = DBusInterface + ".Error.Timeout"
)

// ServerInfo contains information about the danmaku server.
type ServerInfo struct {
	Name    string `json:"name" yaml:"name"`
	Vendor  string `json:"vendor" yaml:"vendor"`
	Version string `json:"version" yaml:"version"`
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:    "danmaqd",
		Vendor:  "jmylchreest",
		Version: "dev",
	}
}

// Status is the wire form of the daemon status, returned by GetStatus as
// (ab flying, ab static, u stacked, u active, x started_at).
type Status struct {
	Flying    []bool `json:"flying" yaml:"flying"`
	Static    []bool `json:"static" yaml:"static"`
	Stacked   uint32 `json:"stacked" yaml:"stacked"`
	Active    uint32 `json:"active" yaml:"active"`
	StartedAt int64  `json:"started_at" yaml:"started_at"` // Unix seconds
}

// Started returns the daemon start time.
func (s Status) Started() time.Time {
	return time.Unix(s.StartedAt, 0)
}

// FlyingUsed returns the number of held flying rows.
func (s Status) FlyingUsed() int {
	return countTrue(s.Flying)
}

// StaticUsed returns the number of held static rows.
func (s Status) StaticUsed() int {
	return countTrue(s.Static)
}

func countTrue(v []bool) int {
	n := 0
	for _, b := range v {
		if b {
			n++
		}
	}
	return n
}

// ClosedEvent is a decoded DanmakuClosed signal.
type ClosedEvent struct {
	ID       string
	Position model.Position
}
