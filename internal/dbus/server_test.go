package dbus

import (
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/danmaq/internal/model"
)

func syncDispatch(fn func()) { fn() }

func TestNewDanmaku(t *testing.T) {
	s := NewServer(syncDispatch, nil)
	var got model.Request
	s.SetSubmitHandler(func(req model.Request) (string, error) {
		got = req
		return "01HZX", nil
	})

	id, derr := s.NewDanmaku("hello", 0xFF0000FF, 4)
	require.Nil(t, derr)
	assert.Equal(t, "01HZX", id)
	assert.Equal(t, model.Request{Text: "hello", Color: 0xFF0000FF, Position: model.PositionTopStatic}, got)
}

func TestNewDanmaku_Dropped(t *testing.T) {
	s := NewServer(syncDispatch, nil)
	s.SetSubmitHandler(func(model.Request) (string, error) {
		return "", errors.New("no free slot")
	})

	id, derr := s.NewDanmaku("hello", 0, 1)
	assert.Nil(t, derr)
	assert.Empty(t, id)
}

func TestNewDanmaku_NoHandler(t *testing.T) {
	s := NewServer(nil, nil)
	id, derr := s.NewDanmaku("hello", 0, 1)
	assert.Nil(t, derr)
	assert.Empty(t, id)
}

func TestNewDanmaku_DispatchTimeout(t *testing.T) {
	s := NewServer(func(func()) {}, nil)
	s.SetTimeout(10 * time.Millisecond)
	s.SetSubmitHandler(func(model.Request) (string, error) { return "x", nil })

	id, derr := s.NewDanmaku("hello", 0, 1)
	require.NotNil(t, derr)
	assert.Equal(t, ErrorTimeout, derr.Name)
	assert.Empty(t, id)
}

func TestGetStatus(t *testing.T) {
	s := NewServer(syncDispatch, nil)

	flying, static, stacked, active, started, derr := s.GetStatus()
	require.Nil(t, derr)
	assert.Equal(t, []bool{}, flying, "empty slices, never nil")
	assert.Equal(t, []bool{}, static)
	assert.Zero(t, stacked)
	assert.Zero(t, active)
	assert.Zero(t, started)

	s.SetStatusHandler(func() Status {
		return Status{Flying: []bool{true, false}, Static: []bool{false, true}, Stacked: 1, Active: 3, StartedAt: 1700000000}
	})
	flying, static, stacked, active, started, derr = s.GetStatus()
	require.Nil(t, derr)
	assert.Equal(t, []bool{true, false}, flying)
	assert.Equal(t, []bool{false, true}, static)
	assert.Equal(t, uint32(1), stacked)
	assert.Equal(t, uint32(3), active)
	assert.Equal(t, int64(1700000000), started)
}

func TestGetServerInformation(t *testing.T) {
	s := NewServer(nil, nil)
	s.SetServerInfo(ServerInfo{Name: "danmaqd", Vendor: "test", Version: "1.2.3"})

	name, vendor, version, derr := s.GetServerInformation()
	require.Nil(t, derr)
	assert.Equal(t, "danmaqd", name)
	assert.Equal(t, "test", vendor)
	assert.Equal(t, "1.2.3", version)
}

func TestEmitWithoutConnection(t *testing.T) {
	s := NewServer(nil, nil)
	assert.Error(t, s.EmitDanmakuClosed("id", model.PositionTopScroll))
}

func TestIntrospection(t *testing.T) {
	node := introspectNode()
	require.Len(t, node.Interfaces, 2)
	iface := node.Interfaces[1]
	assert.Equal(t, DBusInterface, iface.Name)

	var names []string
	for _, m := range iface.Methods {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"NewDanmaku", "GetStatus", "GetServerInformation"}, names)
	require.Len(t, iface.Signals, 1)
	assert.Equal(t, "DanmakuClosed", iface.Signals[0].Name)
}

func TestParseClosed(t *testing.T) {
	tests := []struct {
		name string
		sig  *dbus.Signal
		want ClosedEvent
		ok   bool
	}{
		{
			name: "valid",
			sig:  &dbus.Signal{Name: DBusInterface + ".DanmakuClosed", Body: []any{"abc", int32(2)}},
			want: ClosedEvent{ID: "abc", Position: model.PositionBottomScroll},
			ok:   true,
		},
		{"nil", nil, ClosedEvent{}, false},
		{"other member", &dbus.Signal{Name: DBusInterface + ".Other", Body: []any{"abc", int32(2)}}, ClosedEvent{}, false},
		{"short body", &dbus.Signal{Name: DBusInterface + ".DanmakuClosed", Body: []any{"abc"}}, ClosedEvent{}, false},
		{"wrong type", &dbus.Signal{Name: DBusInterface + ".DanmakuClosed", Body: []any{"abc", uint32(2)}}, ClosedEvent{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseClosed(tt.sig)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	st := Status{Flying: []bool{true, true, false}, Static: []bool{false, true}, StartedAt: 1700000000}
	assert.Equal(t, 2, st.FlyingUsed())
	assert.Equal(t, 1, st.StaticUsed())
	assert.Equal(t, int64(1700000000), st.Started().Unix())
}
