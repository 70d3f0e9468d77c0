package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/danmaq/internal/model"
)

// Dispatcher runs fn on the UI thread.
type Dispatcher func(fn func())

// SubmitHandler displays a danmaku and returns its ID. Any error means the
// request was dropped.
type SubmitHandler func(req model.Request) (string, error)

// StatusHandler returns the current status.
type StatusHandler func() Status

var errDispatchTimeout = errors.New("ui thread did not respond")

// Server implements the danmaku D-Bus interface. Method calls arrive on godbus
// goroutines and are handed to the dispatcher.
type Server struct {
	conn   *dbus.Conn
	logger *slog.Logger

	dispatch Dispatcher
	timeout  time.Duration

	submitHandler SubmitHandler
	statusHandler StatusHandler

	mu         sync.RWMutex
	serverInfo ServerInfo
	running    bool
}

// NewServer creates a server that runs handlers through dispatch.
func NewServer(dispatch Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Server{
		logger:     logger,
		dispatch:   dispatch,
		timeout:    2 * time.Second,
		serverInfo: DefaultServerInfo(),
	}
}

// SetSubmitHandler sets the handler called for NewDanmaku.
func (s *Server) SetSubmitHandler(handler SubmitHandler) {
	s.submitHandler = handler
}

// SetStatusHandler sets the handler called for GetStatus.
func (s *Server) SetStatusHandler(handler StatusHandler) {
	s.statusHandler = handler
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *Server) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverInfo = info
}

// SetTimeout sets how long a method call waits for the UI thread.
func (s *Server) SetTimeout(d time.Duration) {
	s.timeout = d
}

// Start connects to the session bus and exports the danmaku service.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	if err := conn.Export(introspect.NewIntrospectable(introspectNode()), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus danmaku server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// SessionBus is shared, so the connection stays open
	}

	s.logger.Info("D-Bus danmaku server stopped")
	return nil
}

// call runs fn on the UI thread and waits for it to finish.
func (s *Server) call(fn func()) error {
	done := make(chan struct{})
	s.dispatch(func() {
		fn()
		close(done)
	})

	select {
	case <-done:
		return nil
	case <-time.After(s.timeout):
		return errDispatchTimeout
	}
}

// NewDanmaku shows a comment. An empty id means the request was dropped.
// D-Bus method: NewDanmaku(sui) -> s
func (s *Server) NewDanmaku(text string, color uint32, position int32) (string, *dbus.Error) {
	s.logger.Debug("NewDanmaku called", "text_len", len(text), "color", color, "position", position)

	if s.submitHandler == nil {
		return "", nil
	}

	req := model.Request{Text: text, Color: model.Color(color), Position: model.Position(position)}
	var (
		id        string
		submitErr error
	)
	if err := s.call(func() { id, submitErr = s.submitHandler(req) }); err != nil {
		s.logger.Warn("NewDanmaku timed out", "error", err)
		return "", dbus.NewError(ErrorTimeout, []any{err.Error()})
	}
	if submitErr != nil {
		s.logger.Debug("danmaku dropped", "position", position, "error", submitErr)
		return "", nil
	}
	return id, nil
}

// GetStatus reports slot occupancy.
// D-Bus method: GetStatus() -> (ababuux)
func (s *Server) GetStatus() ([]bool, []bool, uint32, uint32, int64, *dbus.Error) {
	s.logger.Debug("GetStatus called")

	var st Status
	if s.statusHandler != nil {
		if err := s.call(func() { st = s.statusHandler() }); err != nil {
			s.logger.Warn("GetStatus timed out", "error", err)
			return nil, nil, 0, 0, 0, dbus.NewError(ErrorTimeout, []any{err.Error()})
		}
	}
	// godbus cannot encode nil slices
	if st.Flying == nil {
		st.Flying = []bool{}
	}
	if st.Static == nil {
		st.Static = []bool{}
	}
	return st.Flying, st.Static, st.Stacked, st.Active, st.StartedAt, nil
}

// GetServerInformation returns information about the server.
// D-Bus method: GetServerInformation() -> (sss)
func (s *Server) GetServerInformation() (string, string, string, *dbus.Error) {
	s.logger.Debug("GetServerInformation called")
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverInfo.Name, s.serverInfo.Vendor, s.serverInfo.Version, nil
}

func introspectNode() *introspect.Node {
	return &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: danmakuMethods(),
				Signals: danmakuSignals(),
			},
		},
	}
}

// danmakuMethods returns the D-Bus method introspection data.
func danmakuMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "NewDanmaku",
			Args: []introspect.Arg{
				{Name: "text", Type: "s", Direction: "in"},
				{Name: "color", Type: "u", Direction: "in"},
				{Name: "position", Type: "i", Direction: "in"},
				{Name: "id", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "GetStatus",
			Args: []introspect.Arg{
				{Name: "flying", Type: "ab", Direction: "out"},
				{Name: "static", Type: "ab", Direction: "out"},
				{Name: "stacked", Type: "u", Direction: "out"},
				{Name: "active", Type: "u", Direction: "out"},
				{Name: "started_at", Type: "x", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
			},
		},
	}
}

// danmakuSignals returns the D-Bus signal introspection data.
func danmakuSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "DanmakuClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
				{Name: "position", Type: "i"},
			},
		},
	}
}
