package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/danmaq/internal/model"
)

// EmitDanmakuClosed emits the DanmakuClosed signal once a comment has left
// the screen and its slot is free again.
func (s *Server) EmitDanmakuClosed(id string, position model.Position) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".DanmakuClosed", id, int32(position))
	if err != nil {
		return fmt.Errorf("failed to emit DanmakuClosed signal: %w", err)
	}

	s.logger.Debug("emitted DanmakuClosed signal", "id", id, "position", position.String())
	return nil
}

// Connection returns the underlying D-Bus connection.
func (s *Server) Connection() *dbus.Conn {
	return s.conn
}
