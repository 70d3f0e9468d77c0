package daemon

import (
	"log/slog"

	"github.com/jmylchreest/danmaq/internal/dbus"
	"github.com/jmylchreest/danmaq/internal/model"
)

// BusStatus converts a service snapshot to its D-Bus form.
func BusStatus(st Status) dbus.Status {
	return dbus.Status{
		Flying:    st.Flying,
		Static:    st.Static,
		Stacked:   uint32(max(st.Stacked, 0)),
		Active:    uint32(max(st.Active, 0)),
		StartedAt: st.StartedAt.Unix(),
	}
}

// Bind routes D-Bus calls on server to svc and emits DanmakuClosed for every
// comment that leaves the screen. The server's dispatcher must target the
// thread svc lives on.
func Bind(server *dbus.Server, svc *Service, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	server.SetSubmitHandler(svc.Submit)
	server.SetStatusHandler(func() dbus.Status {
		return BusStatus(svc.Status())
	})
	svc.SetCloseCallback(func(id string, position model.Position) {
		if err := server.EmitDanmakuClosed(id, position); err != nil {
			logger.Debug("failed to emit close signal", "id", id, "error", err)
		}
	})
}
