package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/danmaq/internal/model"
)

// Client calls a running danmaqd over the session bus.
type Client struct {
	conn   *dbus.Conn
	obj    dbus.BusObject
	logger *slog.Logger
}

// NewClient opens a private session bus connection.
func NewClient(logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn:   conn,
		obj:    conn.Object(DBusBusName, DBusPath),
		logger: logger,
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// NewDanmaku submits a comment. An empty id means the daemon dropped it.
func (c *Client) NewDanmaku(ctx context.Context, req model.Request) (string, error) {
	var id string
	err := c.obj.CallWithContext(ctx, DBusInterface+".NewDanmaku", 0,
		req.Text, uint32(req.Color), int32(req.Position)).Store(&id)
	if err != nil {
		return "", fmt.Errorf("NewDanmaku failed: %w", err)
	}
	c.logger.Debug("submitted danmaku", "id", id, "position", req.Position.String())
	return id, nil
}

// GetStatus fetches the slot occupancy.
func (c *Client) GetStatus(ctx context.Context) (Status, error) {
	var st Status
	err := c.obj.CallWithContext(ctx, DBusInterface+".GetStatus", 0).
		Store(&st.Flying, &st.Static, &st.Stacked, &st.Active, &st.StartedAt)
	if err != nil {
		return Status{}, fmt.Errorf("GetStatus failed: %w", err)
	}
	return st, nil
}

// GetServerInformation fetches the daemon name and version.
func (c *Client) GetServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.obj.CallWithContext(ctx, DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("GetServerInformation failed: %w", err)
	}
	return info, nil
}

// SubscribeClosed delivers DanmakuClosed signals until ctx is done.
func (c *Client) SubscribeClosed(ctx context.Context) (<-chan ClosedEvent, error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(DBusPath),
		dbus.WithMatchInterface(DBusInterface),
		dbus.WithMatchMember("DanmakuClosed"),
	}
	if err := c.conn.AddMatchSignal(opts...); err != nil {
		return nil, fmt.Errorf("failed to add match rule: %w", err)
	}

	signals := make(chan *dbus.Signal, 32)
	c.conn.Signal(signals)

	out := make(chan ClosedEvent, 32)
	go func() {
		defer close(out)
		defer func() {
			c.conn.RemoveSignal(signals)
			_ = c.conn.RemoveMatchSignal(opts...)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				ev, ok := parseClosed(sig)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// parseClosed decodes a DanmakuClosed signal.
func parseClosed(sig *dbus.Signal) (ClosedEvent, bool) {
	if sig == nil || sig.Name != DBusInterface+".DanmakuClosed" {
		return ClosedEvent{}, false
	}
	if len(sig.Body) < 2 {
		return ClosedEvent{}, false
	}
	id, ok := sig.Body[0].(string)
	if !ok {
		return ClosedEvent{}, false
	}
	pos, ok := sig.Body[1].(int32)
	if !ok {
		return ClosedEvent{}, false
	}
	return ClosedEvent{ID: id, Position: model.Position(pos)}, true
}
