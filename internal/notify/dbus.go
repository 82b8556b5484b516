// Package notify forwards headphone jack reports to desktop and session
// services over the D-Bus system bus.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/micro-nova/acodec-go/internal/codec"
)

const (
	// ObjectPath is the path the jack signal is emitted from.
	ObjectPath = dbus.ObjectPath("/org/acodec/Jack")
	// Interface is the D-Bus interface of the jack signal.
	Interface = "org.acodec.Jack"
	// SignalChanged is the fully qualified jack signal name.
	SignalChanged = Interface + ".Changed"
)

// Emitter sends a D-Bus signal. *dbus.Conn satisfies it.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// DBus is a codec.Reporter that emits SignalChanged(plugged bool, jack string).
type DBus struct {
	conn  Emitter
	close func() error
}

// NewDBus wraps an existing connection.
func NewDBus(conn Emitter) *DBus {
	return &DBus{conn: conn}
}

// ConnectSystemBus opens the system bus and returns a reporter on it.
func ConnectSystemBus() (*DBus, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("notify: connect system bus: %w", err)
	}
	return &DBus{conn: conn, close: conn.Close}, nil
}

// Report emits the jack signal. Failures are logged; a missing listener is
// not an error on D-Bus.
func (d *DBus) Report(_ context.Context, plugged bool, jack codec.JackType) {
	if err := d.conn.Emit(ObjectPath, SignalChanged, plugged, jack.String()); err != nil {
		slog.Warn("notify: failed to emit jack signal", "plugged", plugged, "err", err)
		return
	}
	slog.Debug("notify: jack signal emitted", "plugged", plugged, "jack", jack)
}

// Close releases a connection opened by ConnectSystemBus.
func (d *DBus) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}

var _ codec.Reporter = (*DBus)(nil)
