// Package dbusfront exposes the active input-method session on the session
// bus, so desktop input methods can commit text without speaking the
// WebSocket protocol.
package dbusfront

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"imekbd/internal/eventloop"
	"imekbd/internal/ime"
)

const (
	busName    = "org.imekbd.InputMethod"
	objectPath = dbus.ObjectPath("/org/imekbd/InputMethod")
	ifaceName  = "org.imekbd.InputMethod1"
)

const introXML = `
<node>
	<interface name="` + ifaceName + `">
		<method name="CommitText">
			<arg direction="in" type="s" name="text"/>
		</method>
		<method name="PerformAction">
			<arg direction="in" type="s" name="action"/>
		</method>
	</interface>` + introspect.IntrospectDataString + `</node>`

// Frontend owns the bus name and the exported object.
type Frontend struct {
	log  *slog.Logger
	loop *eventloop.Loop
	mgr  *ime.Manager
	conn *dbus.Conn
}

// Start connects to the session bus, claims the well-known name and exports
// the input-method object.
func Start(log *slog.Logger, loop *eventloop.Loop, mgr *ime.Manager) (*Frontend, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbusfront: connect session bus: %w", err)
	}

	f := &Frontend{
		log:  log.With("component", "dbus"),
		loop: loop,
		mgr:  mgr,
		conn: conn,
	}

	if err := conn.Export(f, objectPath, ifaceName); err != nil {
		conn.Close()
		return nil, fmt.Errorf("dbusfront: export object: %w", err)
	}
	if err := conn.Export(introspect.Introspectable(introXML), objectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("dbusfront: export introspection: %w", err)
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("dbusfront: request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("dbusfront: name %s already taken", busName)
	}

	f.log.Info("session bus frontend ready", "name", busName)
	return f, nil
}

// CommitText sets the text as pending and commits it with the session's
// current serial. No active session is not an error for the caller; the
// commit just has nowhere to go.
func (f *Frontend) CommitText(text string) *dbus.Error {
	f.loop.Post(func() {
		s := f.mgr.Active()
		if s == nil {
			f.log.Debug("commit over dbus with no active session")
			return
		}
		s.SetString(text)
		s.Commit(s.Serial())
	})
	return nil
}

// PerformAction commits a named editing action.
func (f *Frontend) PerformAction(name string) *dbus.Error {
	action, ok := ime.ActionFromName(name)
	if !ok || action == ime.ActionNone {
		return dbus.MakeFailedError(fmt.Errorf("unknown action %q", name))
	}
	f.loop.Post(func() {
		s := f.mgr.Active()
		if s == nil {
			return
		}
		s.SetAction(action)
		s.Commit(s.Serial())
	})
	return nil
}

// Close releases the bus name and connection.
func (f *Frontend) Close() error {
	if _, err := f.conn.ReleaseName(busName); err != nil {
		f.log.Warn("release bus name", "error", err)
	}
	return f.conn.Close()
}
