package power

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coreos/go-systemd/v22/login1"
	"github.com/godbus/dbus/v5"
)

// Login1Controller requests power transitions from systemd-logind over the
// system D-Bus. This is the same path `systemctl poweroff` takes, so it
// honors inhibitor locks and shuts services down cleanly.
//
// The bus connection is established lazily and re-established after
// failures: logind being briefly unreachable must not leave the button dead,
// it just fails that one request with ErrUnavailable.
type Login1Controller struct {
	mu   sync.Mutex
	conn *login1.Conn
}

// NewLogin1Controller creates a controller. No connection is made yet; the
// first request connects.
func NewLogin1Controller() *Login1Controller {
	return &Login1Controller{}
}

// Shutdown asks logind to power off, without interactive authorization.
func (c *Login1Controller) Shutdown(ctx context.Context) error {
	conn, err := c.ensure()
	if err != nil {
		return fmt.Errorf("poweroff: %w", err)
	}
	if err := conn.PowerOffWithContext(ctx, false); err != nil {
		c.drop()
		return fmt.Errorf("poweroff: %w", classify(err))
	}
	return nil
}

// Restart asks logind to reboot, without interactive authorization.
func (c *Login1Controller) Restart(ctx context.Context) error {
	conn, err := c.ensure()
	if err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	if err := conn.RebootWithContext(ctx, false); err != nil {
		c.drop()
		return fmt.Errorf("reboot: %w", classify(err))
	}
	return nil
}

// Close releases the bus connection if one is open.
func (c *Login1Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return nil
}

func (c *Login1Controller) ensure() (*login1.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := login1.New()
	if err != nil {
		return nil, fmt.Errorf("%w: connect to logind: %v", ErrUnavailable, err)
	}
	c.conn = conn
	return conn, nil
}

// drop discards the connection after a call error so the next request
// reconnects from scratch.
func (c *Login1Controller) drop() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
}

// D-Bus error names logind/polkit return when the caller is not allowed to
// manage power. Everything else is treated as the facility being unreachable.
var permissionErrorNames = map[string]bool{
	"org.freedesktop.DBus.Error.AccessDenied":                     true,
	"org.freedesktop.DBus.Error.AuthFailed":                       true,
	"org.freedesktop.DBus.Error.InteractiveAuthorizationRequired": true,
	"org.freedesktop.PolicyKit1.Error.NotAuthorized":              true,
}

// classify maps a raw D-Bus call error onto the package error taxonomy,
// keeping the original message for the log.
func classify(err error) error {
	var dbErr dbus.Error
	if errors.As(err, &dbErr) && permissionErrorNames[dbErr.Name] {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, dbErr.Name)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
