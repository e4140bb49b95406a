// Package power is the narrow boundary through which the daemon asks the
// operating system for a shutdown or reboot. The real implementation talks
// to systemd-logind over D-Bus; a fake stands in for tests. Nothing else in
// the daemon knows how power transitions actually happen, so the mechanism
// stays swappable.
package power

import (
	"context"
	"errors"
)

// Sentinel errors for the two ways a power request can fail. Callers match
// with errors.Is; both are recoverable (log, revert, re-arm the button).
var (
	// ErrPermissionDenied means the request reached the OS but was refused
	// (polkit/logind authorization).
	ErrPermissionDenied = errors.New("power: permission denied")

	// ErrUnavailable means the power facility could not be reached at all.
	ErrUnavailable = errors.New("power: unavailable")
)

// Controller requests system power-state transitions.
type Controller interface {
	// Shutdown asks the OS to power off.
	Shutdown(ctx context.Context) error

	// Restart asks the OS to reboot.
	Restart(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
