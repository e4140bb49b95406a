//go:build !linux

package gpio

import (
	"errors"
	"time"
)

// Real is not available on non-Linux platforms.
type Real struct{}

// NewReal returns an error on non-Linux platforms.
func NewReal(chipName string, buttonPin, ledPin int, debounce time.Duration) (*Real, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Events is not implemented on non-Linux platforms.
func (r *Real) Events() <-chan Event {
	return nil
}

// Set is not implemented on non-Linux platforms.
func (r *Real) Set(on bool) error {
	return errors.New("gpio: not supported")
}

// ReadButton is not implemented on non-Linux platforms.
func (r *Real) ReadButton() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *Real) Close() error {
	return nil
}
