package power

import "context"

// FakeController records power requests for test assertions.
type FakeController struct {
	// ShutdownCalls counts Shutdown invocations.
	ShutdownCalls int

	// RestartCalls counts Restart invocations.
	RestartCalls int

	// ShutdownError, if set, will be returned by Shutdown.
	ShutdownError error

	// RestartError, if set, will be returned by Restart.
	RestartError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeController creates a FakeController for testing.
func NewFakeController() *FakeController {
	return &FakeController{}
}

// Shutdown records the call.
func (f *FakeController) Shutdown(ctx context.Context) error {
	f.ShutdownCalls++
	return f.ShutdownError
}

// Restart records the call.
func (f *FakeController) Restart(ctx context.Context) error {
	f.RestartCalls++
	return f.RestartError
}

// Close marks the controller as closed.
func (f *FakeController) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded calls and scripted errors.
func (f *FakeController) Reset() {
	f.ShutdownCalls = 0
	f.RestartCalls = 0
	f.ShutdownError = nil
	f.RestartError = nil
	f.Closed = false
}
