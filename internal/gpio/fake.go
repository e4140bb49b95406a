package gpio

// FakeButton is a test double that delivers scripted edge events.
type FakeButton struct {
	// ch carries pushed events to the consumer.
	ch chan Event

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeButton creates a FakeButton with a buffered event channel.
func NewFakeButton() *FakeButton {
	return &FakeButton{ch: make(chan Event, 64)}
}

// Events returns the event channel.
func (f *FakeButton) Events() <-chan Event {
	return f.ch
}

// Push queues an edge event for the consumer.
func (f *FakeButton) Push(e Event) {
	f.ch <- e
}

// Close marks the button as closed.
func (f *FakeButton) Close() error {
	f.Closed = true
	return nil
}

// FakeLED records LED writes for test assertions.
type FakeLED struct {
	// Levels contains every value written, in order.
	Levels []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeLED creates a FakeLED.
func NewFakeLED() *FakeLED {
	return &FakeLED{}
}

// Set records the written level.
func (f *FakeLED) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Levels = append(f.Levels, on)
	return nil
}

// Last returns the most recent level written, or false if none.
func (f *FakeLED) Last() bool {
	if len(f.Levels) == 0 {
		return false
	}
	return f.Levels[len(f.Levels)-1]
}

// Close marks the LED as closed.
func (f *FakeLED) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *FakeLED) Reset() {
	f.Levels = nil
	f.SetError = nil
	f.Closed = false
}
