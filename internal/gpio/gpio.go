// Package gpio provides button and LED line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

import "time"

// Event is a logical button edge. The active-low inversion happens here:
// a falling edge on the wire (button to ground) is Pressed=true.
type Event struct {
	Pressed bool
	Time    time.Time
}

// Button delivers debounce-assisted edge events from the pushbutton line.
type Button interface {
	// Events returns the channel edge events arrive on. The channel is
	// never closed while the button is open.
	Events() <-chan Event

	// Close releases the line.
	Close() error
}

// LED drives the status LED line.
type LED interface {
	// Set drives the LED on or off.
	Set(on bool) error

	// Close drives the LED off and releases the line.
	Close() error
}

// Default pin assignments (BCM numbering). The button is also wired to the
// gpio-shutdown overlay pin on the same header; these are the pins this
// daemon owns.
const (
	DefaultChip      = "gpiochip0"
	DefaultButtonPin = 27
	DefaultLEDPin    = 22
)
