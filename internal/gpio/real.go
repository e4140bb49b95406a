//go:build linux

package gpio

import (
	"fmt"
	"log"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Real owns the button and LED lines on actual hardware via the Linux GPIO
// character device. It implements both Button and LED.
type Real struct {
	chip    *gpiocdev.Chip
	button  *gpiocdev.Line
	led     *gpiocdev.Line
	events  chan Event
	ledOpen bool
}

// NewReal acquires the button and LED lines. The button is requested as
// input with pull-up, both-edge detection and kernel-side debounce; the LED
// as output, initially off. Failure to acquire either line is fatal to the
// caller: the daemon must not run with half the hardware.
func NewReal(chipName string, buttonPin, ledPin int, debounce time.Duration) (*Real, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	r := &Real{
		chip:   chip,
		events: make(chan Event, 16),
	}

	// Kernel timestamps are monotonic-since-boot; stamp with wall time on
	// arrival instead, which is plenty for press-duration classification.
	handler := func(evt gpiocdev.LineEvent) {
		e := Event{
			Pressed: evt.Type == gpiocdev.LineEventFallingEdge,
			Time:    time.Now(),
		}
		select {
		case r.events <- e:
		default:
			log.Printf("gpio: event channel full, dropping edge")
		}
	}

	r.button, err = chip.RequestLine(buttonPin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounce),
		gpiocdev.WithEventHandler(handler))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", buttonPin, err)
	}

	r.led, err = chip.RequestLine(ledPin, gpiocdev.AsOutput(0))
	if err != nil {
		r.button.Close()
		chip.Close()
		return nil, fmt.Errorf("request led pin %d: %w", ledPin, err)
	}
	r.ledOpen = true

	return r, nil
}

// Events returns the edge event channel.
func (r *Real) Events() <-chan Event {
	return r.events
}

// Set drives the LED line.
func (r *Real) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := r.led.SetValue(v); err != nil {
		return fmt.Errorf("set led: %w", err)
	}
	return nil
}

// ReadButton returns the current logical button level (true = pressed).
// Used by the -print-state diagnostic.
func (r *Real) ReadButton() (bool, error) {
	raw, err := r.button.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin: %w", err)
	}
	// Pull-up, button to ground: raw low = pressed.
	return raw == 0, nil
}

// Close drives the LED off, reconfigures the button line to its boot state
// (input with pull-up) and releases everything. Leaving the lines in boot
// state matters here: the same button feeds the gpio-shutdown overlay and a
// held pin could wedge the next boot.
func (r *Real) Close() error {
	var errs []error

	if r.ledOpen {
		if err := r.led.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear led: %w", err))
		}
		if err := r.led.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pin: %w", err))
		}
	}
	if r.button != nil {
		if err := r.button.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure button pin: %w", err))
		}
		if err := r.button.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
