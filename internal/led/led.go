// Package led maps the daemon's power state onto the status LED. The LED is
// a diagnostic aid, not safety-critical: write failures are logged and
// swallowed, never propagated.
package led

import (
	"log"
	"time"

	"github.com/sweeney/power-button/internal/gpio"
	"github.com/sweeney/power-button/internal/logic"
)

// Blink periods for the non-solid patterns.
const (
	idlePeriod    = 2 * time.Second        // 1s on, 1s off while Running
	restartPeriod = 250 * time.Millisecond // fast blink while RestartPending
)

// Indicator drives the LED line from power state and tick time.
type Indicator struct {
	out   gpio.LED
	state logic.PowerState

	// lastLevel avoids rewriting an unchanged level every tick.
	lastLevel bool
	wrote     bool
}

// New creates an Indicator in the Running pattern.
func New(out gpio.LED) *Indicator {
	return &Indicator{out: out, state: logic.StateRunning}
}

// SetState switches the pattern and writes the new level immediately, so
// the physical LED tracks every coordinator transition without waiting for
// the next tick.
func (i *Indicator) SetState(state logic.PowerState, now time.Time) {
	i.state = state
	i.write(levelFor(state, now))
}

// Tick advances the blink phase. Call it from the run loop ticker.
func (i *Indicator) Tick(now time.Time) {
	i.write(levelFor(i.state, now))
}

func (i *Indicator) write(level bool) {
	if i.wrote && level == i.lastLevel {
		return
	}
	if err := i.out.Set(level); err != nil {
		log.Printf("led write error: %v", err)
		return
	}
	i.lastLevel = level
	i.wrote = true
}

// levelFor computes the desired LED level for a state at a point in time.
// Running is a slow heartbeat blink, RestartPending a fast blink, and both
// shutdown states are solid on until the power goes away.
func levelFor(state logic.PowerState, now time.Time) bool {
	switch state {
	case logic.StateShutdownPending, logic.StateShutdownConfirmed:
		return true
	case logic.StateRestartPending:
		return phase(now, restartPeriod)
	default:
		return phase(now, idlePeriod)
	}
}

// phase reports whether now falls in the first half of the blink period.
func phase(now time.Time, period time.Duration) bool {
	return now.UnixNano()%int64(period) < int64(period)/2
}
