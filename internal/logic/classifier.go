package logic

import "time"

// Classifier turns raw button edges into debounced, classified gestures.
// A press is a falling edge followed by a rising edge; the duration between
// them picks the gesture kind. Edges closer together than the debounce
// threshold are treated as contact bounce and coalesced.
type Classifier struct {
	debounce time.Duration
	shortMax time.Duration // durations below this are a short press
	longMax  time.Duration // durations at or above this are a fault

	pressed    bool
	pressStart time.Time
	lastEdge   time.Time
	haveEdge   bool
}

// NewClassifier creates a gesture classifier. shortMax is the short/long
// press boundary; longMax is the fault cutoff above which no gesture is
// emitted at all.
func NewClassifier(debounce, shortMax, longMax time.Duration) *Classifier {
	return &Classifier{
		debounce: debounce,
		shortMax: shortMax,
		longMax:  longMax,
	}
}

// Process takes one edge and returns a completed gesture, or nil if the
// edge did not complete one. A returned gesture with Kind GestureNone is a
// press held past the fault cutoff: report it, never act on it.
func (c *Classifier) Process(in EdgeInput) *Gesture {
	// Coalesce bounce. Every edge, accepted or not, restarts the quiet
	// window, so a chattering contact settles before the next edge counts.
	if c.haveEdge && in.Time.Sub(c.lastEdge) < c.debounce {
		c.lastEdge = in.Time
		return nil
	}
	c.lastEdge = in.Time
	c.haveEdge = true

	if in.Pressed {
		// A second falling edge with no release in between means the
		// release was lost inside a debounce window. Re-anchor on this
		// edge; the stale start time would inflate the press duration.
		c.pressed = true
		c.pressStart = in.Time
		return nil
	}

	// Release edge with no press in flight (e.g. first edge seen after
	// startup was a release). Nothing to classify.
	if !c.pressed {
		return nil
	}

	c.pressed = false
	dur := in.Time.Sub(c.pressStart)

	kind := GestureShort
	switch {
	case dur >= c.longMax:
		kind = GestureNone
	case dur >= c.shortMax:
		kind = GestureLong
	}

	return &Gesture{Kind: kind, Duration: dur, Time: in.Time}
}

// Pressed reports whether a press is currently in flight.
func (c *Classifier) Pressed() bool {
	return c.pressed
}
