// Package logic contains pure business logic for button gesture
// classification and power state tracking. This package has NO external
// dependencies (no GPIO, D-Bus, MQTT, or time.Sleep). Time is always
// injectable via time.Time parameters.
package logic

import "time"

// EdgeInput represents a single debounce-filtered candidate edge on the
// button line, already in logical form (active-low inversion done by the
// GPIO layer).
type EdgeInput struct {
	Pressed bool // true = button down (falling edge on the wire)
	Time    time.Time
}

// GestureKind classifies a completed button press.
type GestureKind string

const (
	GestureShort GestureKind = "SHORT_PRESS"
	GestureLong  GestureKind = "LONG_PRESS"
	// GestureNone marks a press held past the fault cutoff. It is reported
	// so the caller can log and count it, but it must never cause a power
	// action.
	GestureNone GestureKind = "NONE"
)

// Gesture is a classified button interaction.
type Gesture struct {
	Kind     GestureKind
	Duration time.Duration
	Time     time.Time // time of the release edge
}

// PowerState is the daemon's view of the requested system power state.
// Exactly one instance exists, owned by the Coordinator.
type PowerState string

const (
	StateRunning           PowerState = "RUNNING"
	StateRestartPending    PowerState = "RESTART_PENDING"
	StateShutdownPending   PowerState = "SHUTDOWN_PENDING"
	StateShutdownConfirmed PowerState = "SHUTDOWN_CONFIRMED"
)

// Action is what the Coordinator wants done against the OS power interface.
type Action string

const (
	ActionNone     Action = "NONE"
	ActionRestart  Action = "RESTART"
	ActionShutdown Action = "SHUTDOWN"
)

// EventType represents a reportable occurrence (published to MQTT and logged).
type EventType string

const (
	EventShortPress        EventType = "SHORT_PRESS"
	EventLongPress         EventType = "LONG_PRESS"
	EventRestartRequested  EventType = "RESTART_REQUESTED"
	EventShutdownRequested EventType = "SHUTDOWN_REQUESTED"
	EventShutdownConfirmed EventType = "SHUTDOWN_CONFIRMED"
	EventRequestFailed     EventType = "REQUEST_FAILED"
)

// Event is a state transition or gesture occurrence to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     PowerState // state after the transition
	Duration  time.Duration
	Reason    string // failure reason for EventRequestFailed
}

// GestureCounts tracks button activity since startup.
type GestureCounts struct {
	Short   int
	Long    int
	Ignored int // gestures arriving while a request was already pending
	Faults  int // presses held past the fault cutoff
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    GestureCounts
}
