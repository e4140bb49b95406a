// Package status provides a thread-safe status tracker for the power-button
// daemon. It is read by the HTTP handlers and serialized into MQTT system
// events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/power-button/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing other internal packages from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	DebounceMs  int64
	ShortMaxMs  int64
	LongMaxMs   int64
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Chip        string
	ButtonPin   int
	LEDPin      int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State         logic.PowerState
	Counts        logic.GestureCounts
	LastEvent     string
	LastEventTime time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.StateRunning,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the power state and gesture counts.
// Called from the run loop on every transition and tick.
func (t *Tracker) Update(state logic.PowerState, counts logic.GestureCounts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordEvent notes the most recent published event for display.
func (t *Tracker) RecordEvent(event logic.Event) {
	t.mu.Lock()
	t.snap.LastEvent = string(event.Type)
	t.snap.LastEventTime = event.Timestamp
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
