package logic

import "time"

// Coordinator owns the single PowerState instance and maps gestures to
// power actions. Once a restart or shutdown has been requested, further
// gestures are ignored until the request is confirmed, reverted, or the
// process dies.
type Coordinator struct {
	state         PowerState
	counts        GestureCounts
	startTime     time.Time
	lastHeartbeat time.Time
}

// NewCoordinator creates a coordinator in the Running state. The startTime
// is used for calculating uptime in heartbeat events.
func NewCoordinator(startTime time.Time) *Coordinator {
	return &Coordinator{
		state:         StateRunning,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Apply feeds one gesture into the state machine and returns the action the
// caller should take against the OS power interface, plus any events to
// publish. Fault gestures (Kind GestureNone) and gestures arriving while a
// request is pending produce ActionNone.
func (c *Coordinator) Apply(g Gesture, now time.Time) (Action, []Event) {
	if g.Kind == GestureNone {
		c.counts.Faults++
		return ActionNone, nil
	}

	if c.state != StateRunning {
		c.counts.Ignored++
		return ActionNone, nil
	}

	switch g.Kind {
	case GestureShort:
		c.counts.Short++
		c.state = StateRestartPending
		return ActionRestart, []Event{
			{Timestamp: now, Type: EventShortPress, State: c.state, Duration: g.Duration},
			{Timestamp: now, Type: EventRestartRequested, State: c.state},
		}
	case GestureLong:
		c.counts.Long++
		c.state = StateShutdownPending
		return ActionShutdown, []Event{
			{Timestamp: now, Type: EventLongPress, State: c.state, Duration: g.Duration},
			{Timestamp: now, Type: EventShutdownRequested, State: c.state},
		}
	}

	return ActionNone, nil
}

// Confirm records that the OS accepted a shutdown request. Only meaningful
// in ShutdownPending; a confirmed restart is never observed because a
// successful reboot kills the process.
func (c *Coordinator) Confirm(now time.Time) *Event {
	if c.state != StateShutdownPending {
		return nil
	}
	c.state = StateShutdownConfirmed
	return &Event{Timestamp: now, Type: EventShutdownConfirmed, State: c.state}
}

// Revert returns a pending state to Running after a failed OS request so
// the button is re-armed rather than left permanently unresponsive.
func (c *Coordinator) Revert(now time.Time, reason string) *Event {
	if c.state == StateRunning {
		return nil
	}
	c.state = StateRunning
	return &Event{Timestamp: now, Type: EventRequestFailed, State: c.state, Reason: reason}
}

// State returns the current power state.
func (c *Coordinator) State() PowerState {
	return c.state
}

// CountsSnapshot returns a copy of the gesture counters.
func (c *Coordinator) CountsSnapshot() GestureCounts {
	return c.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since
// the last heartbeat (or startup). Returns nil if the interval has not
// elapsed or if interval is <= 0 (disabled).
func (c *Coordinator) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}
