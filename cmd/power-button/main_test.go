package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/power-button/internal/gpio"
	"github.com/sweeney/power-button/internal/led"
	"github.com/sweeney/power-button/internal/logic"
	"github.com/sweeney/power-button/internal/mqtt"
	"github.com/sweeney/power-button/internal/power"
	"github.com/sweeney/power-button/internal/status"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants — not the other way around.
func TestEnvVarNames(t *testing.T) {
	// These are the canonical names from pi-helper.
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	if info.Type != "wifi" {
		t.Errorf("Type: got %q, want wifi", info.Type)
	}
	if info.IP != "192.168.1.100" {
		t.Errorf("IP: got %q, want 192.168.1.100", info.IP)
	}
	if info.Status != "connected" {
		t.Errorf("Status: got %q, want connected", info.Status)
	}
	if info.Gateway != "192.168.1.1" {
		t.Errorf("Gateway: got %q, want 192.168.1.1", info.Gateway)
	}
	if info.SSID != "MyNetwork" {
		t.Errorf("SSID: got %q, want MyNetwork", info.SSID)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	info := readNetworkInfo()
	if info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

// --- runLoop tests ---

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// scriptButton delivers edges on an unbuffered channel, so each send returns
// only once runLoop has picked the edge up. Combined with runLoop processing
// each case to completion before the next select, this makes the harness
// fully deterministic: by the time the signal is sent, every prior edge has
// been handled.
type scriptButton struct {
	ch chan gpio.Event
}

func newScriptButton() *scriptButton {
	return &scriptButton{ch: make(chan gpio.Event)}
}

func (b *scriptButton) Events() <-chan gpio.Event { return b.ch }
func (b *scriptButton) Close() error              { return nil }

// harness wires runLoop to fakes and drives it from a script.
type harness struct {
	button  *scriptButton
	ledOut  *gpio.FakeLED
	ctrl    *power.FakeController
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	tick    chan time.Time
	sig     chan os.Signal
	errCh   chan error
}

func startHarness(t *testing.T, cfg loopConfig, clock func() time.Time) *harness {
	t.Helper()
	h := &harness{
		button:  newScriptButton(),
		ledOut:  gpio.NewFakeLED(),
		ctrl:    power.NewFakeController(),
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), status.Config{}),
		tick:    make(chan time.Time),
		sig:     make(chan os.Signal, 1),
		errCh:   make(chan error, 1),
	}
	indicator := led.New(h.ledOut)
	go func() {
		h.errCh <- runLoop(h.button, indicator, h.ctrl, h.pub, h.pub, h.tracker, cfg, clock, h.tick, h.sig)
	}()
	return h
}

// press sends a full press/release pair with the given duration.
func (h *harness) press(at time.Time, dur time.Duration) {
	h.button.ch <- gpio.Event{Pressed: true, Time: at}
	h.button.ch <- gpio.Event{Pressed: false, Time: at.Add(dur)}
}

// stop signals runLoop and waits for it to return.
func (h *harness) stop(t *testing.T, s os.Signal) {
	t.Helper()
	h.sig <- s
	if err := <-h.errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func defaultLoopConfig() loopConfig {
	return loopConfig{
		debounce: 20 * time.Millisecond,
		shortMax: 1500 * time.Millisecond,
		longMax:  8 * time.Second,
	}
}

func TestRunLoopShortPressRequestsRestart(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := startHarness(t, defaultLoopConfig(), fakeClock(base, 100*time.Millisecond))

	h.press(base, 400*time.Millisecond)
	h.stop(t, syscall.SIGTERM)

	if h.ctrl.RestartCalls != 1 {
		t.Errorf("expected 1 restart call, got %d", h.ctrl.RestartCalls)
	}
	if h.ctrl.ShutdownCalls != 0 {
		t.Errorf("expected 0 shutdown calls, got %d", h.ctrl.ShutdownCalls)
	}

	types := h.pub.EventTypes()
	if len(types) != 2 || types[0] != logic.EventShortPress || types[1] != logic.EventRestartRequested {
		t.Errorf("unexpected events: %v", types)
	}
	if h.pub.Events[0].Duration != 400*time.Millisecond {
		t.Errorf("expected press duration on event, got %v", h.pub.Events[0].Duration)
	}

	if h.tracker.Snapshot().State != logic.StateRestartPending {
		t.Errorf("tracker state: got %s, want RESTART_PENDING", h.tracker.Snapshot().State)
	}
}

func TestRunLoopLongPressRequestsShutdown(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := startHarness(t, defaultLoopConfig(), fakeClock(base, 100*time.Millisecond))

	h.press(base, 3*time.Second)
	h.stop(t, syscall.SIGTERM)

	if h.ctrl.ShutdownCalls != 1 {
		t.Errorf("expected 1 shutdown call, got %d", h.ctrl.ShutdownCalls)
	}
	if h.ctrl.RestartCalls != 0 {
		t.Errorf("expected 0 restart calls, got %d", h.ctrl.RestartCalls)
	}

	types := h.pub.EventTypes()
	want := []logic.EventType{logic.EventLongPress, logic.EventShutdownRequested, logic.EventShutdownConfirmed}
	if len(types) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), types)
	}
	for i, w := range want {
		if types[i] != w {
			t.Errorf("event %d: expected %s, got %s", i, w, types[i])
		}
	}

	if h.tracker.Snapshot().State != logic.StateShutdownConfirmed {
		t.Errorf("tracker state: got %s, want SHUTDOWN_CONFIRMED", h.tracker.Snapshot().State)
	}
	// Solid LED while shutdown is in flight.
	if !h.ledOut.Last() {
		t.Error("expected LED on for pending shutdown")
	}
}

func TestRunLoopSecondPressIgnoredWhilePending(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := startHarness(t, defaultLoopConfig(), fakeClock(base, 100*time.Millisecond))

	h.press(base, 400*time.Millisecond)
	// Two more short presses 100ms after the first release.
	h.press(base.Add(500*time.Millisecond), 400*time.Millisecond)
	h.press(base.Add(time.Second), 400*time.Millisecond)
	h.stop(t, syscall.SIGTERM)

	if h.ctrl.RestartCalls != 1 {
		t.Errorf("expected exactly 1 restart call, got %d", h.ctrl.RestartCalls)
	}
	if len(h.pub.Events) != 2 {
		t.Errorf("expected 2 events (ignored presses publish nothing), got %v", h.pub.EventTypes())
	}
	if got := h.tracker.Snapshot().Counts.Ignored; got != 2 {
		t.Errorf("expected 2 ignored gestures, got %d", got)
	}
}

func TestRunLoopShutdownFailureReverts(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := startHarness(t, defaultLoopConfig(), fakeClock(base, 100*time.Millisecond))
	h.ctrl.ShutdownError = power.ErrUnavailable

	h.press(base, 3*time.Second)
	// Button must be re-armed: a later short press still restarts.
	h.press(base.Add(5*time.Second), 400*time.Millisecond)
	h.stop(t, syscall.SIGTERM)

	if h.ctrl.ShutdownCalls != 1 {
		t.Errorf("expected 1 shutdown attempt, got %d", h.ctrl.ShutdownCalls)
	}
	if h.ctrl.RestartCalls != 1 {
		t.Errorf("expected 1 restart call after revert, got %d", h.ctrl.RestartCalls)
	}

	types := h.pub.EventTypes()
	want := []logic.EventType{
		logic.EventLongPress,
		logic.EventShutdownRequested,
		logic.EventRequestFailed,
		logic.EventShortPress,
		logic.EventRestartRequested,
	}
	if len(types) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), types)
	}
	for i, w := range want {
		if types[i] != w {
			t.Errorf("event %d: expected %s, got %s", i, w, types[i])
		}
	}
}

func TestRunLoopRestartFailureReverts(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := startHarness(t, defaultLoopConfig(), fakeClock(base, 100*time.Millisecond))
	h.ctrl.RestartError = power.ErrPermissionDenied

	h.press(base, 400*time.Millisecond)
	h.stop(t, syscall.SIGTERM)

	if h.ctrl.RestartCalls != 1 {
		t.Errorf("expected 1 restart attempt, got %d", h.ctrl.RestartCalls)
	}
	if h.tracker.Snapshot().State != logic.StateRunning {
		t.Errorf("expected state RUNNING after failed restart, got %s", h.tracker.Snapshot().State)
	}

	types := h.pub.EventTypes()
	if len(types) != 3 || types[2] != logic.EventRequestFailed {
		t.Errorf("expected REQUEST_FAILED last, got %v", types)
	}
}

func TestRunLoopStuckButtonTakesNoAction(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := startHarness(t, defaultLoopConfig(), fakeClock(base, 100*time.Millisecond))

	h.press(base, 10*time.Second)
	h.stop(t, syscall.SIGTERM)

	if h.ctrl.RestartCalls != 0 || h.ctrl.ShutdownCalls != 0 {
		t.Errorf("stuck button must not trigger power calls, got restart=%d shutdown=%d",
			h.ctrl.RestartCalls, h.ctrl.ShutdownCalls)
	}
	if len(h.pub.Events) != 0 {
		t.Errorf("expected no events, got %v", h.pub.EventTypes())
	}
	if got := h.tracker.Snapshot().Counts.Faults; got != 1 {
		t.Errorf("expected 1 fault counted, got %d", got)
	}
}

func TestRunLoopSignalPublishesShutdownEvent(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := startHarness(t, defaultLoopConfig(), fakeClock(base, 100*time.Millisecond))

	h.stop(t, syscall.SIGINT)

	if len(h.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
	}
	se := h.pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN event, got %q", se.Event)
	}
	if se.Reason != "SIGINT" {
		t.Errorf("expected reason SIGINT, got %q", se.Reason)
	}
	if !se.Retained {
		t.Error("expected shutdown event retained")
	}
	if se.RawPayload == nil {
		t.Error("expected full status snapshot payload")
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := defaultLoopConfig()
	cfg.heartbeat = 15 * time.Minute

	// 10-minute clock steps: the second tick is past the heartbeat interval.
	h := startHarness(t, cfg, fakeClock(base, 10*time.Minute))

	h.tick <- time.Time{}
	h.tick <- time.Time{}
	h.stop(t, syscall.SIGTERM)

	var heartbeats int
	for _, se := range h.pub.SystemEvents {
		if se.Event == "HEARTBEAT" {
			heartbeats++
			if se.RawPayload == nil {
				t.Error("expected status snapshot in heartbeat payload")
			}
		}
	}
	if heartbeats != 1 {
		t.Errorf("expected 1 heartbeat, got %d", heartbeats)
	}
}

func TestRunLoopTickDrivesLED(t *testing.T) {
	base := time.Unix(1000, 0)
	// 1-second steps walk the idle blink through on/off phases.
	h := startHarness(t, defaultLoopConfig(), fakeClock(base, time.Second))

	for i := 0; i < 4; i++ {
		h.tick <- time.Time{}
	}
	h.stop(t, syscall.SIGTERM)

	if len(h.ledOut.Levels) < 2 {
		t.Fatalf("expected multiple LED writes from blinking, got %d", len(h.ledOut.Levels))
	}
	// Must contain both levels: the idle pattern blinks.
	var sawOn, sawOff bool
	for _, l := range h.ledOut.Levels {
		if l {
			sawOn = true
		} else {
			sawOff = true
		}
	}
	if !sawOn || !sawOff {
		t.Errorf("expected idle blink to toggle, levels=%v", h.ledOut.Levels)
	}
}

func TestRunLoopPublishFailureDoesNotCrash(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := startHarness(t, defaultLoopConfig(), fakeClock(base, 100*time.Millisecond))
	h.pub.PublishError = power.ErrUnavailable

	h.press(base, 400*time.Millisecond)
	h.stop(t, syscall.SIGTERM)

	// The restart must still have been requested despite publish failures.
	if h.ctrl.RestartCalls != 1 {
		t.Errorf("expected 1 restart call, got %d", h.ctrl.RestartCalls)
	}
}

func TestButtonString(t *testing.T) {
	if buttonString(true) != "PRESSED" {
		t.Errorf("got %q, want PRESSED", buttonString(true))
	}
	if buttonString(false) != "RELEASED" {
		t.Errorf("got %q, want RELEASED", buttonString(false))
	}
}
