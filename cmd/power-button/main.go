// Command power-button turns the panel pushbutton into clean power-state
// transitions: a short press requests a reboot, a long press a shutdown, and
// the status LED shows what is pending. Power requests go to systemd-logind.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/sweeney/power-button/internal/gpio"
	"github.com/sweeney/power-button/internal/led"
	"github.com/sweeney/power-button/internal/logic"
	"github.com/sweeney/power-button/internal/mqtt"
	"github.com/sweeney/power-button/internal/power"
	"github.com/sweeney/power-button/internal/status"
	"github.com/sweeney/power-button/internal/web"
)

// powerRequestTimeout bounds a single logind call.
const powerRequestTimeout = 10 * time.Second

func main() {
	chip := flag.String("chip", gpio.DefaultChip, "GPIO chip name")
	pinButton := flag.Int("pin-button", gpio.DefaultButtonPin, "BCM pin number for the pushbutton")
	pinLED := flag.Int("pin-led", gpio.DefaultLEDPin, "BCM pin number for the status LED")
	debounce := flag.Duration("debounce", 20*time.Millisecond, "Debounce threshold")
	shortMax := flag.Duration("short-press", 1500*time.Millisecond, "Presses below this request a restart, above it a shutdown")
	longMax := flag.Duration("long-press", 8*time.Second, "Presses at least this long are treated as a stuck button and ignored")
	tick := flag.Duration("tick", 100*time.Millisecond, "LED and heartbeat tick interval")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	printState := flag.Bool("print-state", false, "Print current button state and exit")

	flag.Parse()

	cfg := loopConfig{
		debounce:  *debounce,
		shortMax:  *shortMax,
		longMax:   *longMax,
		heartbeat: *heartbeat,
	}
	if err := run(*chip, *pinButton, *pinLED, *tick, *broker, *httpAddr, *printState, cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loopConfig carries the classification and heartbeat windows into runLoop.
type loopConfig struct {
	debounce  time.Duration
	shortMax  time.Duration
	longMax   time.Duration
	heartbeat time.Duration
}

func run(chip string, pinButton, pinLED int, tick time.Duration, broker, httpAddr string, printState bool, cfg loopConfig) error {
	// Initialize GPIO. Failure here is fatal: the daemon must not run with
	// half-functional gesture detection.
	lines, err := gpio.NewReal(chip, pinButton, pinLED, cfg.debounce)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer lines.Close()

	// Print state mode
	if printState {
		pressed, err := lines.ReadButton()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("button: %s\n", buttonString(pressed))
		return nil
	}

	// Power controller (connects to logind lazily on first request)
	ctrl := power.NewLogin1Controller()
	defer ctrl.Close()

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(broker)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		DebounceMs:  cfg.debounce.Milliseconds(),
		ShortMaxMs:  cfg.shortMax.Milliseconds(),
		LongMaxMs:   cfg.longMax.Milliseconds(),
		TickMs:      tick.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		Chip:        chip,
		ButtonPin:   pinButton,
		LEDPin:      pinLED,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: chip=%s button=%d led=%d debounce=%v short<%v fault>=%v heartbeat=%v broker=%s",
		chip, pinButton, pinLED, cfg.debounce, cfg.shortMax, cfg.longMax, cfg.heartbeat, broker)

	// Tell systemd we are up; harmless when not running under systemd.
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Printf("sd_notify: %v", err)
	}
	defer daemon.SdNotify(false, daemon.SdNotifyStopping)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	indicator := led.New(lines)
	return runLoop(lines, indicator, ctrl, publisher, publisher, tracker, cfg, time.Now, ticker.C, sigCh)
}

func runLoop(button gpio.Button, indicator *led.Indicator, ctrl power.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, cfg loopConfig, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	classifier := logic.NewClassifier(cfg.debounce, cfg.shortMax, cfg.longMax)
	coordinator := logic.NewCoordinator(startTime)
	indicator.SetState(coordinator.State(), startTime)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case edge := <-button.Events():
			t := now()
			gesture := classifier.Process(logic.EdgeInput{Pressed: edge.Pressed, Time: edge.Time})
			if gesture == nil {
				continue
			}
			if gesture.Kind == logic.GestureNone {
				log.Printf("button held %v, treating as stuck contact, no action", gesture.Duration)
			}

			before := coordinator.State()
			action, events := coordinator.Apply(*gesture, t)
			if action == logic.ActionNone && gesture.Kind != logic.GestureNone {
				log.Printf("%s ignored, %s already in progress", gesture.Kind, before)
			}
			publishEvents(publisher, tracker, events)
			indicator.SetState(coordinator.State(), t)

			switch action {
			case logic.ActionRestart:
				log.Printf("short press (%v), requesting restart", gesture.Duration)
				if err := requestPower(ctrl.Restart); err != nil {
					log.Printf("restart request failed: %v", err)
					if ev := coordinator.Revert(now(), err.Error()); ev != nil {
						publishEvents(publisher, tracker, []logic.Event{*ev})
					}
					indicator.SetState(coordinator.State(), now())
				}
				// On success the process dies with the reboot; the state
				// stays RESTART_PENDING until then.

			case logic.ActionShutdown:
				log.Printf("long press (%v), requesting shutdown", gesture.Duration)
				if err := requestPower(ctrl.Shutdown); err != nil {
					log.Printf("shutdown request failed: %v", err)
					if ev := coordinator.Revert(now(), err.Error()); ev != nil {
						publishEvents(publisher, tracker, []logic.Event{*ev})
					}
				} else if ev := coordinator.Confirm(now()); ev != nil {
					publishEvents(publisher, tracker, []logic.Event{*ev})
				}
				indicator.SetState(coordinator.State(), now())
			}

			if tracker != nil {
				tracker.Update(coordinator.State(), coordinator.CountsSnapshot())
			}

		case <-tick:
			t := now()
			indicator.Tick(t)

			if hbData := coordinator.CheckHeartbeat(t, cfg.heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v short=%d long=%d ignored=%d faults=%d",
					hbData.Uptime, hbData.Counts.Short, hbData.Counts.Long, hbData.Counts.Ignored, hbData.Counts.Faults)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					tracker.Update(coordinator.State(), coordinator.CountsSnapshot())
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(coordinator.State(), coordinator.CountsSnapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

// publishEvents sends events to MQTT and records them on the tracker.
// Publish failures are logged, never fatal.
func publishEvents(publisher mqtt.Publisher, tracker *status.Tracker, events []logic.Event) {
	for _, event := range events {
		log.Printf("event: %s (state=%s)", event.Type, event.State)
		if err := publisher.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
		}
		if tracker != nil {
			tracker.RecordEvent(event)
		}
	}
}

// requestPower runs one logind call with a bounded timeout.
func requestPower(call func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), powerRequestTimeout)
	defer cancel()
	return call(ctx)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func buttonString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
