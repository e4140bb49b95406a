package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/power-button/internal/logic"
)

// queueCapacity bounds how many messages are held while disconnected.
const queueCapacity = 64

// RealPublisher publishes to an actual MQTT broker. While the broker is
// unreachable, messages are queued and replayed in order on reconnect.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	pending   *offlineQueue
	connected bool // have we connected at least once
}

// NewRealPublisher creates a publisher for the given broker. The initial
// connection happens in the background with retry, so construction never
// blocks the GPIO loop; events published before the connection is up are
// queued.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{pending: newOfflineQueue(queueCapacity)}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "OFFLINE",
		Reason:    "connection lost",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("power-button").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, false).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// Publish sends a button/power event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.send(Topic, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.send(TopicSystem, 1, event.Retained, payload)
}

// send publishes one message, falling back to the offline queue when the
// broker is unreachable. Queued messages are not an error: they will go
// out on reconnect.
func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.enqueue(outboundMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.enqueue(outboundMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return fmt.Errorf("publish timeout, message queued")
	}
	if err := token.Error(); err != nil {
		p.enqueue(outboundMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

func (p *RealPublisher) enqueue(msg outboundMsg) {
	p.mu.Lock()
	p.pending.push(msg)
	n := p.pending.len()
	p.mu.Unlock()
	log.Printf("mqtt: broker unreachable, queued message (%d pending)", n)
}

// onConnect drains the offline queue and announces reconnection.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	first := !p.connected
	p.connected = true
	msgs := p.pending.drain()
	p.mu.Unlock()

	if first {
		log.Printf("mqtt: connected")
	} else {
		log.Printf("mqtt: reconnected")
		payload, _ := FormatSystemPayload(SystemEvent{
			Timestamp: time.Now(),
			Event:     "RECONNECTED",
		})
		client.Publish(TopicSystem, 1, false, payload)
	}

	for _, m := range msgs {
		token := client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: replay timeout, dropping queued message")
			continue
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: replay error: %v", err)
		}
	}
	if len(msgs) > 0 {
		log.Printf("mqtt: replayed %d queued messages", len(msgs))
	}
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
