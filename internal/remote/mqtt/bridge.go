//go:build !no_mqtt

package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/service"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

const outboxSize = 64

// Config holds MQTT bridge configuration.
type Config struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
	ClientID    string
	ModuleID    string
}

type message struct {
	topic    string
	payload  []byte
	retained bool
}

// Bridge connects the controller to the management plane: LED commands
// come in, controller events go out.
type Bridge struct {
	client pahomqtt.Client
	topics Topics
	led    service.LEDSetter
	bus    *service.EventBus
	logger *slog.Logger
	unsub  func()

	// send hands a message to the broker; replaced in tests.
	send func(m message)

	outbox chan message
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	lastLED *bool
}

// NewBridge creates and connects an MQTT bridge.
func NewBridge(bus *service.EventBus, led service.LEDSetter, cfg Config, logger *slog.Logger) (*Bridge, error) {
	b := newBridge(bus, led, NewTopics(cfg.TopicPrefix, cfg.ModuleID), logger)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "portunus-" + cfg.ModuleID
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(b.topics.State, "offline", 1, true).
		SetOnConnectHandler(func(c pahomqtt.Client) {
			b.logger.Info("MQTT connected")
			b.enqueue(message{topic: b.topics.State, payload: []byte("online"), retained: true})
			b.republishLED()
			c.Subscribe(b.topics.LEDSet, 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
				b.handleLEDCommand(msg.Payload())
			})
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			b.logger.Warn("MQTT connection lost", "err", err)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	b.client = client
	b.send = b.publish
	return b, nil
}

func newBridge(bus *service.EventBus, led service.LEDSetter, topics Topics, logger *slog.Logger) *Bridge {
	return &Bridge{
		topics: topics,
		led:    led,
		bus:    bus,
		logger: logger.With("component", "mqtt"),
		outbox: make(chan message, outboxSize),
		done:   make(chan struct{}),
	}
}

// Start subscribes to controller events and begins publishing.
func (b *Bridge) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.unsub = b.bus.OnAll(b.handleEvent)
	go b.run(ctx)
	b.logger.Info("MQTT bridge started", "topic", b.topics.State)
}

// Stop publishes offline state, unsubscribes, and disconnects.
func (b *Bridge) Stop() {
	b.once.Do(func() {
		if b.unsub != nil {
			b.unsub()
		}
		if b.cancel != nil {
			b.cancel()
			<-b.done
		}
		if b.client != nil {
			b.publish(message{topic: b.topics.State, payload: []byte("offline"), retained: true})
			b.client.Disconnect(1000)
		}
		b.logger.Info("MQTT bridge stopped")
	})
}

func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case m := <-b.outbox:
			b.send(m)
		case <-ctx.Done():
			return
		}
	}
}

// handleEvent runs on the controller loop, so it only enqueues.
func (b *Bridge) handleEvent(event service.Event) {
	switch data := event.Data.(type) {
	case types.AccessDecision:
		b.enqueue(message{topic: b.topics.Access, payload: mustJSON(data)})
	case types.Telemetry:
		b.enqueue(message{topic: b.topics.Telemetry, payload: mustJSON(data)})
	case service.MotionChange:
		b.enqueue(message{topic: b.topics.Motion, payload: mustJSON(map[string]any{
			"event": data.Name,
			"at":    event.At,
		})})
	case service.LockChange:
		b.enqueue(message{topic: b.topics.Lock, payload: []byte(data.Name), retained: true})
	case service.LEDChange:
		b.mu.Lock()
		on := data.On
		b.lastLED = &on
		b.mu.Unlock()
		b.enqueue(message{topic: b.topics.LEDState, payload: onOff(on), retained: true})
	}
}

func (b *Bridge) enqueue(m message) {
	select {
	case b.outbox <- m:
	default:
		b.logger.Warn("MQTT outbox full, message dropped", "topic", m.topic)
	}
}

func (b *Bridge) republishLED() {
	b.mu.Lock()
	last := b.lastLED
	b.mu.Unlock()
	if last != nil {
		b.enqueue(message{topic: b.topics.LEDState, payload: onOff(*last), retained: true})
	}
}

func (b *Bridge) handleLEDCommand(payload []byte) {
	on, err := ParseLEDPayload(payload)
	if err != nil {
		b.logger.Warn("invalid LED command", "payload", string(payload), "err", err)
		return
	}
	b.logger.Info("LED command", "on", on)
	b.led.SetLed(on)
}

func (b *Bridge) publish(m message) {
	token := b.client.Publish(m.topic, 1, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		b.logger.Warn("MQTT publish timeout", "topic", m.topic)
	} else if err := token.Error(); err != nil {
		b.logger.Warn("MQTT publish error", "topic", m.topic, "err", err)
	}
}
