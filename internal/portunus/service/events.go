package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// Event types
const (
	EventAccessDecision = "access_decision"
	EventMotion         = "motion"
	EventLockState      = "lock_state"
	EventLEDState       = "led_state"
	EventTelemetry      = "telemetry"
)

// Event is something the controller did or observed. Data holds one of
// types.AccessDecision, MotionChange, LockChange, LEDChange or
// types.Telemetry depending on Type.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

type MotionChange struct {
	Event types.MotionEvent `json:"-"`
	State types.MotionState `json:"-"`
	Name  string            `json:"event"`
}

type LockChange struct {
	State types.LockState `json:"-"`
	Name  string          `json:"state"`
}

type LEDChange struct {
	On bool `json:"on"`
}

// EventSink receives controller events. Emit is called from the polling
// loop and must not block.
type EventSink interface {
	Emit(Event)
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}

type EventHandler func(Event)

// EventBus fans events out to subscribers. Handlers run synchronously on
// the emitting goroutine, so they must hand off anything slow.
type EventBus struct {
	mu          sync.RWMutex
	handlers    map[string]map[uint64]EventHandler
	allHandlers map[uint64]EventHandler
	nextID      uint64
	logger      *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers:    make(map[string]map[uint64]EventHandler),
		allHandlers: make(map[uint64]EventHandler),
		logger:      logger,
	}
}

// On registers a handler for one event type and returns its unsubscribe func.
func (eb *EventBus) On(eventType string, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	id := eb.nextID
	eb.nextID++
	if eb.handlers[eventType] == nil {
		eb.handlers[eventType] = make(map[uint64]EventHandler)
	}
	eb.handlers[eventType][id] = handler
	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		delete(eb.handlers[eventType], id)
	}
}

// OnAll registers a handler for every event type.
func (eb *EventBus) OnAll(handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	id := eb.nextID
	eb.nextID++
	eb.allHandlers[id] = handler
	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		delete(eb.allHandlers, id)
	}
}

// Emit delivers event to all matching handlers. A panicking handler is
// recovered and logged.
func (eb *EventBus) Emit(event Event) {
	eb.mu.RLock()
	handlers := make([]EventHandler, 0, len(eb.handlers[event.Type])+len(eb.allHandlers))
	for _, h := range eb.handlers[event.Type] {
		handlers = append(handlers, h)
	}
	for _, h := range eb.allHandlers {
		handlers = append(handlers, h)
	}
	eb.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					eb.logger.Error("event handler panic", "type", event.Type, "panic", r)
				}
			}()
			h(event)
		}()
	}
}
