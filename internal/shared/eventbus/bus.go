package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"admin-console/internal/shared/logger"
)

// Event represents a generic event
type Event interface {
	Type() string
	Data() interface{}
	Timestamp() time.Time
	Source() string
}

// Handler defines the event handler function type
type Handler func(ctx context.Context, event Event) error

// Subscription identifies one registered handler so it can be removed
// without touching other subscribers of the same event type.
type Subscription struct {
	eventType string
	id        uint64
}

// EventBusInterface defines the contract for event bus implementations
type EventBusInterface interface {
	Subscribe(eventType string, handler Handler) Subscription
	Unsubscribe(sub Subscription)
	Publish(ctx context.Context, event Event) error
	GetSubscriberCount(eventType string) int
}

type registeredHandler struct {
	id      uint64
	handler Handler
}

// EventBus is an in-memory, in-process event bus.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]registeredHandler
	nextID   uint64
	logger   logger.Logger
	config   BusConfig
}

// BusConfig holds configuration for the event bus
type BusConfig struct {
	AsyncProcessing bool
	MaxRetries      int
	RetryDelay      time.Duration
}

// DefaultBusConfig delivers synchronously without retries: a controller
// handler reports its own failures through state, so retrying would only
// repeat remote calls.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		AsyncProcessing: false,
		MaxRetries:      0,
		RetryDelay:      100 * time.Millisecond,
	}
}

// NewEventBus creates a new event bus instance
func NewEventBus(log logger.Logger) *EventBus {
	return NewEventBusWithConfig(log, DefaultBusConfig())
}

// NewEventBusWithConfig creates a new event bus with custom configuration
func NewEventBusWithConfig(log logger.Logger, config BusConfig) *EventBus {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &EventBus{
		handlers: make(map[string][]registeredHandler),
		logger:   log.WithComponent("eventbus"),
		config:   config,
	}
}

// Subscribe adds a handler for a specific event type
func (eb *EventBus) Subscribe(eventType string, handler Handler) Subscription {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	eb.handlers[eventType] = append(eb.handlers[eventType], registeredHandler{id: eb.nextID, handler: handler})
	eb.logger.Debugf("Subscribed handler %d for event type: %s", eb.nextID, eventType)
	return Subscription{eventType: eventType, id: eb.nextID}
}

// Unsubscribe removes a single handler. Unknown subscriptions are ignored.
func (eb *EventBus) Unsubscribe(sub Subscription) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	handlers := eb.handlers[sub.eventType]
	for i, h := range handlers {
		if h.id == sub.id {
			kept := make([]registeredHandler, 0, len(handlers)-1)
			kept = append(kept, handlers[:i]...)
			kept = append(kept, handlers[i+1:]...)
			if len(kept) == 0 {
				delete(eb.handlers, sub.eventType)
			} else {
				eb.handlers[sub.eventType] = kept
			}
			eb.logger.Debugf("Unsubscribed handler %d for event type: %s", sub.id, sub.eventType)
			return
		}
	}
}

// Publish sends an event to all registered handlers
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := append([]registeredHandler(nil), eb.handlers[event.Type()]...)
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		eb.logger.Debugf("No handlers found for event type: %s", event.Type())
		return nil
	}

	eb.logger.Debugf("Publishing event type: %s to %d handlers", event.Type(), len(handlers))

	if eb.config.AsyncProcessing {
		return eb.publishAsync(ctx, event, handlers)
	}

	return eb.publishSync(ctx, event, handlers)
}

// publishSync runs every handler even when an earlier one fails and returns
// the first error.
func (eb *EventBus) publishSync(ctx context.Context, event Event, handlers []registeredHandler) error {
	var first error
	for _, h := range handlers {
		if err := eb.executeHandler(ctx, event, h); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (eb *EventBus) publishAsync(ctx context.Context, event Event, handlers []registeredHandler) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(handlers))

	for _, h := range handlers {
		wg.Add(1)
		go func(h registeredHandler) {
			defer wg.Done()
			if err := eb.executeHandler(ctx, event, h); err != nil {
				errCh <- err
			}
		}(h)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}

	return nil
}

// executeHandler executes a handler with retry logic
func (eb *EventBus) executeHandler(ctx context.Context, event Event, h registeredHandler) error {
	var lastErr error

	for attempt := 0; attempt <= eb.config.MaxRetries; attempt++ {
		if attempt > 0 {
			eb.logger.Warnf("Retrying handler %d for event %s (attempt %d/%d)",
				h.id, event.Type(), attempt+1, eb.config.MaxRetries+1)
			time.Sleep(eb.config.RetryDelay)
		}

		if err := h.handler(ctx, event); err != nil {
			lastErr = err
			eb.logger.Errorf("Handler %d failed for event %s: %v", h.id, event.Type(), err)
			continue
		}
		return nil
	}

	return fmt.Errorf("handler failed after %d attempts: %w", eb.config.MaxRetries+1, lastErr)
}

// GetSubscriberCount returns the number of handlers for an event type
func (eb *EventBus) GetSubscriberCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// BasicEvent implements the Event interface
type BasicEvent struct {
	eventType string
	data      interface{}
	timestamp time.Time
	source    string
}

// NewBasicEvent creates a new basic event
func NewBasicEvent(eventType string, data interface{}) Event {
	return NewBasicEventWithSource(eventType, data, "unknown")
}

// NewBasicEventWithSource creates a new basic event with source
func NewBasicEventWithSource(eventType string, data interface{}, source string) Event {
	return &BasicEvent{
		eventType: eventType,
		data:      data,
		timestamp: time.Now(),
		source:    source,
	}
}

func (e *BasicEvent) Type() string         { return e.eventType }
func (e *BasicEvent) Data() interface{}    { return e.data }
func (e *BasicEvent) Timestamp() time.Time { return e.timestamp }
func (e *BasicEvent) Source() string       { return e.source }

// Event types published by the admin controllers
const (
	EventTypeRecordSaved   = "record.saved"
	EventTypeRecordDeleted = "record.deleted"
	EventTypeNotification  = "notification"
)
