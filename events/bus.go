package events

import (
	"context"
	"errors"
	"sync"

	"jackpot/domain/events"
	"jackpot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// Handler is a function that handles events
type Handler func(ctx context.Context, event events.Event)

// Bus manages in-process event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[events.EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType events.EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event events.Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Publish emits the event with a background context
func (b *Bus) Publish(event events.Event) error {
	b.Emit(context.Background(), event)
	return nil
}

// Fanout publishes every event to each of its publishers
type Fanout []interfaces.EventPublisher

// Publish delivers to all publishers and joins their errors
func (f Fanout) Publish(event events.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TransactionalBus holds pending events for one unit of work and flushes
// them to the underlying publisher after commit
type TransactionalBus struct {
	real    interfaces.EventPublisher
	pending []events.Event
}

// NewTransactionalBus creates a transactional bus over a publisher
func NewTransactionalBus(real interfaces.EventPublisher) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes the event until Flush
func (b *TransactionalBus) Publish(e events.Event) error {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
	return nil
}

// Pending returns the number of stashed events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush is called after a successful commit. Delivery failures are logged;
// the committed state is never affected by them.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events from transactional bus")

	var errs []error
	for _, ev := range b.pending {
		if err := b.real.Publish(ev); err != nil {
			log.WithError(err).WithField("eventType", ev.Type()).Error("Failed to deliver event")
			errs = append(errs, err)
		}
	}
	b.pending = nil
	return errors.Join(errs...)
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
