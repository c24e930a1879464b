package event_bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type EventType string

// Event is the envelope passed to subscribers. Data holds one of the payload structs from events.go.
type Event struct {
	ctx       context.Context
	Type      EventType
	Timestamp time.Time
	Data      any
}

func NewEvent(ctx context.Context, eventType EventType, data any) Event {
	return Event{
		ctx:       ctx,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Context returns the context of the publishing request, carrying the acting user.
func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// EventT is an Event whose payload was asserted to T.
type EventT[T any] struct {
	ctx       context.Context
	Type      EventType
	Timestamp time.Time
	Data      T
}

func (e EventT[T]) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

type subscriber struct {
	id      uint64
	handler func(Event) error
}

// EventBus dispatches events synchronously to subscribers, in subscription order.
// It is safe for concurrent use.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]subscriber
	nextId      uint64
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]subscriber),
	}
}

// Subscribe registers h for eventType and returns a function removing it again.
func (eb *EventBus) Subscribe(eventType EventType, h func(Event) error) (unsubscribe func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.nextId++
	id := eb.nextId
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber{id: id, handler: h})

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		subs := eb.subscribers[eventType]
		for i, s := range subs {
			if s.id == id {
				eb.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(eb.subscribers[eventType]) == 0 {
			delete(eb.subscribers, eventType)
		}
	}
}

// SubscribeTyped registers a handler for payloads of type T. Events carrying another payload type are skipped.
// It is a function rather than a method because methods cannot declare type parameters.
//
//	event_bus.SubscribeTyped(bus, event_bus.ClaimPaidEvent, func(e event_bus.EventT[event_bus.ClaimPaid]) error {
//	    log.Infof("claim %d_%s paid: %s", e.Data.InternId, e.Data.PeriodKey, e.Data.ResolvedAmount)
//	    return nil
//	})
func SubscribeTyped[T any](eb *EventBus, eventType EventType, h func(EventT[T]) error) (unsubscribe func()) {
	return eb.Subscribe(eventType, func(e Event) error {
		payload, ok := e.Data.(T)
		if !ok {
			log.Debugf("event %s: expected payload %T, got %T", eventType, *new(T), e.Data)
			return nil
		}
		return h(EventT[T]{
			ctx:       e.ctx,
			Type:      e.Type,
			Timestamp: e.Timestamp,
			Data:      payload,
		})
	})
}

// Publish runs every subscriber of e.Type. A failing or panicking subscriber does not stop the
// others; all failures are joined into the returned error. A cancelled context stops dispatching.
func (eb *EventBus) Publish(e Event) error {
	eb.mu.RLock()
	subs := append([]subscriber(nil), eb.subscribers[e.Type]...)
	eb.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := e.Context().Err(); err != nil {
			errs = append(errs, fmt.Errorf("event %s: %w", e.Type, err))
			break
		}
		if err := dispatch(s, e); err != nil {
			log.Errorf("event %s: subscriber %d failed: %v", e.Type, s.id, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func dispatch(s subscriber, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber %d panicked: %v", s.id, r)
		}
	}()
	return s.handler(e)
}
