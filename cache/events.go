package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Belphemur/ubercache/apperrors"
)

// EventKind names a cache state transition.
type EventKind uint8

const (
	// EventHit is raised by Get when a fresh entry is found.
	EventHit EventKind = iota + 1
	// EventMiss is raised by Get when no fresh entry is found.
	EventMiss
	// EventStale follows EventMiss when Get discovers and removes an expired entry.
	EventStale
	// EventDelete is raised by every Delete, whether or not the key existed.
	EventDelete
	// EventClear is raised by Clear.
	EventClear
	// EventEvict is raised by Set for each entry removed to restore capacity.
	EventEvict
)

var eventNames = [...]string{
	EventHit:    "hit",
	EventMiss:   "miss",
	EventStale:  "stale",
	EventDelete: "delete",
	EventClear:  "clear",
	EventEvict:  "evict",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) && eventNames[k] != "" {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event describes one state transition.
//
// Key is the zero value for EventClear. Value is set for EventHit and
// EventStale only, and is a fresh copy owned by the handler. ExpiresAt is
// set for EventHit, EventStale and EventEvict, and is zero when the entry
// had no TTL.
type Event[K comparable, V any] struct {
	Kind      EventKind
	Key       K
	Value     V
	ExpiresAt time.Time
}

// Handler receives events. A returned error or a panic is reported through
// the cache logger and Options.OnHandlerError and never reaches the caller
// of the operation that raised the event.
type Handler[K comparable, V any] func(Event[K, V]) error

// Subscription identifies a registered handler.
type Subscription struct {
	ID   uuid.UUID
	Kind EventKind
}

type handlerRecord[K comparable, V any] struct {
	sub       Subscription
	fn        Handler[K, V]
	wantValue bool
}

// dispatcher owns the ordered handler records of one cache. The slice is
// copied on every change so emit can iterate a snapshot without holding
// the lock while handlers run.
type dispatcher[K comparable, V any] struct {
	mu       sync.RWMutex
	handlers []handlerRecord[K, V]
	logger   zerolog.Logger
	onError  func(error)
}

func newDispatcher[K comparable, V any](logger zerolog.Logger, onError func(error)) *dispatcher[K, V] {
	return &dispatcher[K, V]{logger: logger, onError: onError}
}

func (d *dispatcher[K, V]) subscribe(kind EventKind, fn Handler[K, V], wantValue bool) Subscription {
	sub := Subscription{ID: uuid.New(), Kind: kind}

	d.mu.Lock()
	defer d.mu.Unlock()

	handlers := make([]handlerRecord[K, V], len(d.handlers), len(d.handlers)+1)
	copy(handlers, d.handlers)
	d.handlers = append(handlers, handlerRecord[K, V]{sub: sub, fn: fn, wantValue: wantValue})
	return sub
}

func (d *dispatcher[K, V]) unsubscribe(sub Subscription) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, h := range d.handlers {
		if h.sub.ID != sub.ID {
			continue
		}
		handlers := make([]handlerRecord[K, V], 0, len(d.handlers)-1)
		handlers = append(handlers, d.handlers[:i]...)
		d.handlers = append(handlers, d.handlers[i+1:]...)
		return true
	}
	return false
}

func (d *dispatcher[K, V]) reset() {
	d.mu.Lock()
	d.handlers = nil
	d.mu.Unlock()
}

// wantsValue reports whether any handler for kind needs the decoded value.
func (d *dispatcher[K, V]) wantsValue(kind EventKind) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, h := range d.handlers {
		if h.sub.Kind == kind && h.wantValue {
			return true
		}
	}
	return false
}

// emit delivers ev to every handler registered for its kind, in
// registration order.
func (d *dispatcher[K, V]) emit(ev Event[K, V]) {
	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()

	for _, h := range handlers {
		if h.sub.Kind != ev.Kind {
			continue
		}
		if err := call(h.fn, ev); err != nil {
			d.report(h.sub, err)
		}
	}
}

func call[K comparable, V any](fn Handler[K, V], ev Event[K, V]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ev)
}

func (d *dispatcher[K, V]) report(sub Subscription, err error) {
	herr := apperrors.NewHandlerError(sub.Kind.String(), err)
	d.logger.Error().
		Err(herr).
		Str("event", sub.Kind.String()).
		Str("subscription", sub.ID.String()).
		Msg("Event handler failed")
	if d.onError != nil {
		d.onError(herr)
	}
}
