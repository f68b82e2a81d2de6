// Package cache provides an in-process LRU cache with per-entry TTL,
// weighted capacity accounting and synchronous event notification.
//
// Values are stored through a codec.Codec, so neither the value passed to
// Set nor the value returned by Get ever shares memory with the entry the
// cache holds. Capacity is bounded both by entry count and by total weight;
// Set evicts least-recently-used entries until both bounds hold again.
// Expiry is lazy: an expired entry stays resident (and counted) until the
// next Get for its key observes and removes it.
//
// All methods are safe for concurrent use. Each operation runs its ledger
// update inside one critical section; events are delivered after that
// section ends and before the method returns, so handlers may call back
// into the cache. Events of one goroutine arrive in the order its
// operations ran. Events of operations racing on different goroutines may
// reach handlers in a different order than their state changes were
// applied.
package cache

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Belphemur/ubercache/apperrors"
	"github.com/Belphemur/ubercache/codec"
)

const (
	// DefaultMaxEntries is used when Options.MaxEntries is zero.
	DefaultMaxEntries = 5000

	// DefaultTTL is used when Options.DefaultTTL is zero.
	DefaultTTL = time.Hour
)

// Options configures a Cache. The zero value is valid.
type Options[V any] struct {
	// MaxEntries bounds the number of resident entries. Zero means
	// DefaultMaxEntries.
	MaxEntries int

	// MaxWeight bounds the total weight of resident entries. Zero means
	// unbounded.
	MaxWeight int64

	// DefaultTTL applies to entries stored without an explicit TTL. Zero
	// means DefaultTTL; a negative value disables the default expiry.
	DefaultTTL time.Duration

	// Codec isolates stored values from callers. Defaults to codec.NewClone.
	Codec codec.Codec[V]

	// Weigher computes entry weights from encoded values. Defaults to
	// DefaultWeigher.
	Weigher Weigher

	// Logger receives eviction and handler failure logs. Defaults to a
	// disabled logger.
	Logger *zerolog.Logger

	// Group is the "cache" label value of the Prometheus metrics
	// (cache_hits_total, cache_entries, ...). When non-empty the cache is
	// instrumented; Close unregisters its collectors.
	Group string

	// OnHandlerError is called with an *apperrors.ErrHandler whenever an
	// event handler returns an error or panics.
	OnHandlerError func(error)

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Snapshot is a point-in-time copy of one resident entry.
type Snapshot[K comparable, V any] struct {
	Key       K
	Value     V
	Weight    int64
	ExpiresAt time.Time // zero when the entry has no TTL
}

// Cache is an LRU cache with TTL and weighted capacity.
type Cache[K comparable, V any] struct {
	mu     sync.Mutex
	ledger *ledger[K]

	codec      codec.Codec[V]
	weigh      func(any) (int64, error)
	defaultTTL time.Duration
	now        func() time.Time

	events    *dispatcher[K, V]
	logger    zerolog.Logger
	instr     *instrumentation
	closeOnce sync.Once
}

// New creates a cache from opts.
func New[K comparable, V any](opts Options[V]) (*Cache[K, V], error) {
	maxEntries := opts.MaxEntries
	switch {
	case maxEntries == 0:
		maxEntries = DefaultMaxEntries
	case maxEntries < 0:
		return nil, fmt.Errorf("cache: MaxEntries must be positive, got %d", opts.MaxEntries)
	}

	maxWeight := opts.MaxWeight
	switch {
	case maxWeight == 0:
		maxWeight = math.MaxInt64
	case maxWeight < 0:
		return nil, fmt.Errorf("cache: MaxWeight must be positive, got %d", opts.MaxWeight)
	}

	defaultTTL := opts.DefaultTTL
	if defaultTTL == 0 {
		defaultTTL = DefaultTTL
	}

	l, err := newLedger[K](maxEntries, maxWeight)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "cache").Logger()
	}

	c := &Cache[K, V]{
		ledger:     l,
		codec:      opts.Codec,
		weigh:      weigher(opts.Weigher),
		defaultTTL: defaultTTL,
		now:        opts.Clock,
		events:     newDispatcher[K, V](logger, opts.OnHandlerError),
		logger:     logger,
	}
	if c.codec == nil {
		c.codec = codec.NewClone[V]()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if opts.Group != "" {
		c.instr = instrument(c, opts.Group)
	}
	return c, nil
}

// Set stores value under key with the default TTL.
func (c *Cache[K, V]) Set(key K, value V) error {
	return c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value under key. A positive ttl overrides the default
// TTL, zero uses it, and a negative ttl (NoExpiration) stores an entry that
// never expires by time.
//
// A nil interface key is rejected with *apperrors.ErrInvalidKey; zero
// values such as "" or 0 are ordinary keys. A value the codec cannot
// represent, or the default weigher cannot measure, is rejected with
// *apperrors.ErrEncoding. In every failure case the cache is left
// unchanged. Storing an entry may evict others, each raising EventEvict.
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) error {
	if any(key) == nil {
		return apperrors.NewInvalidKeyError(key)
	}

	stored, err := c.codec.Encode(value)
	if err != nil {
		return err
	}
	weight, err := c.weigh(stored)
	if err != nil {
		return apperrors.NewEncodingError(c.codec.Name(), err)
	}
	e, err := newEntry(key, stored, weight, expiry(ttl, c.defaultTTL, c.now()))
	if err != nil {
		return err
	}

	c.mu.Lock()
	evicted := c.ledger.insert(e)
	c.mu.Unlock()

	for _, ev := range evicted {
		c.logger.Debug().
			Interface("key", ev.key).
			Int64("weight", ev.weight).
			Msg("Evicted cache entry")
		c.events.emit(Event[K, V]{Kind: EventEvict, Key: ev.key, ExpiresAt: ev.expiresAt})
	}
	return nil
}

// Get returns a fresh copy of the value stored under key.
//
// A missing key raises EventMiss. An expired key is removed and raises
// EventMiss followed by EventStale carrying the expired value. A fresh key
// is promoted to most recently used and raises EventHit. ok is false unless
// the key was fresh. Stored data that fails to decode is reported as
// *apperrors.ErrCorruptData.
func (c *Cache[K, V]) Get(key K) (value V, ok bool, err error) {
	var zero V
	now := c.now()

	c.mu.Lock()
	e, found := c.ledger.peek(key)
	if !found {
		c.mu.Unlock()
		c.events.emit(Event[K, V]{Kind: EventMiss, Key: key})
		return zero, false, nil
	}
	if e.expired(now) {
		c.ledger.remove(key)
		c.mu.Unlock()
		c.events.emit(Event[K, V]{Kind: EventMiss, Key: key})
		return zero, false, c.emitStale(e)
	}
	c.ledger.touch(key)
	c.mu.Unlock()

	value, err = c.codec.Decode(e.stored)
	if err != nil {
		return zero, false, err
	}

	ev := Event[K, V]{Kind: EventHit, Key: key, ExpiresAt: e.expiresAt}
	if c.events.wantsValue(EventHit) {
		if ev.Value, err = c.codec.Decode(e.stored); err != nil {
			return zero, false, err
		}
	}
	c.events.emit(ev)
	return value, true, nil
}

func (c *Cache[K, V]) emitStale(e *entry[K]) error {
	ev := Event[K, V]{Kind: EventStale, Key: e.key, ExpiresAt: e.expiresAt}
	if c.events.wantsValue(EventStale) {
		value, err := c.codec.Decode(e.stored)
		if err != nil {
			c.logger.Error().
				Err(err).
				Interface("key", e.key).
				Msg("Failed to decode stale cache entry")
			return err
		}
		ev.Value = value
	}
	c.events.emit(ev)
	return nil
}

// Delete removes key if present and always raises EventDelete.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	c.ledger.remove(key)
	c.mu.Unlock()

	c.events.emit(Event[K, V]{Kind: EventDelete, Key: key})
}

// Clear removes every entry and raises EventClear.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.ledger.purge()
	c.mu.Unlock()

	c.events.emit(Event[K, V]{Kind: EventClear})
}

// Count returns the number of resident entries, including expired entries
// no Get has observed yet.
func (c *Cache[K, V]) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.count()
}

// Size returns the total weight of resident entries.
func (c *Cache[K, V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.totalWeight()
}

// Contains reports whether key holds a fresh entry, without affecting
// recency, removing expired entries, or raising events.
func (c *Cache[K, V]) Contains(key K) bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.ledger.peek(key)
	return ok && !e.expired(now)
}

// Keys returns the resident keys, least recently used first.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	entries := c.ledger.snapshot()
	c.mu.Unlock()

	keys := make([]K, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

// Dump returns a snapshot of every resident entry, least recently used
// first, without affecting recency. Expired entries no Get has observed yet
// are included with their ExpiresAt.
func (c *Cache[K, V]) Dump() ([]Snapshot[K, V], error) {
	c.mu.Lock()
	entries := c.ledger.snapshot()
	c.mu.Unlock()

	out := make([]Snapshot[K, V], 0, len(entries))
	for _, e := range entries {
		value, err := c.codec.Decode(e.stored)
		if err != nil {
			return nil, fmt.Errorf("cache: dump %v: %w", e.key, err)
		}
		out = append(out, Snapshot[K, V]{
			Key:       e.key,
			Value:     value,
			Weight:    e.weight,
			ExpiresAt: e.expiresAt,
		})
	}
	return out, nil
}

// On registers handler for kind. Handlers run in registration order.
func (c *Cache[K, V]) On(kind EventKind, handler Handler[K, V]) Subscription {
	return c.events.subscribe(kind, handler, true)
}

// Off removes a handler registered with On. It reports whether the
// subscription was found.
func (c *Cache[K, V]) Off(sub Subscription) bool {
	return c.events.unsubscribe(sub)
}

// Close drops every subscription and unregisters the metrics collectors.
// The cache remains usable. Close is safe to call multiple times.
func (c *Cache[K, V]) Close() error {
	c.closeOnce.Do(func() {
		if c.instr != nil {
			c.instr.close()
		}
		c.events.reset()
	})
	return nil
}
