package cache

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// ledger keeps the recency order and the capacity accounting of a cache.
//
// The list is sized to maxEntries so the count bound is enforced by the LRU
// itself; the weight bound is enforced by evictUntilWithinLimits. The removal
// callback is the only place weight is subtracted, so every way an entry can
// leave (eviction, Remove, Purge) keeps the total exact.
//
// ledger is not safe for concurrent use; Cache serializes access.
type ledger[K comparable] struct {
	lru        *simplelru.LRU[K, *entry[K]]
	maxEntries int
	maxWeight  int64
	weight     int64
	removed    []*entry[K]
}

func newLedger[K comparable](maxEntries int, maxWeight int64) (*ledger[K], error) {
	l := &ledger[K]{
		maxEntries: maxEntries,
		maxWeight:  maxWeight,
	}
	lru, err := simplelru.NewLRU[K, *entry[K]](maxEntries, l.onRemove)
	if err != nil {
		return nil, fmt.Errorf("cache: ledger: %w", err)
	}
	l.lru = lru
	return l, nil
}

func (l *ledger[K]) onRemove(_ K, e *entry[K]) {
	l.weight -= e.weight
	l.removed = append(l.removed, e)
}

// drain returns the entries removed since the last drain.
func (l *ledger[K]) drain() []*entry[K] {
	out := l.removed
	l.removed = nil
	return out
}

// insert adds e at the most-recently-used end, replacing any entry with the
// same key, then evicts until both limits hold again. It returns the evicted
// entries, least recently used first. An entry heavier than maxWeight is
// never made resident: it is returned as evicted, and the value it would
// have replaced is evicted with it.
func (l *ledger[K]) insert(e *entry[K]) []*entry[K] {
	if e.weight > l.maxWeight {
		l.lru.Remove(e.key)
		return append(l.drain(), e)
	}

	if old, ok := l.lru.Peek(e.key); ok {
		l.weight -= old.weight
	}
	l.lru.Add(e.key, e)
	l.weight += e.weight

	return l.evictUntilWithinLimits()
}

// evictUntilWithinLimits pops least-recently-used entries while either
// limit is exceeded and returns everything evicted since the last drain.
func (l *ledger[K]) evictUntilWithinLimits() []*entry[K] {
	for l.lru.Len() > l.maxEntries || l.weight > l.maxWeight {
		if _, _, ok := l.lru.RemoveOldest(); !ok {
			break
		}
	}
	return l.drain()
}

// peek looks up key without touching its recency.
func (l *ledger[K]) peek(key K) (*entry[K], bool) {
	return l.lru.Peek(key)
}

// touch moves key to the most-recently-used end. No-op if absent.
func (l *ledger[K]) touch(key K) {
	l.lru.Get(key)
}

// remove deletes key and returns the removed entry. No-op if absent.
func (l *ledger[K]) remove(key K) (*entry[K], bool) {
	e, ok := l.lru.Peek(key)
	if !ok {
		return nil, false
	}
	l.lru.Remove(key)
	l.drain()
	return e, true
}

// purge removes every entry.
func (l *ledger[K]) purge() {
	l.lru.Purge()
	l.removed = nil
	l.weight = 0
}

// snapshot returns the resident entries, least recently used first,
// without touching their recency.
func (l *ledger[K]) snapshot() []*entry[K] {
	keys := l.lru.Keys()
	out := make([]*entry[K], 0, len(keys))
	for _, key := range keys {
		if e, ok := l.lru.Peek(key); ok {
			out = append(out, e)
		}
	}
	return out
}

func (l *ledger[K]) count() int {
	return l.lru.Len()
}

func (l *ledger[K]) totalWeight() int64 {
	return l.weight
}
