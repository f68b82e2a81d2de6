package cache

import (
	"time"

	"github.com/Belphemur/ubercache/apperrors"
)

// NoExpiration passed as a TTL stores an entry that never expires by time.
// It is still subject to capacity eviction.
const NoExpiration time.Duration = -1

// entry is the record owned by the ledger. Once inserted it is never
// mutated: an update replaces the whole entry, so readers may decode stored
// outside the cache lock.
type entry[K comparable] struct {
	key       K
	stored    any
	weight    int64
	expiresAt time.Time // zero => no TTL
}

func newEntry[K comparable](key K, stored any, weight int64, expiresAt time.Time) (*entry[K], error) {
	if weight < 0 {
		return nil, &apperrors.ErrInvalidWeight{Weight: weight}
	}
	return &entry[K]{
		key:       key,
		stored:    stored,
		weight:    weight,
		expiresAt: expiresAt,
	}, nil
}

// expired reports whether the entry's expiry is at or before now.
func (e *entry[K]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// expiry computes the absolute expiry of an entry stored at now.
//
//   - ttl > 0: now + ttl
//   - ttl == 0: the default TTL under the same rule
//   - otherwise: no expiry (zero time)
func expiry(ttl, defaultTTL time.Duration, now time.Time) time.Time {
	if ttl == 0 {
		ttl = defaultTTL
	}
	if ttl > 0 {
		return now.Add(ttl)
	}
	return time.Time{}
}
