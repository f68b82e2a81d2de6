package cache

import (
	"math"
	"reflect"
	"testing"
	"time"
	"unsafe"
)

func newTestLedger(t *testing.T, maxEntries int, maxWeight int64) *ledger[string] {
	t.Helper()
	l, err := newLedger[string](maxEntries, maxWeight)
	if err != nil {
		t.Fatalf("newLedger: %v", err)
	}
	return l
}

func testEntry(key string, weight int64) *entry[string] {
	return &entry[string]{key: key, stored: key, weight: weight}
}

func entryKeys(entries []*entry[string]) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

func TestNewLedger_RejectsZeroSize(t *testing.T) {
	if _, err := newLedger[string](0, 10); err == nil {
		t.Fatal("Expected error for zero max entries")
	}
}

func TestLedger_InsertEvictsByCount(t *testing.T) {
	l := newTestLedger(t, 2, math.MaxInt64)

	l.insert(testEntry("a", 1))
	l.insert(testEntry("b", 2))
	evicted := l.insert(testEntry("c", 3))

	if got := entryKeys(evicted); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("evicted = %v, want [a]", got)
	}
	if l.count() != 2 || l.totalWeight() != 5 {
		t.Errorf("Expected 2 entries weighing 5, got %d weighing %d", l.count(), l.totalWeight())
	}
}

func TestLedger_InsertEvictsByWeight(t *testing.T) {
	l := newTestLedger(t, 10, 10)

	l.insert(testEntry("a", 4))
	l.insert(testEntry("b", 4))
	evicted := l.insert(testEntry("c", 9))

	if got := entryKeys(evicted); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("evicted = %v, want [a b]", got)
	}
	if l.totalWeight() != 9 {
		t.Errorf("totalWeight = %d, want 9", l.totalWeight())
	}
}

func TestLedger_ReplaceKeepsWeightExact(t *testing.T) {
	l := newTestLedger(t, 10, 100)

	l.insert(testEntry("a", 40))
	evicted := l.insert(testEntry("a", 10))

	if len(evicted) != 0 {
		t.Errorf("Expected replacement to evict nothing, got %v", entryKeys(evicted))
	}
	if l.count() != 1 || l.totalWeight() != 10 {
		t.Errorf("Expected 1 entry weighing 10, got %d weighing %d", l.count(), l.totalWeight())
	}
}

func TestLedger_ReplaceMovesToMostRecent(t *testing.T) {
	l := newTestLedger(t, 3, math.MaxInt64)

	l.insert(testEntry("a", 1))
	l.insert(testEntry("b", 1))
	l.insert(testEntry("a", 1))

	if got := entryKeys(l.snapshot()); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("snapshot = %v, want [b a]", got)
	}
}

func TestLedger_OversizeEntryNeverResident(t *testing.T) {
	l := newTestLedger(t, 10, 10)

	l.insert(testEntry("keep", 3))
	l.insert(testEntry("big", 5))
	evicted := l.insert(testEntry("big", 11))

	if got := entryKeys(evicted); !reflect.DeepEqual(got, []string{"big", "big"}) {
		t.Errorf("evicted = %v, want old and new big", got)
	}
	if evicted[0].weight != 5 || evicted[1].weight != 11 {
		t.Errorf("Expected old entry reported before the rejected one, got weights %d, %d", evicted[0].weight, evicted[1].weight)
	}
	if _, ok := l.peek("big"); ok {
		t.Error("Expected oversize entry not to be resident")
	}
	if l.count() != 1 || l.totalWeight() != 3 {
		t.Errorf("Expected only keep to remain, got %d weighing %d", l.count(), l.totalWeight())
	}
}

func TestLedger_TouchAndPeek(t *testing.T) {
	l := newTestLedger(t, 3, math.MaxInt64)

	l.insert(testEntry("a", 1))
	l.insert(testEntry("b", 1))
	l.insert(testEntry("c", 1))

	l.peek("a")
	if got := entryKeys(l.snapshot()); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("peek changed order: %v", got)
	}

	l.touch("a")
	if got := entryKeys(l.snapshot()); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("snapshot after touch = %v, want [b c a]", got)
	}

	l.touch("missing")
	if l.count() != 3 {
		t.Errorf("touch of a missing key changed count to %d", l.count())
	}
}

func TestLedger_RemoveAndPurge(t *testing.T) {
	l := newTestLedger(t, 5, math.MaxInt64)

	l.insert(testEntry("a", 2))
	l.insert(testEntry("b", 3))

	e, ok := l.remove("a")
	if !ok || e.key != "a" {
		t.Fatalf("remove(a) = %v, %v", e, ok)
	}
	if _, ok := l.remove("a"); ok {
		t.Error("Expected second remove to report absent")
	}
	if l.totalWeight() != 3 {
		t.Errorf("totalWeight = %d, want 3", l.totalWeight())
	}
	if len(l.removed) != 0 {
		t.Errorf("Expected removal log to be drained, got %d", len(l.removed))
	}

	l.purge()
	if l.count() != 0 || l.totalWeight() != 0 {
		t.Errorf("Expected empty ledger after purge, got %d weighing %d", l.count(), l.totalWeight())
	}
	if evicted := l.insert(testEntry("c", 1)); len(evicted) != 0 {
		t.Errorf("Expected purge not to leak into later evictions, got %v", entryKeys(evicted))
	}
}

func TestEntry_Expiry(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		ttl        time.Duration
		defaultTTL time.Duration
		want       time.Time
	}{
		{"explicit", 5 * time.Second, time.Hour, now.Add(5 * time.Second)},
		{"zero uses default", 0, time.Hour, now.Add(time.Hour)},
		{"no expiration", NoExpiration, time.Hour, time.Time{}},
		{"default disabled", 0, -1, time.Time{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := expiry(tt.ttl, tt.defaultTTL, now); !got.Equal(tt.want) {
				t.Errorf("expiry = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_Expired(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	e := &entry[string]{key: "k", expiresAt: at}

	if e.expired(at.Add(-time.Nanosecond)) {
		t.Error("Expected entry to be fresh before its expiry")
	}
	if !e.expired(at) {
		t.Error("Expected entry to be expired at its expiry")
	}

	forever := &entry[string]{key: "k"}
	if forever.expired(at.Add(1000 * time.Hour)) {
		t.Error("Expected entry without expiry never to expire")
	}
}

func TestNewEntry_RejectsNegativeWeight(t *testing.T) {
	t.Parallel()
	if _, err := newEntry("k", nil, -1, time.Time{}); err == nil {
		t.Fatal("Expected error for negative weight")
	}
	if _, err := newEntry("k", nil, 0, time.Time{}); err != nil {
		t.Fatalf("Expected zero weight to be accepted, got %v", err)
	}
}

func TestDefaultWeigher(t *testing.T) {
	t.Parallel()
	var nilInt *int
	tests := []struct {
		name   string
		stored any
		want   int64
	}{
		{"nil", nil, 0},
		{"nil pointer", nilInt, 8},
		{"int", 1, 8},
		{"bytes", []byte("abcd"), 4},
		{"nil slice", []int(nil), 24},
		{"unsafe pointer", unsafe.Pointer(&struct{}{}), -1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DefaultWeigher(tt.stored); got != tt.want {
				t.Errorf("DefaultWeigher(%T) = %d, want %d", tt.stored, got, tt.want)
			}
		})
	}
}
