package loadgen

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Belphemur/ubercache/cache"
)

func newTestTarget(t *testing.T, maxEntries int) *cache.Cache[string, any] {
	t.Helper()
	c, err := cache.New[string, any](cache.Options[any]{MaxEntries: maxEntries})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRunner_RejectsNonPositiveOperations(t *testing.T) {
	if _, err := NewRunner(newTestTarget(t, 10), 0, zerolog.Nop()); err == nil {
		t.Fatal("Expected error for zero operations")
	}
}

func TestRunner_Run(t *testing.T) {
	target := newTestTarget(t, 1000)
	runner, err := NewRunner(target, 100, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		PhaseSetObject,
		PhaseSetPrimitive,
		PhaseGetEmpty,
		PhaseGetPopulated,
		PhaseGetPopulatedComplex,
		PhaseDelete,
	}
	if len(results) != len(want) {
		t.Fatalf("Expected %d results, got %d", len(want), len(results))
	}

	wantHits := map[string]int{
		PhaseGetEmpty:            0,
		PhaseGetPopulated:        100,
		PhaseGetPopulatedComplex: 100,
	}
	for i, res := range results {
		if res.Phase != want[i] {
			t.Errorf("result %d phase = %q, want %q", i, res.Phase, want[i])
		}
		if res.Operations != 100 || res.Errors != 0 {
			t.Errorf("%s: operations=%d errors=%d, want 100/0", res.Phase, res.Operations, res.Errors)
		}
		if hits, ok := wantHits[res.Phase]; ok && res.Hits != hits {
			t.Errorf("%s: hits = %d, want %d", res.Phase, res.Hits, hits)
		}
	}

	if target.Count() != 0 {
		t.Errorf("Expected target to be cleared after the run, got %d entries", target.Count())
	}
}

func TestRunner_CapacityBoundedTarget(t *testing.T) {
	target := newTestTarget(t, 10)
	runner, err := NewRunner(target, 50, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	results, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, res := range results {
		if res.Phase == PhaseGetPopulated && res.Hits != 10 {
			t.Errorf("Expected only the 10 resident keys to hit, got %d", res.Hits)
		}
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	runner, err := NewRunner(newTestTarget(t, 10), 10, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := runner.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no completed phases, got %d", len(results))
	}
}

// failingTarget rejects every Set.
type failingTarget struct {
	*cache.Cache[string, any]
}

func (failingTarget) Set(string, any) error {
	return errors.New("read-only")
}

func TestRunner_CountsErrors(t *testing.T) {
	runner, err := NewRunner(failingTarget{newTestTarget(t, 10)}, 5, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	results, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("Expected populate failure to abort the run")
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 phases before the first populate, got %d", len(results))
	}
	if results[0].Errors != 5 {
		t.Errorf("Expected 5 errors in %s, got %d", results[0].Phase, results[0].Errors)
	}
}
