package testutil

import "sync"

// Recorder collects values passed to Record, in call order. It is safe for
// concurrent use, so one recorder can back handlers running on several
// goroutines.
type Recorder[E any] struct {
	mu     sync.Mutex
	events []E
	err    error
}

// NewRecorder returns a recorder whose Record always succeeds.
func NewRecorder[E any]() *Recorder[E] {
	return &Recorder[E]{}
}

// NewFailingRecorder returns a recorder whose Record stores the value and
// then returns err.
func NewFailingRecorder[E any](err error) *Recorder[E] {
	return &Recorder[E]{err: err}
}

// Record appends e. Its signature matches event handler functions.
func (r *Recorder[E]) Record(e E) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

// Events returns a copy of the recorded values.
func (r *Recorder[E]) Events() []E {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]E, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded values.
func (r *Recorder[E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset discards every recorded value.
func (r *Recorder[E]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
