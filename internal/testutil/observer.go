package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/flowactor/internal/engine"
)

// EventRecorder is an engine.Observer that keeps everything it is told.
type EventRecorder struct {
	mu        sync.Mutex
	events    []engine.Event
	summaries []engine.Summary
}

func (r *EventRecorder) ActorFired(ctx context.Context, ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *EventRecorder) RunFinished(ctx context.Context, s engine.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, s)
}

// Events returns the recorded firings in arrival order.
func (r *EventRecorder) Events() []engine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Event(nil), r.events...)
}

// Summaries returns the recorded run summaries.
func (r *EventRecorder) Summaries() []engine.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Summary(nil), r.summaries...)
}

// Fired returns how often the named actor fired, drained rounds excluded.
func (r *EventRecorder) Fired(name string) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Name == name && !ev.Drained {
			n++
		}
	}
	return n
}

// Branches returns the branches the named actor fired on, in order.
func (r *EventRecorder) Branches(name string) []int {
	var out []int
	for _, ev := range r.Events() {
		if ev.Name == name && !ev.Drained {
			out = append(out, ev.Branch)
		}
	}
	return out
}
