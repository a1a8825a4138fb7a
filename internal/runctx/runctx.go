// Package runctx provides the per-execution object shared by every actor
// firing of one run: the abort flag, the first failure, the result sink and a
// few counters for diagnostics.
package runctx

import (
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/flowactor/internal/fault"
	"github.com/specialistvlad/flowactor/internal/value"
	"go.uber.org/atomic"
)

// RunContext is safe for concurrent use.
type RunContext struct {
	id      uuid.UUID
	context value.Context

	// failed mirrors failure != nil so the hot path never takes the lock.
	failed atomic.Bool

	mu      sync.Mutex
	failure *fault.Failure
	outputs []value.Value

	treeMu sync.RWMutex
	frames map[value.Context]frame
	order  []value.Context

	deliveries atomic.Int32
	firings    atomic.Int64
	drained    atomic.Int64
}

// frame places a call context in the run's call tree.
type frame struct {
	parent value.Context
	depth  int
}

// New creates the run context for one run in context c.
func New(c value.Context) *RunContext {
	return &RunContext{
		id:      uuid.New(),
		context: c,
		frames:  map[value.Context]frame{c: {parent: value.NoContext}},
		order:   []value.Context{c},
	}
}

// ID is the unique id of the run.
func (r *RunContext) ID() uuid.UUID { return r.id }

// Context is the initial context the run executes in.
func (r *RunContext) Context() value.Context { return r.context }

// Spawn registers child as the context of a call made from parent and
// returns its call depth. The run's initial context has depth 0.
func (r *RunContext) Spawn(parent, child value.Context) int {
	r.treeMu.Lock()
	defer r.treeMu.Unlock()
	depth := r.frames[parent].depth + 1
	r.frames[child] = frame{parent: parent, depth: depth}
	r.order = append(r.order, child)
	return depth
}

// Depth returns the call depth of c.
func (r *RunContext) Depth(c value.Context) int {
	r.treeMu.RLock()
	defer r.treeMu.RUnlock()
	return r.frames[c].depth
}

// Parent returns the context that made the call c runs. ok is false for the
// run's initial context and for contexts the run does not own.
func (r *RunContext) Parent(c value.Context) (parent value.Context, ok bool) {
	r.treeMu.RLock()
	defer r.treeMu.RUnlock()
	f, ok := r.frames[c]
	if !ok || f.parent == value.NoContext {
		return value.NoContext, false
	}
	return f.parent, true
}

// Contexts returns every context of the run, the initial one first and the
// others in the order their calls were made.
func (r *RunContext) Contexts() []value.Context {
	r.treeMu.RLock()
	defer r.treeMu.RUnlock()
	return append([]value.Context(nil), r.order...)
}

// Fail records f as the run's failure and raises the abort flag. Only the
// first failure is kept; Fail reports whether f was it.
func (r *RunContext) Fail(f *fault.Failure) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return false
	}
	r.failure = f
	r.outputs = nil
	r.failed.Store(true)
	return true
}

// Failed reports whether the run has been aborted.
func (r *RunContext) Failed() bool { return r.failed.Load() }

// Failure returns the failure that aborted the run, or nil.
func (r *RunContext) Failure() *fault.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

// Deliver hands the top-level exit's results to the sink. Results delivered
// after the run failed are discarded.
func (r *RunContext) Deliver(outputs []value.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries.Inc()
	if r.failure != nil || r.outputs != nil {
		return
	}
	r.outputs = append(make([]value.Value, 0, len(outputs)), outputs...)
}

// Outputs returns the delivered results. ok is false if the run failed or the
// top-level exit never fired.
func (r *RunContext) Outputs() (outputs []value.Value, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil || r.outputs == nil {
		return nil, false
	}
	return r.outputs, true
}

// Deliveries counts top-level exit firings.
func (r *RunContext) Deliveries() int32 { return r.deliveries.Load() }

// Fired counts one actor firing.
func (r *RunContext) Fired() { r.firings.Inc() }

// Firings returns the number of actor firings so far.
func (r *RunContext) Firings() int64 { return r.firings.Load() }

// Drained counts one firing skipped because the run had failed.
func (r *RunContext) Drained() { r.drained.Inc() }

// DrainedCount returns the number of firings skipped after failure.
func (r *RunContext) DrainedCount() int64 { return r.drained.Load() }
