package actor

import (
	"context"
	"sync"

	"github.com/specialistvlad/flowactor/internal/fault"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/runctx"
	"github.com/specialistvlad/flowactor/internal/value"
)

// Launcher is the kernel-execution layer.
type Launcher interface {
	Launch(ctx context.Context, kernel string, inputs []value.TensorHandle) ([]value.TensorHandle, error)
}

// Reader reads a condition tensor as a branch index. True reads as branch 0,
// false as branch 1, and an integer i as branch i.
type Reader interface {
	ReadCondition(h value.TensorHandle) (int, error)
}

// DefaultMaxDepth bounds every per-context stack when no other bound is given.
const DefaultMaxDepth = 1024

// Actor is the runtime state of one arena entry. It is safe for concurrent use.
type Actor struct {
	spec     *graph.Actor
	g        *graph.Graph
	consumes bool
	isRoot   bool
	nonLocal int
	maxDepth int

	mu     sync.Mutex
	rounds map[value.Context]*buffers
}

type buffers struct {
	data     [][]value.Value
	partials [][]value.Value
	branches []value.BranchID
	calls    []value.Call
}

func (b *buffers) empty() bool {
	for slot := range b.data {
		if len(b.data[slot]) > 0 || len(b.partials[slot]) > 0 {
			return false
		}
	}
	return len(b.branches) == 0 && len(b.calls) == 0
}

// New creates the runtime actor for arena entry id of g.
func New(g *graph.Graph, id graph.ActorID, maxDepth int) *Actor {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	spec := g.Actor(id)
	return &Actor{
		spec:     spec,
		g:        g,
		consumes: g.ConsumesBranchID(id),
		isRoot:   g.Root().Exit == id,
		nonLocal: spec.Inputs - len(spec.Locals),
		maxDepth: maxDepth,
		rounds:   make(map[value.Context]*buffers),
	}
}

// NewArena creates one runtime actor per arena entry of g, in ID order.
func NewArena(g *graph.Graph, maxDepth int) []*Actor {
	arena := make([]*Actor, g.Len())
	for i := range arena {
		arena[i] = New(g, graph.ActorID(i), maxDepth)
	}
	return arena
}

// Spec returns the static description of the actor.
func (a *Actor) Spec() *graph.Actor { return a.spec }

// ConsumesBranchID reports whether the actor pops a branch id on every firing.
func (a *Actor) ConsumesBranchID() bool { return a.consumes }

// round returns the buffers for c, creating them on first delivery. The
// caller holds a.mu.
func (a *Actor) round(c value.Context) *buffers {
	b, ok := a.rounds[c]
	if !ok {
		b = &buffers{
			data:     make([][]value.Value, a.spec.Inputs),
			partials: make([][]value.Value, a.spec.Inputs),
		}
		a.rounds[c] = b
	}
	return b
}

func (a *Actor) overflow(what string, c value.Context) *fault.Failure {
	return fault.Newf(fault.DepthExceeded, "%s of %q exceeds %d pending entries in context %d", what, a.spec.Name, a.maxDepth, c)
}

// RunOpData buffers a value delivered by a data arrow into slot.
func (a *Actor) RunOpData(c value.Context, slot int, v value.Value) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.round(c)
	if len(b.data[slot]) >= a.maxDepth {
		return a.overflow("data slot", c)
	}
	b.data[slot] = append(b.data[slot], v)
	return nil
}

// RunOpPartial buffers a partial application delivered at position. It
// overrides whatever data the same position holds for the round.
func (a *Actor) RunOpPartial(c value.Context, position int, p *value.Partial) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.round(c)
	if len(b.partials[position]) >= a.maxDepth {
		return a.overflow("partial slot", c)
	}
	b.partials[position] = append(b.partials[position], value.OfPartial(p))
	return nil
}

// RunBranchID pushes the return address of a call onto the context's stack.
// The NoCaller sentinel is never pushed.
func (a *Actor) RunBranchID(c value.Context, id value.BranchID) error {
	if id == value.NoCaller {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.round(c)
	if len(b.branches) >= a.maxDepth {
		return a.overflow("branch id stack", c)
	}
	b.branches = append(b.branches, id)
	return nil
}

// RunCall buffers a fully applied call of the sub-graph an Entrance bounds.
func (a *Actor) RunCall(c value.Context, call value.Call) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.round(c)
	if len(b.calls) >= a.maxDepth {
		return a.overflow("call queue", c)
	}
	b.calls = append(b.calls, call)
	return nil
}

// Release drops every buffer held for c and reports whether any input was
// still pending.
func (a *Actor) Release(c value.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.rounds[c]
	if !ok {
		return false
	}
	delete(a.rounds, c)
	return !b.empty()
}

// Pending reports whether the actor holds undelivered inputs for c.
func (a *Actor) Pending(c value.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.rounds[c]
	return ok && !b.empty()
}

// BranchDepth returns the current depth of the branch id stack for c.
func (a *Actor) BranchDepth(c value.Context) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.rounds[c]; ok {
		return len(b.branches)
	}
	return 0
}

// Input is what one firing consumes.
type Input struct {
	// Args holds one value per formal parameter, locals included.
	Args []value.Value
	// BranchID is the popped return address, or NoCaller.
	BranchID value.BranchID
	// Call is the call an Entrance fires for, if any.
	Call *value.Call
}

// CheckRunningCondition reports whether the actor can fire for c. It never
// mutates state, and it is false for every actor once rc has failed.
func (a *Actor) CheckRunningCondition(c value.Context, rc *runctx.RunContext) bool {
	if rc != nil && rc.Failed() {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready(c)
}

// Starved reports whether the actor is an exit holding a complete result for c
// with no return address to send it to.
func (a *Actor) Starved(c value.Context) bool {
	if a.spec.Role != graph.RoleExit || !a.consumes {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.rounds[c]
	return ok && a.slotsReady(b) && len(b.branches) == 0
}

// ready is CheckRunningCondition without the failure check. The caller holds a.mu.
func (a *Actor) ready(c value.Context) bool {
	b, ok := a.rounds[c]
	if !ok {
		return false
	}
	switch a.spec.Role {
	case graph.RoleEntrance:
		return len(b.calls) > 0 || a.slotsReady(b)
	case graph.RoleExit:
		return a.slotsReady(b) && (!a.consumes || len(b.branches) > 0)
	default:
		return a.slotsReady(b)
	}
}

// slotsReady reports whether every formal parameter is filled for the round.
// Actors whose every parameter is local only become ready through calls.
func (a *Actor) slotsReady(b *buffers) bool {
	if a.nonLocal == 0 {
		return false
	}
	for slot := 0; slot < a.spec.Inputs; slot++ {
		if a.spec.IsLocal(slot) {
			continue
		}
		if len(b.data[slot]) == 0 && len(b.partials[slot]) == 0 {
			return false
		}
	}
	return true
}

// FetchInput assembles the input of the next round for c without consuming
// it. The caller holds a.mu and has checked readiness.
func (a *Actor) FetchInput(c value.Context) Input {
	b := a.rounds[c]
	in := Input{BranchID: value.NoCaller}

	if a.spec.Role == graph.RoleEntrance && len(b.calls) > 0 {
		call := b.calls[len(b.calls)-1]
		in.Call = &call
		in.Args = call.Args
		return in
	}

	in.Args = make([]value.Value, a.spec.Inputs)
	for slot := range in.Args {
		if local, ok := a.spec.Locals[slot]; ok {
			in.Args[slot] = local
			continue
		}
		if ps := b.partials[slot]; len(ps) > 0 {
			in.Args[slot] = ps[len(ps)-1]
			continue
		}
		ds := b.data[slot]
		in.Args[slot] = ds[len(ds)-1]
	}
	if a.spec.Role == graph.RoleExit && a.consumes {
		in.BranchID = b.branches[len(b.branches)-1]
	}
	return in
}

// EraseInput removes what FetchInput returned for c, dropping the context's
// buffers entirely once they are empty. The caller holds a.mu.
func (a *Actor) EraseInput(c value.Context) {
	b := a.rounds[c]

	if a.spec.Role == graph.RoleEntrance && len(b.calls) > 0 {
		b.calls = b.calls[:len(b.calls)-1]
	} else {
		for slot := 0; slot < a.spec.Inputs; slot++ {
			if a.spec.IsLocal(slot) {
				continue
			}
			if n := len(b.partials[slot]); n > 0 {
				b.partials[slot] = b.partials[slot][:n-1]
				continue
			}
			b.data[slot] = b.data[slot][:len(b.data[slot])-1]
		}
		if a.spec.Role == graph.RoleExit && a.consumes {
			b.branches = b.branches[:len(b.branches)-1]
		}
	}

	if b.empty() {
		delete(a.rounds, c)
	}
}

// Take atomically checks readiness for c and, if ready, fetches and erases
// one round of input. ok is false when the actor cannot fire.
func (a *Actor) Take(c value.Context, rc *runctx.RunContext) (in Input, ok bool) {
	if rc != nil && rc.Failed() {
		return Input{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ready(c) {
		return Input{}, false
	}
	in = a.FetchInput(c)
	a.EraseInput(c)
	return in, true
}

// Drain drops one round's worth of readiness for c after the run failed, so
// that nothing fires. It reports whether anything was dropped.
func (a *Actor) Drain(c value.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ready(c) {
		return false
	}
	a.EraseInput(c)
	return true
}
