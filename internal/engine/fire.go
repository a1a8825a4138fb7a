package engine

import (
	"context"
	"errors"

	"github.com/specialistvlad/flowactor/internal/actor"
	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/fault"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/runctx"
	"github.com/specialistvlad/flowactor/internal/scheduler"
	"github.com/specialistvlad/flowactor/internal/value"
	"go.opentelemetry.io/otel/attribute"
)

// run is the state of one Execute.
type run struct {
	e     *Engine
	rc    *runctx.RunContext
	sched *scheduler.Scheduler
}

// fire is the scheduler's entry point: one firing attempt of t.Actor in t.Context.
func (r *run) fire(ctx context.Context, workerID int, t scheduler.Task) {
	a := r.e.arena[t.Actor]
	spec := a.Spec()
	logger := ctxlog.FromContext(ctx).With("workerID", workerID, "actor", spec.Name, "role", spec.Role.String())

	if r.rc.Failed() {
		if a.Drain(t.Context) {
			r.rc.Drained()
			logger.Warn("Skipping actor due to upstream failure.")
			r.e.observer.ActorFired(ctx, Event{
				RunID: r.rc.ID(), Actor: spec.ID, Name: spec.Name, Role: spec.Role,
				Context: t.Context, WorkerID: workerID, Drained: true,
			})
		}
		return
	}

	in, ok := a.Take(t.Context, r.rc)
	if !ok {
		return
	}

	ctx, span := getSpanContext(ctx, "Actor.Fire",
		attribute.String("actor", spec.Name),
		attribute.String("role", spec.Role.String()),
		attribute.Int64("context", int64(t.Context)),
	)
	defer span.End()

	r.rc.Fired()
	logger.Debug("Actor firing.")
	out, err := a.Run(ctx, in, r.e.env)
	if err != nil {
		recordFailure(span, err)
		r.fail(ctx, spec.ID, t.Context, err)
		return
	}

	r.e.observer.ActorFired(ctx, Event{
		RunID: r.rc.ID(), Actor: spec.ID, Name: spec.Name, Role: spec.Role,
		Context: t.Context, WorkerID: workerID, Branch: out.Branch, Call: out.Call, Result: out.Result,
	})

	touched, derr := r.sendOutput(a, t.Context, out)
	if derr != nil {
		recordFailure(span, derr.err)
		r.fail(ctx, derr.at, t.Context, derr.err)
		return
	}

	// The actor may hold further rounds for the same context.
	r.schedule(ctx, append(touched, t))
}

// deliveryError attributes a failed delivery to the consumer it was meant for.
type deliveryError struct {
	at  graph.ActorID
	err error
}

// sendOutput records out into every consumer it is routed to and returns
// those consumers with the context each now holds input in. Nothing is
// scheduled here, so that every consumer sees the whole firing before any of
// them runs.
func (r *run) sendOutput(a *actor.Actor, c value.Context, out actor.Output) ([]scheduler.Task, *deliveryError) {
	g := r.e.graph
	spec := a.Spec()
	var touched []scheduler.Task

	if out.ReturnAddress != value.NoCaller {
		for _, exit := range g.BranchTargets(spec.ID) {
			if err := r.e.arena[exit].RunBranchID(c, out.ReturnAddress); err != nil {
				return nil, &deliveryError{at: exit, err: err}
			}
			touched = append(touched, scheduler.Task{Actor: exit, Context: c})
		}
	}

	if out.Call != nil {
		sg, ok := g.SubGraph(out.Call.Callee)
		if !ok {
			return nil, &deliveryError{at: spec.ID, err: fault.Newf(fault.MissingRoute, "call of undefined sub-graph %q", out.Call.Callee)}
		}
		callee, err := r.enter(c)
		if err != nil {
			return nil, &deliveryError{at: spec.ID, err: err}
		}
		if err := r.e.arena[sg.Entrance].RunCall(callee, *out.Call); err != nil {
			return nil, &deliveryError{at: sg.Entrance, err: err}
		}
		touched = append(touched, scheduler.Task{Actor: sg.Entrance, Context: callee})
	}

	if out.Result {
		r.rc.Deliver(out.Values)
		return touched, nil
	}

	// An exit hands its values back to the context that made the call.
	dst := c
	if spec.Role == graph.RoleExit {
		if caller, ok := r.rc.Parent(c); ok {
			dst = caller
		}
	}

	for slot, v := range out.Values {
		for _, arrow := range g.Outgoing(spec.ID, out.Branch, slot) {
			consumer := r.e.arena[arrow.To]
			var err error
			switch arrow.Kind {
			case graph.PartialArrow:
				p, ok := v.Partial()
				if !ok {
					err = fault.Newf(fault.ArityMismatch, "partial arrow into slot %d carries %s", arrow.ToSlot, v.Kind())
					break
				}
				err = consumer.RunOpPartial(dst, arrow.ToSlot, p)
			default:
				err = consumer.RunOpData(dst, arrow.ToSlot, v)
			}
			if err != nil {
				return nil, &deliveryError{at: arrow.To, err: err}
			}
			touched = append(touched, scheduler.Task{Actor: arrow.To, Context: dst})
		}
	}
	return touched, nil
}

// enter opens the context a call made from c runs in. Every call gets its own
// context, so calls of one sub-graph from several sites never share buffers.
func (r *run) enter(c value.Context) (value.Context, error) {
	if depth := r.rc.Depth(c) + 1; depth > r.e.maxDepth {
		return value.NoContext, fault.Newf(fault.DepthExceeded, "call depth exceeds %d", r.e.maxDepth)
	}
	callee := value.Context(r.e.calls.Inc())
	r.rc.Spawn(c, callee)
	return callee, nil
}

// schedule enqueues every touched actor that became ready, and fails the run
// if a touched exit holds a result it can never return.
func (r *run) schedule(ctx context.Context, touched []scheduler.Task) {
	seen := make(map[scheduler.Task]bool, len(touched))
	for _, t := range touched {
		if seen[t] {
			continue
		}
		seen[t] = true

		a := r.e.arena[t.Actor]
		if a.CheckRunningCondition(t.Context, r.rc) {
			r.sched.Enqueue(t)
			continue
		}
		if a.Starved(t.Context) {
			r.fail(ctx, t.Actor, t.Context, fault.Newf(fault.StackUnderflow, "result arrived with no pending branch id"))
			return
		}
	}
}

// fail records err as the run's failure, attributed to actor id.
func (r *run) fail(ctx context.Context, id graph.ActorID, c value.Context, err error) {
	var f *fault.Failure
	if !errors.As(err, &f) {
		f = fault.New(fault.KernelFailure, err)
	}
	f = f.At(int(id), r.e.graph.Actor(id).Name, c)
	if r.rc.Fail(f) {
		ctxlog.FromContext(ctx).Error("Actor failed.", "actor", f.ActorName, "kind", f.Kind.String(), "error", f.Err)
	}
}
