package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/fault"
	"github.com/specialistvlad/flowactor/internal/runctx"
	"github.com/specialistvlad/flowactor/internal/scheduler"
	"github.com/specialistvlad/flowactor/internal/value"
	"go.opentelemetry.io/otel/attribute"
)

// Result is what a successful run produces.
type Result struct {
	RunID   uuid.UUID
	Context value.Context
	// Outputs are the values delivered to the root exit.
	Outputs []value.Value
	Firings int64
}

type runOptions struct {
	context value.Context
}

// RunOption configures one Execute call.
type RunOption func(*runOptions)

// InContext pins the run to an explicit initial context instead of taking
// the next free one from the pool.
func InContext(c value.Context) RunOption {
	return func(o *runOptions) { o.context = c }
}

// InUse returns the number of contexts held by in-flight runs.
func (e *Engine) InUse() int { return e.pool.inUse() }

// Execute calls the root sub-graph with args and runs the graph to
// quiescence. It returns the root exit's outputs, or a *fault.Failure naming
// the actor and context the failure originated in.
func (e *Engine) Execute(ctx context.Context, args []value.Value, opts ...RunOption) (*Result, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	if err := ctx.Err(); err != nil {
		return nil, fault.New(fault.UpstreamFailure, err)
	}

	c := ro.context
	if c == value.NoContext {
		acquired, err := e.pool.acquire(ctx)
		if err != nil {
			return nil, fault.New(fault.UpstreamFailure, fmt.Errorf("waiting for a free context: %w", err))
		}
		c = acquired
	} else if err := e.pool.claim(c); err != nil {
		return nil, err
	}
	rc := runctx.New(c)
	defer e.release(rc)

	ctx = ctxlog.With(ctx, "run_id", rc.ID().String(), "context", uint64(c))
	ctx, span := getSpanContext(ctx, "Engine.Execute",
		attribute.String("run_id", rc.ID().String()),
		attribute.Int64("context", int64(c)),
		attribute.Int("args", len(args)),
	)
	defer span.End()

	start := time.Now()
	res, err := e.run(ctx, rc, args)
	if err != nil {
		recordFailure(span, err)
	}
	e.observer.RunFinished(ctx, Summary{
		RunID:    rc.ID(),
		Context:  c,
		Firings:  rc.Firings(),
		Drained:  rc.DrainedCount(),
		Duration: time.Since(start),
		Err:      err,
	})
	return res, err
}

func (e *Engine) run(ctx context.Context, rc *runctx.RunContext, args []value.Value) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	c := rc.Context()
	root := e.graph.Root()
	entrance := e.arena[root.Entrance]

	if len(args) != root.Arity {
		f := fault.Newf(fault.ArityMismatch, "root sub-graph %q takes %d arguments, got %d", root.Name, root.Arity, len(args))
		return nil, f.At(int(root.Entrance), entrance.Spec().Name, c)
	}

	r := &run{
		e:     e,
		rc:    rc,
		sched: scheduler.New(),
	}
	call := value.Call{Callee: root.Name, Args: args, BranchID: value.NoCaller}
	if err := entrance.RunCall(c, call); err != nil {
		r.fail(ctx, root.Entrance, c, err)
		return nil, rc.Failure()
	}
	r.sched.Enqueue(scheduler.Task{Actor: root.Entrance, Context: c})

	stop := context.AfterFunc(ctx, func() {
		f := fault.New(fault.UpstreamFailure, context.Cause(ctx))
		f.Context = c
		if rc.Fail(f) {
			logger.Warn("Run aborted by caller.", "error", context.Cause(ctx))
		}
	})
	logger.Debug("Run starting.", "root", string(root.Name), "actors", e.graph.Len())
	err := r.sched.Run(ctx, e.workers, r.fire)
	stop()
	if err != nil {
		rc.Fail(fault.New(fault.UpstreamFailure, err))
	}

	if f := rc.Failure(); f != nil {
		logger.Debug("Run failed.", "kind", f.Kind.String(), "firings", rc.Firings(), "drained", rc.DrainedCount())
		return nil, f
	}

	outputs, ok := rc.Outputs()
	if !ok {
		f := e.unsatisfied(rc)
		rc.Fail(f)
		logger.Error("Run reached quiescence without a result.", "error", f)
		return nil, f
	}

	logger.Debug("Run finished.", "firings", rc.Firings(), "outputs", len(outputs))
	return &Result{RunID: rc.ID(), Context: c, Outputs: outputs, Firings: rc.Firings()}, nil
}

// unsatisfied builds the failure of a run that went quiet without a result,
// naming the first actor still holding a partial round. Outer calls are
// searched before the calls they made.
func (e *Engine) unsatisfied(rc *runctx.RunContext) *fault.Failure {
	f := fault.Newf(fault.ArityMismatch, "formal parameters never satisfied")
	for _, c := range rc.Contexts() {
		for _, a := range e.arena {
			if a.Pending(c) {
				spec := a.Spec()
				return f.At(int(spec.ID), spec.Name, c)
			}
		}
	}
	exit := e.graph.Root().Exit
	return f.At(int(exit), e.graph.Actor(exit).Name, rc.Context())
}

// release purges every buffer left in the run's contexts and returns its
// initial context to the pool.
func (e *Engine) release(rc *runctx.RunContext) {
	for _, c := range rc.Contexts() {
		for _, a := range e.arena {
			a.Release(c)
		}
	}
	e.pool.release(rc.Context())
}
