package actor

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flowactor/internal/fault"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/value"
)

// Env carries the capabilities a firing may need.
type Env struct {
	Launcher Launcher
	Reader   Reader
}

// Output is what one firing produces. The engine forwards it.
type Output struct {
	// Values holds one value per output slot.
	Values []value.Value
	// Branch selects the arrows Values travel on (switch branch, exit return id).
	Branch int
	// ReturnAddress is the caller's branch id an Entrance hands to its exits.
	ReturnAddress value.BranchID
	// Call is a fully applied invocation made by a Gather.
	Call *value.Call
	// Result marks Values as the final outputs of the run.
	Result bool
}

// Run performs the role's state transition on a fetched input. Errors are
// *fault.Failure values not yet attributed to the actor.
func (a *Actor) Run(ctx context.Context, in Input, env Env) (Output, error) {
	switch a.spec.Role {
	case graph.RoleEntrance:
		return a.runEntrance(in)
	case graph.RoleExit:
		return a.runExit(in)
	case graph.RoleSwitch:
		return a.runSwitch(in, env.Reader)
	case graph.RoleGather:
		return a.runGather(in)
	case graph.RoleKernel:
		return a.runKernel(ctx, in, env.Launcher)
	default:
		return Output{}, fault.Newf(fault.MissingRoute, "actor %q has unknown role %s", a.spec.Name, a.spec.Role)
	}
}

func (a *Actor) runEntrance(in Input) (Output, error) {
	if in.Call == nil {
		return Output{Values: in.Args}, nil
	}
	if len(in.Call.Args) != a.spec.Inputs {
		return Output{}, fault.Newf(fault.ArityMismatch, "call of %q with %d arguments, want %d", a.spec.SubGraph, len(in.Call.Args), a.spec.Inputs)
	}
	return Output{Values: in.Call.Args, ReturnAddress: in.Call.BranchID}, nil
}

func (a *Actor) runExit(in Input) (Output, error) {
	if a.isRoot {
		return Output{Values: in.Args, Result: true}, nil
	}
	branch := int(in.BranchID)
	if !a.g.HasRoute(a.spec.ID, branch) {
		return Output{}, fault.Newf(fault.MissingRoute, "no return route registered for branch id %d", branch)
	}
	return Output{Values: in.Args, Branch: branch}, nil
}

func (a *Actor) runSwitch(in Input, reader Reader) (Output, error) {
	h, ok := in.Args[0].Handle()
	if !ok {
		return Output{}, fault.Newf(fault.ArityMismatch, "switch condition is a %s, not data", in.Args[0].Kind())
	}
	if reader == nil {
		return Output{}, fault.Newf(fault.KernelFailure, "no condition reader configured")
	}
	branch, err := reader.ReadCondition(h)
	if err != nil {
		return Output{}, fault.New(fault.KernelFailure, fmt.Errorf("reading switch condition: %w", err))
	}
	if branch < 0 || branch >= a.spec.Branches {
		return Output{}, fault.Newf(fault.MissingRoute, "condition selects branch %d of %d", branch, a.spec.Branches)
	}
	return Output{Values: in.Args[1:], Branch: branch}, nil
}

func (a *Actor) runGather(in Input) (Output, error) {
	p, ok := in.Args[0].Partial()
	if !ok {
		return Output{}, fault.Newf(fault.ArityMismatch, "gather slot 0 holds %s, not a partial", in.Args[0].Kind())
	}
	sg, ok := a.g.SubGraph(p.Callee)
	if !ok {
		return Output{}, fault.Newf(fault.MissingRoute, "partial calls undefined sub-graph %q", p.Callee)
	}

	extra := in.Args[1:]
	if len(extra) > 0 && p.Bound() >= sg.Arity {
		return Output{}, fault.Newf(fault.ArityMismatch, "partial of %q already binds %d of %d arguments", p.Callee, p.Bound(), sg.Arity)
	}
	applied := p.Apply(extra...)
	switch {
	case applied.Bound() > sg.Arity:
		return Output{}, fault.Newf(fault.ArityMismatch, "applying %d arguments to %s overflows arity %d", len(extra), p, sg.Arity)
	case applied.FullyApplied(sg.Arity):
		return Output{Call: &value.Call{Callee: p.Callee, Args: applied.Args, BranchID: a.spec.BranchID}}, nil
	default:
		return Output{Values: []value.Value{value.OfPartial(applied)}}, nil
	}
}

func (a *Actor) runKernel(ctx context.Context, in Input, launcher Launcher) (Output, error) {
	if launcher == nil {
		return Output{}, fault.Newf(fault.KernelFailure, "no kernel launcher configured")
	}
	handles := make([]value.TensorHandle, len(in.Args))
	for i, arg := range in.Args {
		h, ok := arg.Handle()
		if !ok {
			return Output{}, fault.Newf(fault.KernelFailure, "kernel %q input %d is a %s, not data", a.spec.Kernel, i, arg.Kind())
		}
		handles[i] = h
	}

	outs, err := launcher.Launch(ctx, a.spec.Kernel, handles)
	if err != nil {
		return Output{}, fault.New(fault.KernelFailure, fmt.Errorf("kernel %q: %w", a.spec.Kernel, err))
	}
	if len(outs) != a.spec.Outputs {
		return Output{}, fault.Newf(fault.KernelFailure, "kernel %q returned %d outputs, want %d", a.spec.Kernel, len(outs), a.spec.Outputs)
	}

	values := make([]value.Value, len(outs))
	for i, h := range outs {
		values[i] = value.Data(h)
	}
	return Output{Values: values}, nil
}
