// Package fault defines the error taxonomy of a graph run. Every error that
// aborts a run is a *Failure tagged with a Kind, so callers can branch on the
// kind with errors.Is and still reach the underlying cause with errors.Unwrap.
package fault

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/flowactor/internal/value"
)

// Kind classifies why a run failed.
type Kind int

const (
	// ArityMismatch: a partial was overfull, or formal parameters were never satisfied.
	ArityMismatch Kind = iota + 1
	// StackUnderflow: an Exit had a result but no pending branch id.
	StackUnderflow
	// MissingRoute: a value had nowhere registered to go.
	MissingRoute
	// UpstreamFailure: the run was aborted from elsewhere.
	UpstreamFailure
	// KernelFailure: the kernel-execution layer returned an error.
	KernelFailure
	// DepthExceeded: a fixed-capacity stack or buffer overflowed.
	DepthExceeded
)

// Sentinel errors, one per Kind. A *Failure matches its kind's sentinel under errors.Is.
var (
	ErrArityMismatch   = errors.New("arity mismatch")
	ErrStackUnderflow  = errors.New("branch id stack underflow")
	ErrMissingRoute    = errors.New("missing route")
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrKernelFailure   = errors.New("kernel failure")
	ErrDepthExceeded   = errors.New("depth exceeded")
)

var sentinels = map[Kind]error{
	ArityMismatch:   ErrArityMismatch,
	StackUnderflow:  ErrStackUnderflow,
	MissingRoute:    ErrMissingRoute,
	UpstreamFailure: ErrUpstreamFailure,
	KernelFailure:   ErrKernelFailure,
	DepthExceeded:   ErrDepthExceeded,
}

func (k Kind) String() string {
	switch k {
	case ArityMismatch:
		return "ArityMismatch"
	case StackUnderflow:
		return "StackUnderflow"
	case MissingRoute:
		return "MissingRoute"
	case UpstreamFailure:
		return "UpstreamFailure"
	case KernelFailure:
		return "KernelFailure"
	case DepthExceeded:
		return "DepthExceeded"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Fatal reports whether a failure of this kind originates a run abort, as
// opposed to merely propagating one.
func (k Kind) Fatal() bool {
	return k != UpstreamFailure
}

// Failure is a run-aborting error, tagged with where it originated.
type Failure struct {
	Kind Kind
	// Actor is the arena index of the originating actor, or -1 when the failure
	// did not originate in an actor.
	Actor     int
	ActorName string
	Context   value.Context
	Err       error
}

// New returns a Failure of kind k that did not originate in a specific actor.
func New(k Kind, err error) *Failure {
	return &Failure{Kind: k, Actor: -1, Err: err}
}

// Newf is New with a formatted cause.
func Newf(k Kind, format string, args ...any) *Failure {
	return New(k, fmt.Errorf(format, args...))
}

// At returns a copy of f attributed to the given actor and context.
func (f *Failure) At(actor int, name string, ctx value.Context) *Failure {
	c := *f
	c.Actor = actor
	c.ActorName = name
	c.Context = ctx
	return &c
}

func (f *Failure) Error() string {
	msg := f.Kind.String()
	if f.ActorName != "" {
		msg += fmt.Sprintf(" at actor %q (context %d)", f.ActorName, f.Context)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error { return f.Err }

// Is matches the sentinel of f's kind.
func (f *Failure) Is(target error) bool {
	return sentinels[f.Kind] == target
}

// KindOf extracts the Kind of the first *Failure in err's chain.
func KindOf(err error) (Kind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}
