package value

import (
	"fmt"
	"strings"
)

// Context identifies one logical invocation episode: a run, or one call of a
// sub-graph within it. Inputs for different contexts are never mixed inside
// an actor.
type Context uint64

// NoContext is the zero Context. It is never handed out by a context pool.
const NoContext Context = 0

// TensorHandle is an opaque, non-owned reference to device or host memory.
type TensorHandle interface{}

// BranchID identifies the call site that invoked a sub-graph.
type BranchID int

// NoCaller is the sentinel BranchID meaning no caller expects a return. It is
// never pushed onto a return stack.
const NoCaller BranchID = 0

// SubGraphRef names a callable sub-graph of the compiled graph.
type SubGraphRef string

// Kind discriminates the Value union.
type Kind int

const (
	// KindData is an ordinary tensor handle.
	KindData Kind = iota
	// KindPartial is a partial application.
	KindPartial
	// KindBranchID is a return-address token.
	KindBranchID
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindPartial:
		return "partial"
	case KindBranchID:
		return "branch_id"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the tagged union of everything an arrow can carry.
type Value struct {
	kind    Kind
	data    TensorHandle
	partial *Partial
	branch  BranchID
}

// Data wraps a tensor handle.
func Data(h TensorHandle) Value {
	return Value{kind: KindData, data: h}
}

// OfPartial wraps a partial application.
func OfPartial(p *Partial) Value {
	return Value{kind: KindPartial, partial: p}
}

// Branch wraps a branch id.
func Branch(id BranchID) Value {
	return Value{kind: KindBranchID, branch: id}
}

// Kind reports which member of the union v holds.
func (v Value) Kind() Kind { return v.kind }

// Handle returns the tensor handle of a data value.
func (v Value) Handle() (TensorHandle, bool) {
	return v.data, v.kind == KindData
}

// Partial returns the partial application of a partial value.
func (v Value) Partial() (*Partial, bool) {
	return v.partial, v.kind == KindPartial && v.partial != nil
}

// BranchID returns the id of a branch-id value.
func (v Value) BranchID() (BranchID, bool) {
	return v.branch, v.kind == KindBranchID
}

func (v Value) String() string {
	switch v.kind {
	case KindData:
		return fmt.Sprintf("%v", v.data)
	case KindPartial:
		return v.partial.String()
	case KindBranchID:
		return fmt.Sprintf("branch(%d)", v.branch)
	default:
		return "<invalid>"
	}
}

// Partial is a closure: a callable sub-graph and a prefix of its arguments.
type Partial struct {
	Callee SubGraphRef
	Args   []Value
}

// NewPartial returns a partial of callee with the given bound arguments. The
// argument slice is copied.
func NewPartial(callee SubGraphRef, args ...Value) *Partial {
	bound := make([]Value, len(args))
	copy(bound, args)
	return &Partial{Callee: callee, Args: bound}
}

// Bound reports how many arguments are already bound.
func (p *Partial) Bound() int { return len(p.Args) }

// FullyApplied reports whether p binds exactly arity arguments.
func (p *Partial) FullyApplied(arity int) bool { return len(p.Args) == arity }

// Apply returns a new Partial binding args after the ones p already binds. p
// itself is left untouched.
func (p *Partial) Apply(args ...Value) *Partial {
	bound := make([]Value, 0, len(p.Args)+len(args))
	bound = append(bound, p.Args...)
	bound = append(bound, args...)
	return &Partial{Callee: p.Callee, Args: bound}
}

func (p *Partial) String() string {
	if p == nil {
		return "partial(<nil>)"
	}
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("partial(%s; %s)", p.Callee, strings.Join(parts, ", "))
}

// Call is a fully applied invocation of a sub-graph, tagged with the call site
// that expects its result.
type Call struct {
	Callee   SubGraphRef
	Args     []Value
	BranchID BranchID
}
