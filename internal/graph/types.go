package graph

import (
	"fmt"

	"github.com/specialistvlad/flowactor/internal/value"
)

// ActorID is the arena index of an actor.
type ActorID int

// Role is the closed set of actor behaviors.
type Role int

const (
	// RoleEntrance is the formal-parameter boundary of a sub-graph.
	RoleEntrance Role = iota
	// RoleExit is the return boundary of a sub-graph.
	RoleExit
	// RoleSwitch forwards its inputs to exactly one branch.
	RoleSwitch
	// RoleGather applies arguments to a partial at a call site.
	RoleGather
	// RoleKernel hands its inputs to the kernel-execution layer.
	RoleKernel
)

func (r Role) String() string {
	switch r {
	case RoleEntrance:
		return "entrance"
	case RoleExit:
		return "exit"
	case RoleSwitch:
		return "switch"
	case RoleGather:
		return "gather"
	case RoleKernel:
		return "kernel"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole is the inverse of Role.String.
func ParseRole(s string) (Role, error) {
	for r := RoleEntrance; r <= RoleKernel; r++ {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown actor role %q", s)
}

// ArrowKind selects which buffer of the consumer an arrow delivers into.
type ArrowKind int

const (
	DataArrow ArrowKind = iota
	PartialArrow
	BranchIDArrow
)

func (k ArrowKind) String() string {
	switch k {
	case DataArrow:
		return "data"
	case PartialArrow:
		return "partial"
	case BranchIDArrow:
		return "branch_id"
	default:
		return fmt.Sprintf("arrow(%d)", int(k))
	}
}

// ParseArrowKind is the inverse of ArrowKind.String.
func ParseArrowKind(s string) (ArrowKind, error) {
	for k := DataArrow; k <= BranchIDArrow; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown arrow kind %q", s)
}

// Actor is the static description of one actor.
type Actor struct {
	ID   ActorID
	Name string
	Role Role

	// Inputs is the formal parameter count. For a Switch, slot 0 is the
	// condition; for a Gather, slot 0 is the partial being applied.
	Inputs int
	// Outputs is the output slot count (per branch, for a Switch).
	Outputs int
	// Branches is the number of Switch branches.
	Branches int

	// SubGraph is the sub-graph an Entrance or Exit bounds.
	SubGraph value.SubGraphRef
	// BranchID is the call-site id a Gather attaches to the calls it makes.
	BranchID value.BranchID
	// Kernel names the operator a Kernel actor launches.
	Kernel string

	// Locals are statically bound input values by slot. A local satisfies its
	// slot on every firing and is never erased.
	Locals map[int]value.Value
}

// IsLocal reports whether slot is statically bound.
func (a *Actor) IsLocal(slot int) bool {
	_, ok := a.Locals[slot]
	return ok
}

// Arrow is a static directed edge `(From, FromSlot) → (To, ToSlot)`.
//
// Branch selects the set of arrows a producer fires on: the branch index for a
// Switch, the return branch id for an Exit. It is zero for every other producer.
// Branch-id arrows carry no slots.
type Arrow struct {
	Kind     ArrowKind
	From     ActorID
	FromSlot int
	To       ActorID
	ToSlot   int
	Branch   int
}

// SubGraph is a callable region bounded by an Entrance and an Exit.
type SubGraph struct {
	Name     value.SubGraphRef
	Entrance ActorID
	Exit     ActorID
	Arity    int
}
