package graph

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/flowactor/internal/fault"
	"github.com/specialistvlad/flowactor/internal/value"
)

// Builder assembles a Graph. It is not safe for concurrent use.
type Builder struct {
	actors    []*Actor
	byName    map[string]ActorID
	arrows    []Arrow
	subgraphs map[value.SubGraphRef]*SubGraph
	root      value.SubGraphRef
	errs      []error
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		byName:    make(map[string]ActorID),
		subgraphs: make(map[value.SubGraphRef]*SubGraph),
	}
}

func (b *Builder) fail(err error) {
	b.errs = append(b.errs, err)
}

// AddActor adds a to the arena and returns its ID. The ID field of a is ignored.
func (b *Builder) AddActor(a Actor) ActorID {
	if a.Name == "" {
		b.fail(errors.New("actor name cannot be empty"))
	} else if _, exists := b.byName[a.Name]; exists {
		b.fail(fmt.Errorf("actor %q defined more than once", a.Name))
	}

	id := ActorID(len(b.actors))
	a.ID = id
	locals := make(map[int]value.Value, len(a.Locals))
	for slot, v := range a.Locals {
		if slot < 0 || slot >= a.Inputs {
			b.fail(fmt.Errorf("actor %q: local value for slot %d outside its %d inputs", a.Name, slot, a.Inputs))
		}
		locals[slot] = v
	}
	a.Locals = locals
	b.actors = append(b.actors, &a)
	b.byName[a.Name] = id

	switch a.Role {
	case RoleEntrance:
		sg := b.subgraph(a.SubGraph)
		if sg.Entrance >= 0 {
			b.fail(fmt.Errorf("sub-graph %q has more than one entrance", a.SubGraph))
		}
		sg.Entrance = id
		sg.Arity = a.Inputs
	case RoleExit:
		sg := b.subgraph(a.SubGraph)
		if sg.Exit >= 0 {
			b.fail(fmt.Errorf("sub-graph %q has more than one exit", a.SubGraph))
		}
		sg.Exit = id
	}
	return id
}

func (b *Builder) subgraph(name value.SubGraphRef) *SubGraph {
	if name == "" {
		b.fail(errors.New("entrance and exit actors must name their sub-graph"))
	}
	sg, ok := b.subgraphs[name]
	if !ok {
		sg = &SubGraph{Name: name, Entrance: -1, Exit: -1}
		b.subgraphs[name] = sg
	}
	return sg
}

// Entrance adds the entrance of sub-graph sub, taking arity arguments.
func (b *Builder) Entrance(name string, sub value.SubGraphRef, arity int) ActorID {
	return b.AddActor(Actor{Name: name, Role: RoleEntrance, SubGraph: sub, Inputs: arity, Outputs: arity})
}

// Exit adds the exit of sub-graph sub, returning results values.
func (b *Builder) Exit(name string, sub value.SubGraphRef, results int) ActorID {
	return b.AddActor(Actor{Name: name, Role: RoleExit, SubGraph: sub, Inputs: results, Outputs: results})
}

// Switch adds a switch over branches branches forwarding values values. Its
// slot 0 is the condition and slots 1..values are forwarded to output slots
// 0..values-1 of the chosen branch.
func (b *Builder) Switch(name string, values, branches int) ActorID {
	return b.AddActor(Actor{Name: name, Role: RoleSwitch, Inputs: values + 1, Outputs: values, Branches: branches})
}

// Gather adds a call site applying args arguments to the partial at slot 0.
// When callee is non-nil it is bound locally to slot 0.
func (b *Builder) Gather(name string, args int, site value.BranchID, callee *value.Partial) ActorID {
	a := Actor{Name: name, Role: RoleGather, Inputs: args + 1, Outputs: 1, BranchID: site}
	if callee != nil {
		a.Locals = map[int]value.Value{0: value.OfPartial(callee)}
	}
	return b.AddActor(a)
}

// Kernel adds an actor launching the named kernel.
func (b *Builder) Kernel(name, kernel string, inputs, outputs int, locals map[int]value.Value) ActorID {
	return b.AddActor(Actor{Name: name, Role: RoleKernel, Kernel: kernel, Inputs: inputs, Outputs: outputs, Locals: locals})
}

// Connect adds an arbitrary arrow.
func (b *Builder) Connect(a Arrow) {
	b.arrows = append(b.arrows, a)
}

// Data adds a data arrow.
func (b *Builder) Data(from ActorID, fromSlot int, to ActorID, toSlot int) {
	b.Connect(Arrow{Kind: DataArrow, From: from, FromSlot: fromSlot, To: to, ToSlot: toSlot})
}

// DataOn adds a data arrow taken only when from fires on branch.
func (b *Builder) DataOn(branch int, from ActorID, fromSlot int, to ActorID, toSlot int) {
	b.Connect(Arrow{Kind: DataArrow, From: from, FromSlot: fromSlot, To: to, ToSlot: toSlot, Branch: branch})
}

// Partial adds a partial arrow.
func (b *Builder) Partial(from ActorID, fromSlot int, to ActorID, toSlot int) {
	b.Connect(Arrow{Kind: PartialArrow, From: from, FromSlot: fromSlot, To: to, ToSlot: toSlot})
}

// ReturnAddress adds the branch-id arrow pairing an Entrance with an Exit.
func (b *Builder) ReturnAddress(entrance, exit ActorID) {
	b.Connect(Arrow{Kind: BranchIDArrow, From: entrance, To: exit})
}

// Root marks the sub-graph Execute calls.
func (b *Builder) Root(name value.SubGraphRef) {
	b.root = name
}

// Lookup returns the ID of a previously added actor.
func (b *Builder) Lookup(name string) (ActorID, bool) {
	id, ok := b.byName[name]
	return id, ok
}

// Build validates the collected topology and freezes it into a Graph.
func (b *Builder) Build() (*Graph, error) {
	errs := append([]error(nil), b.errs...)

	g := &Graph{
		actors:    b.actors,
		byName:    b.byName,
		arrows:    b.arrows,
		subgraphs: make(map[value.SubGraphRef]SubGraph, len(b.subgraphs)),
		root:      b.root,
		outgoing:  make(map[routeKey][]Arrow),
		routed:    make(map[branchKey]bool),
		targets:   make(map[ActorID][]ActorID),
		consumes:  make(map[ActorID]bool),
	}

	fed := make(map[slotKey]bool)
	for _, arrow := range b.arrows {
		if err := b.checkArrow(arrow); err != nil {
			errs = append(errs, err)
			continue
		}
		if arrow.Kind == BranchIDArrow {
			g.targets[arrow.From] = append(g.targets[arrow.From], arrow.To)
			g.consumes[arrow.To] = true
			continue
		}
		key := routeKey{from: arrow.From, branch: arrow.Branch, slot: arrow.FromSlot}
		g.outgoing[key] = append(g.outgoing[key], arrow)
		g.routed[branchKey{from: arrow.From, branch: arrow.Branch}] = true
		fed[slotKey{actor: arrow.To, slot: arrow.ToSlot}] = true
	}

	for _, a := range b.actors {
		if err := checkActor(a, fed); err != nil {
			errs = append(errs, err)
		}
	}

	for name, sg := range b.subgraphs {
		switch {
		case sg.Entrance < 0:
			errs = append(errs, fmt.Errorf("sub-graph %q has no entrance", name))
		case sg.Exit < 0:
			errs = append(errs, fmt.Errorf("sub-graph %q has no exit", name))
		default:
			g.subgraphs[name] = *sg
		}
	}

	if rootSG, ok := g.subgraphs[b.root]; !ok {
		errs = append(errs, fmt.Errorf("root sub-graph %q is not defined", b.root))
	} else if g.consumes[rootSG.Exit] {
		errs = append(errs, fmt.Errorf("root exit %q cannot consume branch ids", b.actors[rootSG.Exit].Name))
	}

	for _, a := range b.actors {
		if a.Role != RoleGather {
			continue
		}
		if p, ok := a.Locals[0]; ok {
			partial, isPartial := p.Partial()
			if !isPartial {
				errs = append(errs, fmt.Errorf("gather %q: local slot 0 must be a partial", a.Name))
			} else if _, known := b.subgraphs[partial.Callee]; !known {
				errs = append(errs, fault.Newf(fault.MissingRoute, "gather %q calls undefined sub-graph %q", a.Name, partial.Callee))
			}
		}
	}

	if len(errs) == 0 {
		if err := g.DetectCycles(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

func (b *Builder) checkArrow(arrow Arrow) error {
	if !b.valid(arrow.From) || !b.valid(arrow.To) {
		return fault.Newf(fault.MissingRoute, "%s arrow %d -> %d references an unknown actor", arrow.Kind, arrow.From, arrow.To)
	}
	from, to := b.actors[arrow.From], b.actors[arrow.To]

	if arrow.Kind == BranchIDArrow {
		if from.Role != RoleEntrance || to.Role != RoleExit {
			return fmt.Errorf("branch_id arrow %s -> %s must run from an entrance to an exit", from.Name, to.Name)
		}
		return nil
	}

	if arrow.FromSlot < 0 || arrow.FromSlot >= from.Outputs {
		return fault.Newf(fault.MissingRoute, "arrow from %s[%d]: producer has %d output slots", from.Name, arrow.FromSlot, from.Outputs)
	}
	if arrow.ToSlot < 0 || arrow.ToSlot >= to.Inputs {
		return fault.Newf(fault.MissingRoute, "arrow to %s[%d]: consumer has %d input slots", to.Name, arrow.ToSlot, to.Inputs)
	}
	if to.IsLocal(arrow.ToSlot) {
		return fmt.Errorf("arrow to %s[%d]: slot is bound to a local value", to.Name, arrow.ToSlot)
	}

	switch from.Role {
	case RoleSwitch:
		if arrow.Branch < 0 || arrow.Branch >= from.Branches {
			return fault.Newf(fault.MissingRoute, "arrow from switch %s on branch %d: switch has %d branches", from.Name, arrow.Branch, from.Branches)
		}
	case RoleExit:
		if arrow.Branch < 0 {
			return fmt.Errorf("arrow from exit %s: negative branch id %d", from.Name, arrow.Branch)
		}
	default:
		if arrow.Branch != 0 {
			return fmt.Errorf("arrow from %s %s: only switches and exits route by branch", from.Role, from.Name)
		}
	}
	return nil
}

func (b *Builder) valid(id ActorID) bool {
	return id >= 0 && int(id) < len(b.actors)
}

func checkActor(a *Actor, fed map[slotKey]bool) error {
	if a.Inputs < 0 || a.Outputs < 0 {
		return fmt.Errorf("actor %q: negative slot count", a.Name)
	}

	switch a.Role {
	case RoleSwitch:
		if a.Inputs < 1 || a.Branches < 2 {
			return fmt.Errorf("switch %q needs a condition input and at least two branches", a.Name)
		}
	case RoleGather:
		if a.Inputs < 1 {
			return fmt.Errorf("gather %q needs a partial input", a.Name)
		}
		if a.BranchID == value.NoCaller {
			return fmt.Errorf("gather %q: call-site id %d is reserved", a.Name, value.NoCaller)
		}
	case RoleKernel:
		if a.Kernel == "" {
			return fmt.Errorf("kernel actor %q does not name a kernel", a.Name)
		}
	}

	// Entrances are fed by calls, everything else only by arrows and locals.
	if a.Role == RoleEntrance {
		return nil
	}
	if len(a.Locals) == a.Inputs {
		return fmt.Errorf("actor %q has no arrow-fed input and would never fire", a.Name)
	}
	for slot := 0; slot < a.Inputs; slot++ {
		if !a.IsLocal(slot) && !fed[slotKey{actor: a.ID, slot: slot}] {
			return fault.Newf(fault.MissingRoute, "actor %q: input slot %d is never fed", a.Name, slot)
		}
	}
	return nil
}
