package graph

import (
	"fmt"

	"github.com/specialistvlad/flowactor/internal/value"
)

type routeKey struct {
	from   ActorID
	branch int
	slot   int
}

type branchKey struct {
	from   ActorID
	branch int
}

type slotKey struct {
	actor ActorID
	slot  int
}

// Graph is a validated, immutable actor graph.
type Graph struct {
	actors    []*Actor
	byName    map[string]ActorID
	arrows    []Arrow
	subgraphs map[value.SubGraphRef]SubGraph
	root      value.SubGraphRef

	outgoing map[routeKey][]Arrow
	routed   map[branchKey]bool
	targets  map[ActorID][]ActorID
	consumes map[ActorID]bool
}

// Len returns the number of actors in the arena.
func (g *Graph) Len() int { return len(g.actors) }

// Actor returns the actor with the given ID.
func (g *Graph) Actor(id ActorID) *Actor { return g.actors[id] }

// Actors returns the arena in ID order.
func (g *Graph) Actors() []*Actor { return g.actors }

// Arrows returns every arrow in insertion order.
func (g *Graph) Arrows() []Arrow { return g.arrows }

// Lookup finds an actor by name.
func (g *Graph) Lookup(name string) (ActorID, bool) {
	id, ok := g.byName[name]
	return id, ok
}

// MustLookup is Lookup for names known to exist. It panics otherwise.
func (g *Graph) MustLookup(name string) ActorID {
	id, ok := g.byName[name]
	if !ok {
		panic(fmt.Sprintf("graph: no actor named %q", name))
	}
	return id
}

// SubGraph returns the named sub-graph.
func (g *Graph) SubGraph(name value.SubGraphRef) (SubGraph, bool) {
	sg, ok := g.subgraphs[name]
	return sg, ok
}

// SubGraphs returns the number of callable sub-graphs.
func (g *Graph) SubGraphs() int { return len(g.subgraphs) }

// Root returns the sub-graph Execute calls.
func (g *Graph) Root() SubGraph { return g.subgraphs[g.root] }

// Outgoing returns the data and partial arrows leaving slot of from when it
// fires on branch.
func (g *Graph) Outgoing(from ActorID, branch, slot int) []Arrow {
	return g.outgoing[routeKey{from: from, branch: branch, slot: slot}]
}

// HasRoute reports whether from has any arrow for branch.
func (g *Graph) HasRoute(from ActorID, branch int) bool {
	return g.routed[branchKey{from: from, branch: branch}]
}

// BranchTargets returns the exits an entrance hands its caller's branch id to.
func (g *Graph) BranchTargets(entrance ActorID) []ActorID {
	return g.targets[entrance]
}

// ConsumesBranchID reports whether id is the target of a branch-id arrow.
func (g *Graph) ConsumesBranchID(id ActorID) bool {
	return g.consumes[id]
}
