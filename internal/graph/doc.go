// Package graph holds the static, compiled actor graph: the arena of actor
// specifications, the flat arrow table, and the table of callable sub-graphs.
//
// # Why Graph Exists
//
// The compiler hands the engine a finished topology exactly once. Everything in
// this package describes that topology and nothing else: there is no execution
// state here. A *Graph is immutable after Build and therefore safe for concurrent
// use by any number of runs.
//
// # Arena and Handles
//
// Actors are addressed by ActorID, an index into the arena, and arrows are plain
// `(ActorID, slot) → (ActorID, slot)` records. Lookups the scheduler performs on
// every firing (outgoing arrows per slot, return routes per branch id, branch-id
// targets of an Entrance) are precomputed into maps at Build time.
//
// # Recursion and Cycles
//
// Cycles are legal only when they pass through an Exit: the Exit's return arrows
// are selected by the popped branch id, which is what routes a result back to
// the call site that asked for it. Build rejects any cycle made only of data and partial
// arrows that does not leave an Exit.
//
// # Building
//
// Builder collects actors and arrows, recording the first problems it sees, and
// reports them all from Build:
//
//	b := graph.NewBuilder()
//	in := b.Entrance("main.in", "main", 1)
//	out := b.Exit("main.out", "main", 1)
//	b.Data(in, 0, out, 0)
//	b.Root("main")
//	g, err := b.Build()
package graph
