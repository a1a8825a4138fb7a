// Package engine executes a compiled actor graph.
//
// # Why Engine Exists
//
// The graph package describes a topology and the actor package implements what
// one actor does when it fires. The engine is what turns those into a run: it owns
// the actor arena for a graph, accepts calls through Execute, forwards every
// firing's outputs along the arrow table, decides which consumers became runnable
// and hands them to the scheduler, and turns the end state into a result or a
// typed failure.
//
// # Delivery Order
//
// All outputs of one firing are recorded into their consumers' buffers before any
// consumer is scheduled. An Entrance hands its caller's branch id to its exits
// before it relays the call's arguments. Together these guarantee that an exit
// never sees a result before the return address it belongs to, which is what lets
// the engine treat "result present, no branch id" as a StackUnderflow instead of
// "not yet arrived".
//
// # Failure
//
// The first failure wins and raises the run's abort flag. From then on every
// dequeued task drains its actor's ready inputs instead of firing, so the run
// reaches quiescence quickly without cancellation messages. Execute returns the
// failure; results already delivered are discarded.
//
// # Contexts
//
// An Engine can run many Executes concurrently against the same graph. Each run
// holds one context id from a bounded pool for its whole duration.
//
// Every call a Gather makes opens a fresh context one level below the caller's,
// so two calls of the same sub-graph never share buffers, whether they are
// nested (recursion) or siblings (fib(n-1) + fib(n-2)). The Entrance pushes the
// call site onto its exits' stacks in the new context; the Exit pops it and
// delivers its results back into the caller's context. A call deeper than the
// engine's max depth fails the run with DepthExceeded.
//
// When a run ends, every actor's leftover buffers in all of its contexts are
// purged before the initial id is reused.
package engine
