// Package scheduler provides the ready queue and worker pool that drive a run.
//
// # Why Scheduler Exists
//
// The engine decides *what* becomes runnable (an actor whose inputs for a
// context just became complete); the scheduler decides *when and where* it runs.
// Separating the two keeps the queueing, the worker lifecycle and termination
// detection out of the control-flow semantics.
//
// # How It Works
//
//  1. The engine enqueues a Task for every (actor, context) that may have become ready.
//  2. A fixed pool of workers pops tasks and hands them to the engine's fire function.
//  3. A fire function may enqueue more tasks before it returns.
//  4. The run is quiescent when no task is queued and no fire function is running.
//     At that point every worker returns and Run returns.
//
// A task is only a hint: the fire function re-checks readiness under the actor's
// lock and silently drops tasks whose actor turned out not to be ready. Enqueueing
// the same (actor, context) twice is therefore harmless.
//
// # Thread-Safety
//
// Enqueue may be called from any goroutine, including from inside a fire function.
// The queue is unbounded, so a worker never blocks while enqueueing successors.
package scheduler
