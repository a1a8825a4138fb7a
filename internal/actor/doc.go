// Package actor implements the runtime side of a graph actor: the context-keyed
// input buffers, the readiness test, and the per-role state transition.
//
// # Channels
//
// Every actor has three independent input channels, each keyed by context:
//
//   - data: one LIFO buffer per input slot, fed by data arrows (RunOpData)
//   - partials: one LIFO buffer per input slot, fed by partial arrows (RunOpPartial)
//   - branch ids: one bounded stack, fed by branch-id arrows (RunBranchID)
//
// Entrances additionally buffer whole calls (RunCall) made by Gathers.
//
// # Rounds
//
// Per (actor, context) the actor moves WAITING → READY → FIRED. Take performs the
// READY check, the fetch and the erase atomically under the actor's lock, so two
// workers can never fire the same round. If the buffers still hold inputs for the
// context afterwards, the actor is back in WAITING for a fresh round. Buffers are
// LIFO, the same order in which branch ids are popped.
//
// # Firing
//
// Run never touches the buffers: it computes an Output from the fetched Input and
// the injected capabilities (Launcher, Reader), outside the lock. Forwarding the
// Output along arrows is the engine's job.
package actor
