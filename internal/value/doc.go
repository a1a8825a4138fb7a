// Package value defines the messages that travel along arrows between actors.
//
// # Why Value Exists
//
// Every arrow in a compiled graph carries exactly one of three kinds of message:
// ordinary data (an opaque tensor handle owned by the memory subsystem), a partial
// application (a callable sub-graph together with a prefix of its arguments), or a
// branch id (the return address of a sub-graph call). Value is the tagged union of
// those three, so buffers and routing code can treat every message uniformly while
// still knowing exactly what they hold.
//
// # Ownership
//
// The engine never allocates or frees the memory behind a TensorHandle. Handles are
// forwarded by reference: a value fanned out to three consumers is the same handle
// three times, never three copies of its payload.
//
// # Immutability
//
// Values are immutable once sent. Partial.Apply always returns a new Partial with a
// freshly allocated argument slice, so two call sites extending "the same" closure can
// never observe each other's arguments.
package value
