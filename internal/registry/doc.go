// Package registry provides the central "glue" for the kernel system.
//
// The Registry maps the kernel names used by Kernel actors in a graph (e.g.,
// "arith.mul") to the compiled Go functions that implement them. Modules under
// modules/ populate it at startup through the Module interface.
//
// Before a graph is executed the registry is validated against it, so that a
// Kernel actor naming an unknown kernel, or wired with the wrong number of
// inputs or outputs, is rejected before anything fires.
package registry
