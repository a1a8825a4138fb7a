// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle: load a
// graph file, validate it against the registered kernels, and execute it,
// decoupled from any specific entrypoint like a CLI or server.
package app
