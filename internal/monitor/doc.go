// Package monitor contains engine observers that report firings and run
// completions outside the process.
//
// Logging writes them to the structured logger carried by the context.
// Publisher streams them as socket.io events ("actor_fired" and
// "run_finished") to a monitoring server, so a dashboard can follow
// recursion and branch selection live.
package monitor
