// Package endpoint parses the textual form of an arrow endpoint.
//
// # Why Endpoint Exists
//
// Graph files name the two ends of an arrow with a single string: a dotted actor
// path, optionally followed by the slot index in brackets.
//
//	fact.mul[1]   actor "fact.mul", slot 1
//	fact.entry    actor "fact.entry", no slot (used by branch-id arrows)
//
// Only the last segment of the path may carry an index; an index anywhere else is
// a syntax error, because actor names themselves are never indexed.
package endpoint
