// Package graphfile loads control-flow graphs from HCL files.
//
// A graph is written as a set of sub-graphs. Each sub-graph declares its
// actors and the arrows between them:
//
//	format_version = "1.0"
//	root           = "main"
//
//	subgraph "main" {
//	  actor "entrance" "in" { arity = 1 }
//	  actor "gather" "call" {
//	    callee = "fact"
//	    site   = 2
//	  }
//	  actor "exit" "out" { arity = 1 }
//
//	  arrow "data" {
//	    from = "in[0]"
//	    to   = "call[1]"
//	  }
//	  arrow "data" {
//	    from   = "fact.out[0]"
//	    to     = "out[0]"
//	    branch = 2
//	  }
//	}
//
// Actor names are local to their sub-graph and become "<subgraph>.<name>" in
// the loaded graph. Arrow endpoints are written as "name[slot]"; a dotted
// name refers to an actor of another sub-graph, and a missing slot means 0.
//
// The actor roles and the attributes they take are:
//
//   - entrance: arity, the number of formal parameters.
//   - exit: arity, the number of results.
//   - switch: inputs (default 1) values forwarded behind the condition at
//     slot 0, and branches (default 2).
//   - gather: inputs (default 1) arguments behind the partial at slot 0,
//     site (the call-site branch id), and optionally callee and bind, which
//     fix slot 0 to a partial of callee binding the listed values.
//   - kernel: kernel, inputs, outputs (default 1) and locals, a map from
//     input slot to a constant.
//
// Arrow kinds are "data", "partial" and "branch_id". A branch_id arrow pairs
// a sub-graph's entrance with its exit so the exit can return to its caller.
// The branch attribute selects the switch branch or exit return id an arrow
// is taken on.
//
// Files declaring a format_version must be compatible with SupportedFormats.
// Several files may contribute sub-graphs to one graph; root must be set in
// exactly one of them, or a sub-graph called "main" must exist.
package graphfile
