package graphfile

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level items of a file.
type fileRoot struct {
	FormatVersion *string          `hcl:"format_version,optional"`
	Root          *string          `hcl:"root,optional"`
	SubGraphs     []*subGraphBlock `hcl:"subgraph,block"`
}

type subGraphBlock struct {
	Name   string        `hcl:"name,label"`
	Actors []*actorBlock `hcl:"actor,block"`
	Arrows []*arrowBlock `hcl:"arrow,block"`
}

type actorBlock struct {
	Role     string         `hcl:"role,label"`
	Name     string         `hcl:"name,label"`
	Arity    *int           `hcl:"arity,optional"`
	Inputs   *int           `hcl:"inputs,optional"`
	Outputs  *int           `hcl:"outputs,optional"`
	Branches *int           `hcl:"branches,optional"`
	Kernel   *string        `hcl:"kernel,optional"`
	Site     *int           `hcl:"site,optional"`
	Callee   *string        `hcl:"callee,optional"`
	Bind     hcl.Expression `hcl:"bind,optional"`
	Locals   hcl.Expression `hcl:"locals,optional"`
}

type arrowBlock struct {
	Kind   string `hcl:"kind,label"`
	From   string `hcl:"from"`
	To     string `hcl:"to"`
	Branch *int   `hcl:"branch,optional"`
}
