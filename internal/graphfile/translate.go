package graphfile

import (
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/pkg/errors"
	"github.com/specialistvlad/flowactor/internal/endpoint"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/hostmem"
	"github.com/specialistvlad/flowactor/internal/value"
)

// translator turns decoded blocks into a graph. Arrows are resolved only
// after every file has contributed its actors.
type translator struct {
	b         *graph.Builder
	subgraphs map[string]bool
	arrows    []pendingArrow
}

type pendingArrow struct {
	subgraph string
	block    *arrowBlock
}

func newTranslator() *translator {
	return &translator{b: graph.NewBuilder(), subgraphs: make(map[string]bool)}
}

func (t *translator) addSubGraph(sg *subGraphBlock) error {
	if t.subgraphs[sg.Name] {
		return errors.Errorf("subgraph %q is declared twice", sg.Name)
	}
	if strings.Contains(sg.Name, ".") || sg.Name == "" {
		return errors.Errorf("invalid subgraph name %q", sg.Name)
	}
	t.subgraphs[sg.Name] = true

	for _, a := range sg.Actors {
		if err := t.addActor(sg.Name, a); err != nil {
			return errors.Wrapf(err, "subgraph %q: actor %q", sg.Name, a.Name)
		}
	}
	for _, a := range sg.Arrows {
		t.arrows = append(t.arrows, pendingArrow{subgraph: sg.Name, block: a})
	}
	return nil
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func (t *translator) addActor(sub string, a *actorBlock) error {
	if _, err := endpoint.Parse(a.Name); err != nil || strings.ContainsAny(a.Name, ".[") {
		return errors.Errorf("invalid actor name")
	}
	role, err := graph.ParseRole(a.Role)
	if err != nil {
		return err
	}
	name := sub + "." + a.Name
	ref := value.SubGraphRef(sub)

	if _, dup := t.b.Lookup(name); dup {
		return errors.New("declared twice")
	}

	switch role {
	case graph.RoleEntrance:
		if a.Arity == nil {
			return errors.New("entrance requires arity")
		}
		t.b.Entrance(name, ref, *a.Arity)
	case graph.RoleExit:
		if a.Arity == nil {
			return errors.New("exit requires arity")
		}
		t.b.Exit(name, ref, *a.Arity)
	case graph.RoleSwitch:
		t.b.Switch(name, intOr(a.Inputs, 1), intOr(a.Branches, 2))
	case graph.RoleGather:
		if a.Site == nil {
			return errors.New("gather requires site")
		}
		callee, err := partialOf(a)
		if err != nil {
			return err
		}
		t.b.Gather(name, intOr(a.Inputs, 1), value.BranchID(*a.Site), callee)
	case graph.RoleKernel:
		if a.Kernel == nil || *a.Kernel == "" {
			return errors.New("kernel actor requires kernel")
		}
		if a.Inputs == nil {
			return errors.New("kernel actor requires inputs")
		}
		locals, err := localsOf(a.Locals)
		if err != nil {
			return err
		}
		t.b.Kernel(name, *a.Kernel, *a.Inputs, intOr(a.Outputs, 1), locals)
	}
	return nil
}

func partialOf(a *actorBlock) (*value.Partial, error) {
	bound, err := valuesOf(a.Bind)
	if err != nil {
		return nil, errors.Wrap(err, "bind")
	}
	if a.Callee == nil {
		if len(bound) > 0 {
			return nil, errors.New("bind requires callee")
		}
		return nil, nil
	}
	return value.NewPartial(value.SubGraphRef(*a.Callee), bound...), nil
}

// valuesOf evaluates an optional list of constants.
func valuesOf(expr hcl.Expression) ([]value.Value, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if v.IsNull() {
		return nil, nil
	}
	if !v.CanIterateElements() || v.Type().IsMapType() || v.Type().IsObjectType() {
		return nil, errors.Errorf("expected a list, got %s", v.Type().FriendlyName())
	}
	var out []value.Value
	for it := v.ElementIterator(); it.Next(); {
		_, el := it.Element()
		out = append(out, value.Data(hostmem.New(el)))
	}
	return out, nil
}

// localsOf evaluates an optional slot-to-constant map.
func localsOf(expr hcl.Expression) (map[int]value.Value, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if v.IsNull() {
		return nil, nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, errors.Errorf("locals: expected a map of slot to value, got %s", v.Type().FriendlyName())
	}
	locals := make(map[int]value.Value)
	for it := v.ElementIterator(); it.Next(); {
		k, el := it.Element()
		slot, err := strconv.Atoi(k.AsString())
		if err != nil || slot < 0 {
			return nil, errors.Errorf("locals: key %q is not a slot index", k.AsString())
		}
		locals[slot] = value.Data(hostmem.New(el))
	}
	return locals, nil
}

func (t *translator) resolve(sub, raw string, kind graph.ArrowKind) (graph.ActorID, int, error) {
	ep, err := endpoint.Parse(raw)
	if err != nil {
		return 0, 0, err
	}
	name := ep.Actor
	if !strings.Contains(name, ".") {
		name = sub + "." + name
	}
	id, ok := t.b.Lookup(name)
	if !ok {
		return 0, 0, errors.Errorf("unknown actor %q", name)
	}
	slot := ep.Slot
	if !ep.HasSlot() {
		slot = 0
	} else if kind == graph.BranchIDArrow {
		return 0, 0, errors.Errorf("%q: branch_id arrows do not take slots", raw)
	}
	return id, slot, nil
}

func (t *translator) build(root string) (*graph.Graph, error) {
	for _, p := range t.arrows {
		a := p.block
		kind, err := graph.ParseArrowKind(a.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "subgraph %q", p.subgraph)
		}
		from, fromSlot, err := t.resolve(p.subgraph, a.From, kind)
		if err != nil {
			return nil, errors.Wrapf(err, "subgraph %q: arrow from", p.subgraph)
		}
		to, toSlot, err := t.resolve(p.subgraph, a.To, kind)
		if err != nil {
			return nil, errors.Wrapf(err, "subgraph %q: arrow to", p.subgraph)
		}
		t.b.Connect(graph.Arrow{
			Kind:     kind,
			From:     from,
			FromSlot: fromSlot,
			To:       to,
			ToSlot:   toSlot,
			Branch:   intOr(a.Branch, 0),
		})
	}
	t.b.Root(value.SubGraphRef(root))
	return t.b.Build()
}

// ParseArgs reads command line arguments as HCL literals: numbers, bools,
// quoted strings, lists and objects. A bare word is taken as a string.
func ParseArgs(raw []string) ([]value.Value, error) {
	args := make([]value.Value, len(raw))
	for i, s := range raw {
		v, err := parseLiteral(s, "arg"+strconv.Itoa(i))
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d (%q)", i, s)
		}
		args[i] = value.Data(hostmem.New(v))
	}
	return args, nil
}
