package testutil

import (
	"testing"

	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/hostmem"
	"github.com/specialistvlad/flowactor/internal/value"
	"github.com/stretchr/testify/require"
)

// Num is a data value holding n.
func Num(n int64) value.Value { return value.Data(hostmem.Number(n)) }

// Bool is a data value holding b.
func Bool(b bool) value.Value { return value.Data(hostmem.Bool(b)) }

func local(n int64) map[int]value.Value {
	return map[int]value.Value{1: Num(n)}
}

func build(t *testing.T, b *graph.Builder) *graph.Graph {
	t.Helper()
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

// SwitchGraph is main(x, cond): cond selects between returning x+1
// ("main.inc", branch 0) and x-1 ("main.dec", branch 1).
func SwitchGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	in := b.Entrance("main.in", "main", 2)
	sw := b.Switch("main.sw", 1, 2)
	inc := b.Kernel("main.inc", "arith.add", 2, 1, local(1))
	dec := b.Kernel("main.dec", "arith.sub", 2, 1, local(1))
	out := b.Exit("main.out", "main", 1)

	b.Data(in, 1, sw, 0)
	b.Data(in, 0, sw, 1)
	b.DataOn(0, sw, 0, inc, 0)
	b.DataOn(1, sw, 0, dec, 0)
	b.Data(inc, 0, out, 0)
	b.Data(dec, 0, out, 0)
	b.Root("main")
	return build(t, b)
}

// FactorialGraph is main(n) calling fact(n) from call site 2. fact recurses
// from call site 1, so a run of depth d pushes 2 followed by d-1 ones.
func FactorialGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	in := b.Entrance("main.in", "main", 1)
	call := b.Gather("main.call", 1, 2, value.NewPartial("fact"))
	out := b.Exit("main.out", "main", 1)

	fin := b.Entrance("fact.in", "fact", 1)
	le := b.Kernel("fact.le", "compare.le", 2, 1, local(1))
	sw := b.Switch("fact.sw", 1, 2)
	zero := b.Kernel("fact.zero", "arith.mul", 2, 1, local(0))
	one := b.Kernel("fact.one", "arith.add", 2, 1, local(1))
	dec := b.Kernel("fact.dec", "arith.sub", 2, 1, local(1))
	rec := b.Gather("fact.rec", 1, 1, value.NewPartial("fact"))
	mul := b.Kernel("fact.mul", "arith.mul", 2, 1, nil)
	fout := b.Exit("fact.out", "fact", 1)

	b.Data(in, 0, call, 1)
	b.DataOn(2, fout, 0, out, 0)

	b.ReturnAddress(fin, fout)
	b.Data(fin, 0, le, 0)
	b.Data(le, 0, sw, 0)
	b.Data(fin, 0, sw, 1)
	// Base case: n <= 1 returns n*0+1.
	b.DataOn(0, sw, 0, zero, 0)
	b.Data(zero, 0, one, 0)
	b.Data(one, 0, fout, 0)
	// Recursive case: n * fact(n-1).
	b.DataOn(1, sw, 0, dec, 0)
	b.DataOn(1, sw, 0, mul, 0)
	b.Data(dec, 0, rec, 1)
	b.DataOn(1, fout, 0, mul, 1)
	b.Data(mul, 0, fout, 0)
	b.Root("main")
	return build(t, b)
}

// FibonacciGraph is main(n) calling fib(n) from call site 3. fib calls
// itself twice per level, fib(n-1) from site 1 and fib(n-2) from site 2, and
// adds the two returns.
func FibonacciGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	in := b.Entrance("main.in", "main", 1)
	call := b.Gather("main.call", 1, 3, value.NewPartial("fib"))
	out := b.Exit("main.out", "main", 1)

	fin := b.Entrance("fib.in", "fib", 1)
	lt := b.Kernel("fib.lt", "compare.lt", 2, 1, local(2))
	sw := b.Switch("fib.sw", 1, 2)
	d1 := b.Kernel("fib.d1", "arith.sub", 2, 1, local(1))
	d2 := b.Kernel("fib.d2", "arith.sub", 2, 1, local(2))
	r1 := b.Gather("fib.r1", 1, 1, value.NewPartial("fib"))
	r2 := b.Gather("fib.r2", 1, 2, value.NewPartial("fib"))
	add := b.Kernel("fib.add", "arith.add", 2, 1, nil)
	fout := b.Exit("fib.out", "fib", 1)

	b.Data(in, 0, call, 1)
	b.DataOn(3, fout, 0, out, 0)

	b.ReturnAddress(fin, fout)
	b.Data(fin, 0, lt, 0)
	b.Data(lt, 0, sw, 0)
	b.Data(fin, 0, sw, 1)
	// Base case: n < 2 returns n.
	b.DataOn(0, sw, 0, fout, 0)
	// Recursive case: fib(n-1) + fib(n-2).
	b.DataOn(1, sw, 0, d1, 0)
	b.DataOn(1, sw, 0, d2, 0)
	b.Data(d1, 0, r1, 1)
	b.Data(d2, 0, r2, 1)
	b.DataOn(1, fout, 0, add, 0)
	b.DataOn(2, fout, 0, add, 1)
	b.Data(add, 0, fout, 0)
	b.Root("main")
	return build(t, b)
}

// PartialChainGraph is main(a, b, c) binding sum3's arguments one gather at
// a time; the third gather makes the call from site 5.
func PartialChainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	in := b.Entrance("main.in", "main", 3)
	g1 := b.Gather("main.g1", 1, 5, value.NewPartial("sum3"))
	g2 := b.Gather("main.g2", 1, 5, nil)
	g3 := b.Gather("main.g3", 1, 5, nil)
	out := b.Exit("main.out", "main", 1)

	sin := b.Entrance("sum3.in", "sum3", 3)
	ab := b.Kernel("sum3.ab", "arith.add", 2, 1, nil)
	abc := b.Kernel("sum3.abc", "arith.add", 2, 1, nil)
	sout := b.Exit("sum3.out", "sum3", 1)

	b.Data(in, 0, g1, 1)
	b.Partial(g1, 0, g2, 0)
	b.Data(in, 1, g2, 1)
	b.Partial(g2, 0, g3, 0)
	b.Data(in, 2, g3, 1)
	b.DataOn(5, sout, 0, out, 0)

	b.ReturnAddress(sin, sout)
	b.Data(sin, 0, ab, 0)
	b.Data(sin, 1, ab, 1)
	b.Data(ab, 0, abc, 0)
	b.Data(sin, 2, abc, 1)
	b.Data(abc, 0, sout, 0)
	b.Root("main")
	return build(t, b)
}

// FanOutGraph is main(x) routing x to three abs kernels and summing them.
func FanOutGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	in := b.Entrance("main.in", "main", 1)
	a1 := b.Kernel("main.abs1", "arith.abs", 1, 1, nil)
	a2 := b.Kernel("main.abs2", "arith.abs", 1, 1, nil)
	a3 := b.Kernel("main.abs3", "arith.abs", 1, 1, nil)
	s1 := b.Kernel("main.sum1", "arith.add", 2, 1, nil)
	s2 := b.Kernel("main.sum2", "arith.add", 2, 1, nil)
	out := b.Exit("main.out", "main", 1)

	b.Data(in, 0, a1, 0)
	b.Data(in, 0, a2, 0)
	b.Data(in, 0, a3, 0)
	b.Data(a1, 0, s1, 0)
	b.Data(a2, 0, s1, 1)
	b.Data(s1, 0, s2, 0)
	b.Data(a3, 0, s2, 1)
	b.Data(s2, 0, out, 0)
	b.Root("main")
	return build(t, b)
}

// UnderflowGraph feeds x straight into the exit of a sub-graph nobody calls,
// so the exit holds a result with no branch id to return it on. x also feeds
// "main.abs", which must never fire.
func UnderflowGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	in := b.Entrance("main.in", "main", 1)
	abs := b.Kernel("main.abs", "arith.abs", 1, 1, nil)
	out := b.Exit("main.out", "main", 1)
	fin := b.Entrance("f.in", "f", 1)
	fout := b.Exit("f.out", "f", 1)

	b.Data(in, 0, fout, 0)
	b.Data(in, 0, abs, 0)
	b.ReturnAddress(fin, fout)
	b.DataOn(1, fout, 0, out, 0)
	b.Root("main")
	return build(t, b)
}

// StalledGraph is main(x, cond) where "main.add" only receives its second
// operand on branch 0; with cond false it never completes.
func StalledGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	in := b.Entrance("main.in", "main", 2)
	sw := b.Switch("main.sw", 1, 2)
	add := b.Kernel("main.add", "arith.add", 2, 1, nil)
	out := b.Exit("main.out", "main", 1)

	b.Data(in, 1, sw, 0)
	b.Data(in, 0, sw, 1)
	b.Data(in, 0, add, 0)
	b.DataOn(0, sw, 0, add, 1)
	b.Data(add, 0, out, 0)
	b.Root("main")
	return build(t, b)
}

// MisroutedGraph calls the identity sub-graph f from site 3, but f's exit
// only knows how to return to site 7.
func MisroutedGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	in := b.Entrance("main.in", "main", 1)
	call := b.Gather("main.call", 1, 3, value.NewPartial("f"))
	out := b.Exit("main.out", "main", 1)
	fin := b.Entrance("f.in", "f", 1)
	fout := b.Exit("f.out", "f", 1)

	b.Data(in, 0, call, 1)
	b.Data(fin, 0, fout, 0)
	b.ReturnAddress(fin, fout)
	b.DataOn(7, fout, 0, out, 0)
	b.Root("main")
	return build(t, b)
}

// OverfullGraph is main(x) applying x to a partial of the unary f that
// already binds its only argument.
func OverfullGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	in := b.Entrance("main.in", "main", 1)
	call := b.Gather("main.call", 1, 3, value.NewPartial("f", Num(1)))
	out := b.Exit("main.out", "main", 1)
	fin := b.Entrance("f.in", "f", 1)
	fout := b.Exit("f.out", "f", 1)

	b.Data(in, 0, call, 1)
	b.Data(fin, 0, fout, 0)
	b.ReturnAddress(fin, fout)
	b.DataOn(3, fout, 0, out, 0)
	b.Root("main")
	return build(t, b)
}
