package engine_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/flowactor/internal/engine"
	"github.com/specialistvlad/flowactor/internal/fault"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/hostmem"
	"github.com/specialistvlad/flowactor/internal/registry"
	"github.com/specialistvlad/flowactor/internal/testutil"
	"github.com/specialistvlad/flowactor/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	engine   *engine.Engine
	launches *testutil.Recorder
	events   *testutil.EventRecorder
}

func newHarness(g *graph.Graph, reg *registry.Registry, opts ...engine.Option) *harness {
	h := &harness{
		launches: testutil.NewRecorder(reg),
		events:   &testutil.EventRecorder{},
	}
	opts = append([]engine.Option{
		engine.WithLauncher(h.launches),
		engine.WithReader(hostmem.Reader{}),
		engine.WithObserver(h.events),
	}, opts...)
	h.engine = engine.New(g, opts...)
	return h
}

func resultInt(t *testing.T, res *engine.Result) int64 {
	t.Helper()
	require.Len(t, res.Outputs, 1)
	handle, ok := res.Outputs[0].Handle()
	require.True(t, ok)
	n, err := hostmem.Int64(handle)
	require.NoError(t, err)
	return n
}

func (h *harness) results() int {
	n := 0
	for _, ev := range h.events.Events() {
		if ev.Result {
			n++
		}
	}
	return n
}

func TestSwitchSelectsOneBranch(t *testing.T) {
	testCases := []struct {
		name     string
		cond     bool
		expected int64
		taken    string
		skipped  string
	}{
		{name: "true takes branch 0", cond: true, expected: 6, taken: "main.inc", skipped: "main.dec"},
		{name: "false takes branch 1", cond: false, expected: 4, taken: "main.dec", skipped: "main.inc"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			h := newHarness(testutil.SwitchGraph(t), testutil.Registry(), engine.WithWorkers(4))

			// --- Act ---
			res, err := h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(5), testutil.Bool(tc.cond)})

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.expected, resultInt(t, res))
			assert.Equal(t, 1, h.results(), "the exit must deliver exactly once")
			assert.Equal(t, 1, h.events.Fired(tc.taken))
			assert.Zero(t, h.events.Fired(tc.skipped))
			assert.Equal(t, 1, h.launches.Count("arith.add")+h.launches.Count("arith.sub"))
		})
	}
}

func TestFactorial(t *testing.T) {
	testCases := []struct {
		n        int64
		expected int64
	}{
		{n: 1, expected: 1},
		{n: 2, expected: 2},
		{n: 3, expected: 6},
		{n: 5, expected: 120},
		{n: 10, expected: 3628800},
	}

	for _, workers := range []int{1, 8} {
		for _, tc := range testCases {
			t.Run(fmt.Sprintf("fact(%d) with %d workers", tc.n, workers), func(t *testing.T) {
				h := newHarness(testutil.FactorialGraph(t), testutil.Registry(), engine.WithWorkers(workers))

				res, err := h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(tc.n)})

				require.NoError(t, err)
				assert.Equal(t, tc.expected, resultInt(t, res))
				assert.Equal(t, 1, h.results())
				assert.Equal(t, int(tc.n), h.events.Fired("fact.in"))
			})
		}
	}
}

func TestRecursiveReturnsAreLIFO(t *testing.T) {
	// --- Arrange ---
	h := newHarness(testutil.FactorialGraph(t), testutil.Registry(), engine.WithWorkers(4))

	// --- Act ---
	res, err := h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(3)})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, int64(6), resultInt(t, res))

	var pushed []value.BranchID
	for _, ev := range h.events.Events() {
		if ev.Call != nil {
			pushed = append(pushed, ev.Call.BranchID)
		}
	}
	assert.Equal(t, []value.BranchID{2, 1, 1}, pushed, "calls push the caller's site first")
	assert.Equal(t, []int{1, 1, 2}, h.events.Branches("fact.out"), "returns pop the most recent caller first")
}

func TestSiblingCallsOfOneSubGraph(t *testing.T) {
	fib := func(n int64) int64 {
		a, b := int64(0), int64(1)
		for i := int64(0); i < n; i++ {
			a, b = b, a+b
		}
		return a
	}
	var calls func(n int64) int
	calls = func(n int64) int {
		if n < 2 {
			return 1
		}
		return 1 + calls(n-1) + calls(n-2)
	}

	for _, workers := range []int{1, 4, 8} {
		for _, n := range []int64{0, 1, 2, 3, 4, 5, 6, 10} {
			t.Run(fmt.Sprintf("fib(%d) with %d workers", n, workers), func(t *testing.T) {
				// --- Arrange ---
				h := newHarness(testutil.FibonacciGraph(t), testutil.Registry(), engine.WithWorkers(workers))

				// --- Act ---
				res, err := h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(n)})

				// --- Assert ---
				require.NoError(t, err)
				assert.Equal(t, fib(n), resultInt(t, res))
				assert.Equal(t, 1, h.results())
				assert.Equal(t, calls(n), h.events.Fired("fib.in"))

				contexts := map[value.Context]bool{}
				for _, ev := range h.events.Events() {
					if ev.Name == "fib.in" {
						assert.False(t, contexts[ev.Context], "call context %d used twice", ev.Context)
						contexts[ev.Context] = true
					}
				}
				assert.NotContains(t, contexts, res.Context, "calls never run in the caller's context")
				assert.Zero(t, h.engine.InUse())
			})
		}
	}
}

func TestPartialChainCallsOnThirdApplication(t *testing.T) {
	h := newHarness(testutil.PartialChainGraph(t), testutil.Registry())

	res, err := h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(1), testutil.Num(2), testutil.Num(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(6), resultInt(t, res))

	calls := map[string]*value.Call{}
	for _, ev := range h.events.Events() {
		calls[ev.Name] = ev.Call
	}
	assert.Nil(t, calls["main.g1"])
	assert.Nil(t, calls["main.g2"])
	require.NotNil(t, calls["main.g3"])
	assert.Equal(t, value.SubGraphRef("sum3"), calls["main.g3"].Callee)
	assert.Equal(t, value.BranchID(5), calls["main.g3"].BranchID)
	assert.Len(t, calls["main.g3"].Args, 3)
}

func TestFanOutSharesTheHandle(t *testing.T) {
	h := newHarness(testutil.FanOutGraph(t), testutil.Registry(), engine.WithWorkers(4))
	x := hostmem.Number(-4)

	res, err := h.engine.Execute(testutil.Context(), []value.Value{value.Data(x)})
	require.NoError(t, err)
	assert.Equal(t, int64(12), resultInt(t, res))

	var seen int
	for _, l := range h.launches.Launches() {
		if l.Kernel != "arith.abs" {
			continue
		}
		seen++
		require.Len(t, l.Inputs, 1)
		assert.Same(t, x, l.Inputs[0])
	}
	assert.Equal(t, 3, seen, "one delivery per registered arrow")
}

func TestFailures(t *testing.T) {
	testCases := []struct {
		name          string
		graph         func(t *testing.T) *graph.Graph
		args          []value.Value
		expectKind    error
		expectActor   string
		expectFirings int64
		never         string
	}{
		{
			name:          "exit with empty branch-id stack",
			graph:         testutil.UnderflowGraph,
			args:          []value.Value{testutil.Num(1)},
			expectKind:    fault.ErrStackUnderflow,
			expectActor:   "f.out",
			expectFirings: 1,
			never:         "main.abs",
		},
		{
			name:        "exit without a route for the popped id",
			graph:       testutil.MisroutedGraph,
			args:        []value.Value{testutil.Num(1)},
			expectKind:  fault.ErrMissingRoute,
			expectActor: "f.out",
		},
		{
			name:        "arguments beyond the callee's arity",
			graph:       testutil.OverfullGraph,
			args:        []value.Value{testutil.Num(1)},
			expectKind:  fault.ErrArityMismatch,
			expectActor: "main.call",
			never:       "f.in",
		},
		{
			name:        "formal parameter never satisfied",
			graph:       testutil.StalledGraph,
			args:        []value.Value{testutil.Num(1), testutil.Bool(false)},
			expectKind:  fault.ErrArityMismatch,
			expectActor: "main.add",
			never:       "main.out",
		},
		{
			name:        "wrong number of root arguments",
			graph:       testutil.SwitchGraph,
			args:        []value.Value{testutil.Num(1)},
			expectKind:  fault.ErrArityMismatch,
			expectActor: "main.in",
			never:       "main.in",
		},
		{
			name:        "kernel rejects its input",
			graph:       testutil.SwitchGraph,
			args:        []value.Value{value.Data(hostmem.String("five")), testutil.Bool(true)},
			expectKind:  fault.ErrKernelFailure,
			expectActor: "main.inc",
			never:       "main.out",
		},
		{
			name:        "condition is not a branch index",
			graph:       testutil.SwitchGraph,
			args:        []value.Value{testutil.Num(1), testutil.Num(7)},
			expectKind:  fault.ErrMissingRoute,
			expectActor: "main.sw",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			h := newHarness(tc.graph(t), testutil.Registry(), engine.WithWorkers(1))

			// --- Act ---
			res, err := h.engine.Execute(testutil.Context(), tc.args)

			// --- Assert ---
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tc.expectKind)

			var f *fault.Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, tc.expectActor, f.ActorName)
			assert.NotEqual(t, value.NoContext, f.Context)

			if tc.expectFirings > 0 {
				summaries := h.events.Summaries()
				require.Len(t, summaries, 1)
				assert.Equal(t, tc.expectFirings, summaries[0].Firings)
			}
			if tc.never != "" {
				assert.Zero(t, h.events.Fired(tc.never), "%s must not fire", tc.never)
			}
			assert.Zero(t, h.results())
			assert.Zero(t, h.engine.InUse(), "the context must be returned")
		})
	}
}

func TestDepthExceeded(t *testing.T) {
	h := newHarness(testutil.FactorialGraph(t), testutil.Registry(), engine.WithMaxDepth(3))

	_, err := h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(10)})
	require.ErrorIs(t, err, fault.ErrDepthExceeded)
	var f *fault.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "fact.rec", f.ActorName, "the call that would go one level too deep fails")

	// A shallow call still fits.
	res, err := h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resultInt(t, res))
}

// blockingGraph is main(x) running "test.block", which holds its worker until
// the run's context ends.
func blockingGraph(t *testing.T) (*graph.Graph, *registry.Registry, chan struct{}) {
	t.Helper()
	started := make(chan struct{}, 16)
	reg := testutil.Registry(&testutil.SimpleModule{
		Name: "test.block",
		Kernel: &registry.RegisteredKernel{Inputs: 1, Outputs: 1, Fn: func(ctx context.Context, in []value.TensorHandle) ([]value.TensorHandle, error) {
			started <- struct{}{}
			<-ctx.Done()
			return nil, ctx.Err()
		}},
	})

	b := graph.NewBuilder()
	in := b.Entrance("main.in", "main", 1)
	block := b.Kernel("main.block", "test.block", 1, 1, nil)
	out := b.Exit("main.out", "main", 1)
	b.Data(in, 0, block, 0)
	b.Data(block, 0, out, 0)
	b.Root("main")
	g, err := b.Build()
	require.NoError(t, err)
	return g, reg, started
}

func TestCancellation(t *testing.T) {
	t.Run("already cancelled", func(t *testing.T) {
		h := newHarness(testutil.SwitchGraph(t), testutil.Registry())
		ctx, cancel := context.WithCancel(testutil.Context())
		cancel()

		_, err := h.engine.Execute(ctx, []value.Value{testutil.Num(1), testutil.Bool(true)})
		require.ErrorIs(t, err, fault.ErrUpstreamFailure)
		assert.Empty(t, h.events.Events())
	})

	t.Run("cancelled mid-run", func(t *testing.T) {
		g, reg, started := blockingGraph(t)
		h := newHarness(g, reg)
		ctx, cancel := context.WithCancel(testutil.Context())

		errCh := make(chan error, 1)
		go func() {
			_, err := h.engine.Execute(ctx, []value.Value{testutil.Num(1)})
			errCh <- err
		}()
		<-started
		cancel()

		err := <-errCh
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, h.events.Fired("main.out"))
		assert.Zero(t, h.engine.InUse())
	})
}

func TestContextPool(t *testing.T) {
	// --- Arrange ---
	g, reg, started := blockingGraph(t)
	h := newHarness(g, reg, engine.WithMaxContexts(1))
	ctx, cancel := context.WithCancel(testutil.Context())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		_, err := h.engine.Execute(ctx, []value.Value{testutil.Num(1)})
		errCh <- err
	}()
	<-started
	assert.Equal(t, 1, h.engine.InUse())

	// --- Act & Assert ---
	_, err := h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(1)}, engine.InContext(1))
	assert.ErrorIs(t, err, engine.ErrContextBusy)

	_, err = h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(1)}, engine.InContext(2))
	assert.ErrorContains(t, err, "outside pool range")

	waitCtx, waitCancel := context.WithTimeout(testutil.Context(), 20*time.Millisecond)
	defer waitCancel()
	_, err = h.engine.Execute(waitCtx, []value.Value{testutil.Num(1)})
	assert.ErrorIs(t, err, fault.ErrUpstreamFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	cancel()
	require.Error(t, <-errCh)
	assert.Zero(t, h.engine.InUse())
}

func TestContextsAreRecycled(t *testing.T) {
	h := newHarness(testutil.SwitchGraph(t), testutil.Registry(), engine.WithMaxContexts(2))

	for i := 0; i < 5; i++ {
		res, err := h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(int64(i)), testutil.Bool(true)})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), resultInt(t, res))
		assert.Equal(t, value.Context(1), res.Context, "a released context is handed out again")
	}

	res, err := h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(1), testutil.Bool(true)}, engine.InContext(2))
	require.NoError(t, err)
	assert.Equal(t, value.Context(2), res.Context)
}

func TestConcurrentExecutions(t *testing.T) {
	h := newHarness(testutil.FactorialGraph(t), testutil.Registry(), engine.WithWorkers(2), engine.WithMaxContexts(4))
	factorial := []int64{1, 1, 2, 6, 24, 120, 720}

	const runs = 24
	var wg sync.WaitGroup
	errs := make([]error, runs)
	got := make([]*engine.Result, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = h.engine.Execute(testutil.Context(), []value.Value{testutil.Num(int64(i%6 + 1))})
		}(i)
	}
	wg.Wait()

	for i := 0; i < runs; i++ {
		require.NoError(t, errs[i], "run %d", i)
		assert.Equal(t, factorial[i%6+1], resultInt(t, got[i]), "run %d", i)
	}
	assert.Equal(t, runs, h.results())
	assert.Zero(t, h.engine.InUse())
}
