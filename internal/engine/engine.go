package engine

import (
	"runtime"

	"github.com/specialistvlad/flowactor/internal/actor"
	"github.com/specialistvlad/flowactor/internal/graph"
	"go.uber.org/atomic"
)

// DefaultMaxContexts bounds the number of concurrent runs of one Engine.
const DefaultMaxContexts = 64

// Engine runs a compiled graph. It is safe for concurrent use.
type Engine struct {
	graph    *graph.Graph
	arena    []*actor.Actor
	env      actor.Env
	workers  int
	maxDepth int
	pool     *contextPool
	observer Observer

	// calls hands out call contexts above the pool's range.
	calls *atomic.Uint64
}

type options struct {
	workers     int
	maxDepth    int
	maxContexts int
	launcher    actor.Launcher
	reader      actor.Reader
	observers   []Observer
}

// Option configures an Engine.
type Option func(*options)

// WithWorkers sets the number of workers each run uses.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithMaxDepth bounds the call depth of a run and every per-actor,
// per-context stack.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithMaxContexts bounds the number of concurrent runs.
func WithMaxContexts(n int) Option {
	return func(o *options) { o.maxContexts = n }
}

// WithLauncher injects the kernel-execution layer.
func WithLauncher(l actor.Launcher) Option {
	return func(o *options) { o.launcher = l }
}

// WithReader injects the reader switches use for their condition.
func WithReader(r actor.Reader) Option {
	return func(o *options) { o.reader = r }
}

// WithObserver adds an observer of firings and run completions.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// New creates an Engine for g.
func New(g *graph.Graph, opts ...Option) *Engine {
	o := options{
		workers:     runtime.NumCPU(),
		maxDepth:    actor.DefaultMaxDepth,
		maxContexts: DefaultMaxContexts,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.maxContexts < 1 {
		o.maxContexts = 1
	}

	return &Engine{
		graph:    g,
		arena:    actor.NewArena(g, o.maxDepth),
		env:      actor.Env{Launcher: o.launcher, Reader: o.reader},
		workers:  o.workers,
		maxDepth: o.maxDepth,
		pool:     newContextPool(o.maxContexts),
		observer: multiObserver(o.observers),
		calls:    atomic.NewUint64(uint64(o.maxContexts)),
	}
}

// Graph returns the graph the engine runs.
func (e *Engine) Graph() *graph.Graph { return e.graph }
