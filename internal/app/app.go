package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/engine"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/registry"
	"github.com/specialistvlad/flowactor/modules/arith"
	"github.com/specialistvlad/flowactor/modules/compare"
	"github.com/specialistvlad/flowactor/modules/env_vars"
	prnt "github.com/specialistvlad/flowactor/modules/print"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	httpServer *http.Server

	mu     sync.Mutex
	graph  *graph.Graph
	result *engine.Result
}

// coreModules returns the kernel modules every App registers when none are given.
func coreModules(outW io.Writer) []registry.Module {
	return []registry.Module{
		&arith.Module{},
		&compare.Module{},
		&env_vars.Module{},
		&prnt.Module{Out: outW},
	}
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Results and logs are written to outW.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	reg := registry.New(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "kernels", reg.Names())

	return &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Graph returns the most recently loaded graph.
func (a *App) Graph() *graph.Graph {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph
}

// Result returns the result of the most recent successful run.
func (a *App) Result() *engine.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}
