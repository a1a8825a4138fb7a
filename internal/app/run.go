package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/engine"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/graphfile"
	"github.com/specialistvlad/flowactor/internal/hostmem"
	"github.com/specialistvlad/flowactor/internal/kernel"
	"github.com/specialistvlad/flowactor/internal/monitor"
	"github.com/specialistvlad/flowactor/internal/value"
)

// Run executes the main application logic based on the app's configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.", "mode", a.config.Mode)

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	g, err := a.LoadGraph()
	if err != nil {
		return err
	}

	if a.config.Mode == ModeValidate {
		fmt.Fprintf(a.outW, "Graph %s is valid: %d actors in %d sub-graphs, root %q takes %d arguments.\n",
			a.config.GraphPath, g.Len(), g.SubGraphs(), g.Root().Name, g.Root().Arity)
		return nil
	}

	args, err := graphfile.ParseArgs(a.config.Args)
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	observers := []engine.Observer{monitor.Logging{}}
	if a.config.MonitorURL != "" {
		pub, err := monitor.Dial(ctx, monitor.Options{URL: a.config.MonitorURL})
		if err != nil {
			return fmt.Errorf("failed to connect to monitor: %w", err)
		}
		defer pub.Close()
		observers = append(observers, pub)
	}

	err = a.execute(ctx, g, args, observers)
	if !a.config.Watch {
		return err
	}
	if err != nil {
		a.logger.Error("Run failed, waiting for changes.", "error", err)
	}
	return a.watch(ctx, args, observers)
}

// newEngine wires an engine for g from the app's configuration.
func (a *App) newEngine(g *graph.Graph, observers []engine.Observer) *engine.Engine {
	opts := []engine.Option{
		engine.WithWorkers(a.config.WorkerCount),
		engine.WithMaxContexts(a.config.MaxContexts),
		engine.WithMaxDepth(a.config.MaxDepth),
		engine.WithLauncher(kernel.Retry(a.registry, kernel.RetryConfig{MaxRetries: a.config.KernelRetries})),
		engine.WithReader(hostmem.Reader{}),
	}
	for _, obs := range observers {
		opts = append(opts, engine.WithObserver(obs))
	}
	return engine.New(g, opts...)
}

func (a *App) execute(ctx context.Context, g *graph.Graph, args []value.Value, observers []engine.Observer) error {
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	a.logger.Info("🚀 Starting execution...", "workers", a.config.WorkerCount, "args", len(args))
	res, err := a.newEngine(g, observers).Execute(ctx, args)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	a.mu.Lock()
	a.result = res
	a.mu.Unlock()

	for i, out := range res.Outputs {
		fmt.Fprintf(a.outW, "result[%d] = %s\n", i, out)
	}
	a.logger.Info("🏁 Execution finished.", "run_id", res.RunID.String(), "firings", res.Firings)
	return nil
}
