package app

import (
	"fmt"

	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/graphfile"
)

// LoadGraph reads the configured graph path and checks it against the
// registered kernels. The loaded graph replaces the previous one only when
// it is valid.
func (a *App) LoadGraph() (*graph.Graph, error) {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Loading graph...", "graph_path", a.config.GraphPath)

	g, err := graphfile.Load(a.ctx, a.config.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	if err := a.registry.ValidateGraph(a.ctx, g); err != nil {
		return nil, fmt.Errorf("graph does not match registered kernels: %w", err)
	}

	a.mu.Lock()
	a.graph = g
	a.mu.Unlock()

	root := g.Root()
	logger.Info("Graph loaded successfully.", "root", string(root.Name), "arity", root.Arity, "actors", g.Len(), "subgraphs", g.SubGraphs())
	return g, nil
}
