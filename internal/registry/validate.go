package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/graph"
)

// ValidateGraph checks every Kernel actor of g against the registry: the
// kernel must exist and the actor's slot counts must match its declaration.
func (r *Registry) ValidateGraph(ctx context.Context, g *graph.Graph) error {
	logger := ctxlog.FromContext(ctx)
	var errs []error

	for _, a := range g.Actors() {
		if a.Role != graph.RoleKernel {
			continue
		}
		k, ok := r.Kernels[a.Kernel]
		if !ok {
			errs = append(errs, fmt.Errorf("actor '%s': kernel '%s' is not registered", a.Name, a.Kernel))
			continue
		}
		if k.Inputs != Variadic && k.Inputs != a.Inputs {
			errs = append(errs, fmt.Errorf("actor '%s': kernel '%s' takes %d inputs, actor has %d", a.Name, a.Kernel, k.Inputs, a.Inputs))
		}
		if k.Outputs != a.Outputs {
			errs = append(errs, fmt.Errorf("actor '%s': kernel '%s' produces %d outputs, actor has %d", a.Name, a.Kernel, k.Outputs, a.Outputs))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Debug("Graph kernels validated.", "kernels", len(r.Kernels))
	return nil
}
