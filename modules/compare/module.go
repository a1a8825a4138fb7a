// Package compare provides comparison and boolean kernels. Their results are
// booleans, which a Switch reads as branch 0 for true and branch 1 for false.
package compare

import (
	"context"

	"github.com/specialistvlad/flowactor/internal/hostmem"
	"github.com/specialistvlad/flowactor/internal/registry"
	"github.com/specialistvlad/flowactor/internal/value"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var kernels = map[string]struct {
	fn     function.Function
	inputs int
}{
	"compare.lt":  {stdlib.LessThanFunc, 2},
	"compare.le":  {stdlib.LessThanOrEqualToFunc, 2},
	"compare.gt":  {stdlib.GreaterThanFunc, 2},
	"compare.ge":  {stdlib.GreaterThanOrEqualToFunc, 2},
	"compare.eq":  {stdlib.EqualFunc, 2},
	"compare.ne":  {stdlib.NotEqualFunc, 2},
	"compare.and": {stdlib.AndFunc, 2},
	"compare.or":  {stdlib.OrFunc, 2},
	"compare.not": {stdlib.NotFunc, 1},
}

// Register registers the kernels with the engine.
func (m *Module) Register(r *registry.Registry) {
	for name, k := range kernels {
		fn := k.fn
		r.RegisterKernel(name, &registry.RegisteredKernel{
			Inputs:  k.inputs,
			Outputs: 1,
			Fn: func(ctx context.Context, in []value.TensorHandle) ([]value.TensorHandle, error) {
				return hostmem.Call(fn, in)
			},
		})
	}
}
