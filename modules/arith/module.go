// Package arith provides the arithmetic kernels over host tensors.
package arith

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

var binary = map[string]function.Function{
	"arith.add": stdlib.AddFunc,
	"arith.sub": stdlib.SubtractFunc,
	"arith.mul": stdlib.MultiplyFunc,
	"arith.div": stdlib.DivideFunc,
	"arith.mod": stdlib.ModuloFunc,
}

var unary = map[string]function.Function{
	"arith.neg": stdlib.NegateFunc,
	"arith.abs": stdlib.AbsoluteFunc,
}

func kernelOf(fn function.Function) registry.KernelFunc {
	return func(ctx context.Context, in []value.TensorHandle) ([]value.TensorHandle, error) {
		return hostmem.Call(fn, in)
	}
}

// Register registers the kernels with the engine.
func (m *Module) Register(r *registry.Registry) {
	for name, fn := range binary {
		r.RegisterKernel(name, &registry.RegisteredKernel{Inputs: 2, Outputs: 1, Fn: kernelOf(fn)})
	}
	for name, fn := range unary {
		r.RegisterKernel(name, &registry.RegisteredKernel{Inputs: 1, Outputs: 1, Fn: kernelOf(fn)})
	}
}
