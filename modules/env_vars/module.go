// Package env_vars provides the env.get kernel, which reads an environment
// variable named by its input.
package env_vars

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/flowactor/internal/hostmem"
	"github.com/specialistvlad/flowactor/internal/registry"
	"github.com/specialistvlad/flowactor/internal/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnGetEnv returns the variable's value, or a null string when it is unset.
func OnGetEnv(ctx context.Context, in []value.TensorHandle) ([]value.TensorHandle, error) {
	v, err := hostmem.Unwrap(in[0])
	if err != nil {
		return nil, err
	}
	name, err := convert.Convert(v, cty.String)
	if err != nil {
		return nil, fmt.Errorf("variable name: %w", err)
	}
	if name.IsNull() {
		return nil, fmt.Errorf("variable name is null")
	}

	val, ok := os.LookupEnv(name.AsString())
	if !ok {
		return []value.TensorHandle{hostmem.New(cty.NullVal(cty.String))}, nil
	}
	return []value.TensorHandle{hostmem.String(val)}, nil
}

// Register registers the kernel with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKernel("env.get", &registry.RegisteredKernel{Inputs: 1, Outputs: 1, Fn: OnGetEnv})
}
