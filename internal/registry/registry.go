package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/kernel"
	"github.com/specialistvlad/flowactor/internal/value"
)

// Variadic marks a kernel that accepts any number of inputs.
const Variadic = -1

// Module is the interface that all kernel modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// KernelFunc is the compiled body of a kernel.
type KernelFunc func(ctx context.Context, inputs []value.TensorHandle) ([]value.TensorHandle, error)

// RegisteredKernel holds a kernel body and its declared shape.
type RegisteredKernel struct {
	Inputs  int
	Outputs int
	Fn      KernelFunc
}

// Registry holds all the registered kernels for a single application instance.
// It is read-only once populated and safe for concurrent launches.
type Registry struct {
	Kernels map[string]*RegisteredKernel
}

// New creates and initializes a new Registry instance.
func New(modules ...Module) *Registry {
	r := &Registry{Kernels: make(map[string]*RegisteredKernel)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterKernel registers a Go function under a kernel name.
func (r *Registry) RegisterKernel(name string, k *RegisteredKernel) {
	if _, exists := r.Kernels[name]; exists {
		panic(fmt.Sprintf("kernel with name '%s' already registered", name))
	}
	if k == nil || k.Fn == nil {
		panic(fmt.Sprintf("kernel '%s' has no function", name))
	}
	slog.Debug("Registering kernel.", "name", name, "inputs", k.Inputs, "outputs", k.Outputs)
	r.Kernels[name] = k
}

// Names returns the registered kernel names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Kernels))
	for name := range r.Kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Launch runs a registered kernel. A panicking kernel is reported as an error.
func (r *Registry) Launch(ctx context.Context, name string, inputs []value.TensorHandle) (outs []value.TensorHandle, err error) {
	k, ok := r.Kernels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", kernel.ErrUnknown, name)
	}
	if k.Inputs != Variadic && len(inputs) != k.Inputs {
		return nil, fmt.Errorf("%w: %q takes %d inputs, got %d", kernel.ErrArity, name, k.Inputs, len(inputs))
	}

	defer func() {
		if p := recover(); p != nil {
			ctxlog.FromContext(ctx).Error("Kernel panicked.", "kernel", name, "panic", p)
			outs, err = nil, fmt.Errorf("kernel %q panicked: %v", name, p)
		}
	}()

	outs, err = k.Fn(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if len(outs) != k.Outputs {
		return nil, fmt.Errorf("%w: %q produced %d outputs, declared %d", kernel.ErrArity, name, len(outs), k.Outputs)
	}
	return outs, nil
}
