package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/flowactor/internal/kernel"
	"github.com/specialistvlad/flowactor/internal/registry"
	"github.com/specialistvlad/flowactor/internal/value"
	"github.com/specialistvlad/flowactor/modules/arith"
	"github.com/specialistvlad/flowactor/modules/compare"
)

// Registry returns a registry holding the arithmetic and comparison kernels
// plus any extra modules.
func Registry(extra ...registry.Module) *registry.Registry {
	modules := append([]registry.Module{&arith.Module{}, &compare.Module{}}, extra...)
	return registry.New(modules...)
}

// Launch is one recorded kernel launch.
type Launch struct {
	Kernel string
	Inputs []value.TensorHandle
}

// Recorder is a kernel.Launcher that records every launch before passing it on.
type Recorder struct {
	next kernel.Launcher

	mu       sync.Mutex
	launches []Launch
}

// NewRecorder wraps next.
func NewRecorder(next kernel.Launcher) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Launch(ctx context.Context, name string, inputs []value.TensorHandle) ([]value.TensorHandle, error) {
	r.mu.Lock()
	r.launches = append(r.launches, Launch{Kernel: name, Inputs: inputs})
	r.mu.Unlock()
	return r.next.Launch(ctx, name, inputs)
}

// Launches returns a copy of the recorded launches.
func (r *Recorder) Launches() []Launch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Launch(nil), r.launches...)
}

// Count returns how often the named kernel was launched.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, l := range r.Launches() {
		if l.Kernel == name {
			n++
		}
	}
	return n
}

// SimpleModule registers a single kernel.
type SimpleModule struct {
	Name   string
	Kernel *registry.RegisteredKernel
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	r.RegisterKernel(m.Name, m.Kernel)
}
