// Package print provides the print kernel: it writes its input to the
// module's writer and passes it through unchanged.
package print

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/hostmem"
	"github.com/specialistvlad/flowactor/internal/registry"
	"github.com/specialistvlad/flowactor/internal/value"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives printed values. Nil means standard output.
	Out io.Writer
}

func (m *Module) onPrint(ctx context.Context, in []value.TensorHandle) ([]value.TensorHandle, error) {
	v, err := hostmem.Unwrap(in[0])
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("Printing input")

	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	if _, err := fmt.Fprintf(out, "      %s\n", hostmem.Format(v)); err != nil {
		return nil, err
	}
	return in, nil
}

// Register registers the kernel with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKernel("print", &registry.RegisteredKernel{Inputs: 1, Outputs: 1, Fn: m.onPrint})
}
