package integration_tests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/specialistvlad/flowactor/internal/registry"
	"github.com/specialistvlad/flowactor/internal/testutil"
	"github.com/specialistvlad/flowactor/internal/value"
	"github.com/stretchr/testify/require"
)

// example reads a graph from the repository's examples directory.
func example(t *testing.T, name string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	src, err := os.ReadFile(filepath.Join(filepath.Dir(file), "..", "..", "..", "examples", name))
	require.NoError(t, err)
	return string(src)
}

// blockingModule registers "test.block", which holds its worker until the
// run's context ends.
func blockingModule(started chan<- struct{}) registry.Module {
	return &testutil.SimpleModule{
		Name: "test.block",
		Kernel: &registry.RegisteredKernel{Inputs: 1, Outputs: 1, Fn: func(ctx context.Context, in []value.TensorHandle) ([]value.TensorHandle, error) {
			started <- struct{}{}
			<-ctx.Done()
			return nil, ctx.Err()
		}},
	}
}

const identityHCL = `
subgraph "main" {
  actor "entrance" "in" { arity = 1 }
  actor "kernel" "k" {
    kernel = "%s"
    inputs = 1
  }
  actor "exit" "out" { arity = 1 }
  arrow "data" {
    from = "in"
    to   = "k"
  }
  arrow "data" {
    from = "k"
    to   = "out"
  }
}
`

func sprintf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
