package integration_tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/flowactor/internal/app"
	"github.com/specialistvlad/flowactor/internal/fault"
	"github.com/specialistvlad/flowactor/internal/registry"
	"github.com/specialistvlad/flowactor/internal/testutil"
	"github.com/specialistvlad/flowactor/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrorHandling_FailuresAbortTheRun covers the ways a run can fail after
// its graph loaded.
func TestErrorHandling_FailuresAbortTheRun(t *testing.T) {
	t.Parallel()
	failing := &testutil.SimpleModule{
		Name: "test.fail",
		Kernel: &registry.RegisteredKernel{Inputs: 1, Outputs: 1, Fn: func(ctx context.Context, in []value.TensorHandle) ([]value.TensorHandle, error) {
			return nil, errors.New("device on fire")
		}},
	}

	testCases := []struct {
		name        string
		files       map[string]string
		cfg         app.Config
		wantIs      error
		errContains []string
	}{
		{
			name:        "too few root arguments",
			files:       map[string]string{"switch.hcl": example(t, "switch.hcl")},
			cfg:         app.Config{Args: []string{"5"}},
			wantIs:      fault.ErrArityMismatch,
			errContains: []string{"ArityMismatch"},
		},
		{
			name:        "kernel failure",
			files:       map[string]string{"main.hcl": sprintf(identityHCL, "test.fail")},
			cfg:         app.Config{Args: []string{"1"}},
			wantIs:      fault.ErrKernelFailure,
			errContains: []string{"main.k", "device on fire"},
		},
		{
			name:        "recursion deeper than max depth",
			files:       map[string]string{"factorial.hcl": example(t, "factorial.hcl")},
			cfg:         app.Config{Args: []string{"10"}, MaxDepth: 3},
			wantIs:      fault.ErrDepthExceeded,
			errContains: []string{"DepthExceeded"},
		},
		{
			name:        "condition of the wrong type",
			files:       map[string]string{"switch.hcl": example(t, "switch.hcl")},
			cfg:         app.Config{Args: []string{"5", `"yes"`}},
			errContains: []string{"main.sw"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Act ---
			result := testutil.RunIntegrationTestWithConfig(context.Background(), t, tc.files, tc.cfg, failing)

			// --- Assert ---
			require.Error(t, result.Err)
			assert.Contains(t, result.Err.Error(), "execution failed")
			if tc.wantIs != nil {
				assert.ErrorIs(t, result.Err, tc.wantIs)
			}
			for _, s := range tc.errContains {
				assert.Contains(t, result.Err.Error(), s)
			}
			assert.Nil(t, result.App.Result())
		})
	}
}

// TestErrorHandling_TimeoutAbortsBlockedRun checks that the configured
// timeout reaches a kernel that never returns on its own.
func TestErrorHandling_TimeoutAbortsBlockedRun(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	started := make(chan struct{}, 1)
	files := map[string]string{"main.hcl": sprintf(identityHCL, "test.block")}
	cfg := app.Config{Args: []string{"1"}, Timeout: 100 * time.Millisecond}

	// --- Act ---
	begin := time.Now()
	result := testutil.RunIntegrationTestWithConfig(context.Background(), t, files, cfg, blockingModule(started))

	// --- Assert ---
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
	assert.Len(t, started, 1, "the kernel should have started")
	assert.Less(t, time.Since(begin), 5*time.Second)
}

// TestErrorHandling_LoadFailures covers graphs rejected before any actor fires.
func TestErrorHandling_LoadFailures(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name        string
		files       map[string]string
		errContains string
	}{
		{
			name:        "unregistered kernel",
			files:       map[string]string{"main.hcl": sprintf(identityHCL, "test.missing")},
			errContains: "kernel 'test.missing' is not registered",
		},
		{
			name:        "kernel arity disagrees with actor",
			files:       map[string]string{"main.hcl": sprintf(identityHCL, "arith.add")},
			errContains: "takes 2 inputs, actor has 1",
		},
		{
			name:        "syntax error",
			files:       map[string]string{"main.hcl": `subgraph "main" {`},
			errContains: "failed to load graph",
		},
		{
			name:        "unsupported format version",
			files:       map[string]string{"main.hcl": "format_version = \"2.0\"\n" + sprintf(identityHCL, "arith.abs")},
			errContains: "format_version",
		},
		{
			name:        "no graph files",
			files:       map[string]string{"README.md": "# nothing here"},
			errContains: "no .hcl files found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Act ---
			result := testutil.RunIntegrationTest(t, tc.files, []string{"1"})

			// --- Assert ---
			require.Error(t, result.Err)
			assert.Contains(t, result.Err.Error(), tc.errContains)
			assert.Nil(t, result.App.Graph(), "a rejected graph must not be kept")
		})
	}
}
