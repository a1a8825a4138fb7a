package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/flowactor/internal/app"
	"github.com/specialistvlad/flowactor/internal/hostmem"
	"github.com/specialistvlad/flowactor/internal/registry"
	"github.com/specialistvlad/flowactor/modules/arith"
	"github.com/specialistvlad/flowactor/modules/compare"
	"github.com/specialistvlad/flowactor/modules/env_vars"
	prnt "github.com/specialistvlad/flowactor/modules/print"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// Outputs formats the root exit's values of the last successful run.
func (r *HarnessResult) Outputs() []string {
	if r.App == nil || r.App.Result() == nil {
		return nil
	}
	res := r.App.Result()
	out := make([]string, len(res.Outputs))
	for i, v := range res.Outputs {
		if h, ok := v.Handle(); ok {
			if t, ok := h.(*hostmem.Tensor); ok {
				out[i] = t.String()
				continue
			}
		}
		out[i] = v.String()
	}
	return out
}

// RunIntegrationTest provides a standardized harness for running a graph
// end to end using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, args []string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithConfig(context.Background(), t, files, app.Config{Args: args}, modules...)
}

// RunIntegrationTestWithConfig writes files into a temporary directory and
// runs the app over it. Zero fields of cfg get test defaults. The given
// modules are registered next to the core kernel modules.
func RunIntegrationTestWithConfig(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()

	// 1. Write all HCL files to a temporary directory. Relative paths create
	//    their subdirectories.
	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	// 2. Fill in the configuration.
	cfg.GraphPath = tmpDir
	if cfg.Mode == "" {
		cfg.Mode = app.ModeRun
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxContexts == 0 {
		cfg.MaxContexts = 4
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = 256
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err, "harness produced an invalid config")

	logBuffer := &SafeBuffer{}
	if len(modules) > 0 {
		modules = append([]registry.Module{
			&arith.Module{},
			&compare.Module{},
			&env_vars.Module{},
			&prnt.Module{Out: logBuffer},
		}, modules...)
	}

	// 3. Run, turning a panicking module into an error.
	var testApp *app.App
	runErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("application panicked | %v", r)
			}
		}()
		testApp = app.NewApp(ctx, logBuffer, appConfig, modules...)
		return testApp.Run(ctx)
	}()

	if os.Getenv("FLOWACTOR_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}
