package app

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const incGraph = `
subgraph "main" {
  actor "entrance" "in" { arity = 1 }
  actor "kernel" "inc" {
    kernel = "arith.add"
    inputs = 2
    locals = { 1 = %d }
  }
  actor "exit" "out" { arity = 1 }
  arrow "data" {
    from = "in"
    to   = "inc"
  }
  arrow "data" {
    from = "inc"
    to   = "out"
  }
}
`

// safeBuffer is written by the app's workers while tests read it.
type safeBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func writeGraph(t *testing.T, path string, step int) {
	t.Helper()
	src := []byte(fmt.Sprintf(incGraph, step))
	require.NoError(t, os.WriteFile(path, src, 0644))
}

func validConfig(path string) Config {
	return Config{GraphPath: path, WorkerCount: 2, MaxContexts: 1, MaxDepth: 64, LogLevel: "debug", LogFormat: "text"}
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(c *Config)
		errContains string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing path", mutate: func(c *Config) { c.GraphPath = "" }, errContains: "GraphPath"},
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "dance" }, errContains: "unknown mode"},
		{name: "no workers", mutate: func(c *Config) { c.WorkerCount = 0 }, errContains: "WorkerCount"},
		{name: "no contexts", mutate: func(c *Config) { c.MaxContexts = 0 }, errContains: "MaxContexts"},
		{name: "no depth", mutate: func(c *Config) { c.MaxDepth = 0 }, errContains: "MaxDepth"},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, errContains: "Timeout"},
		{name: "watch while validating", mutate: func(c *Config) { c.Mode = ModeValidate; c.Watch = true }, errContains: "Watch"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig("graph.hcl")
			tc.mutate(&cfg)
			got, err := NewConfig(cfg)
			if tc.errContains != "" {
				assert.ErrorContains(t, err, tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ModeRun, got.Mode)
		})
	}
}

func TestRunAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.hcl")
	writeGraph(t, path, 1)

	t.Run("run", func(t *testing.T) {
		cfg := validConfig(path)
		cfg.Args = []string{"41"}
		out := &safeBuffer{}
		a := NewApp(context.Background(), out, &cfg)

		require.NoError(t, a.Run(context.Background()))
		assert.Contains(t, out.String(), "result[0] = 42")
		require.NotNil(t, a.Result())
	})

	t.Run("validate", func(t *testing.T) {
		cfg := validConfig(path)
		cfg.Mode = ModeValidate
		out := &safeBuffer{}
		a := NewApp(context.Background(), out, &cfg)

		require.NoError(t, a.Run(context.Background()))
		assert.Contains(t, out.String(), "is valid: 3 actors in 1 sub-graphs")
		assert.Nil(t, a.Result())
	})

	t.Run("wrong argument count", func(t *testing.T) {
		cfg := validConfig(path)
		out := &safeBuffer{}
		err := NewApp(context.Background(), out, &cfg).Run(context.Background())
		assert.ErrorContains(t, err, "ArityMismatch")
	})
}

func TestWatchRerunsOnChange(t *testing.T) {
	old := watchDebounce
	watchDebounce = 10 * time.Millisecond
	t.Cleanup(func() { watchDebounce = old })

	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "main.hcl")
	writeGraph(t, path, 1)
	cfg := validConfig(path)
	cfg.Args = []string{"10"}
	cfg.Watch = true
	out := &safeBuffer{}
	a := NewApp(context.Background(), out, &cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return a.Result() != nil }, 5*time.Second, 10*time.Millisecond)
	first := a.Result()

	// --- Act ---
	// The watcher may not be registered yet, so keep saving until a rerun lands.
	changed := []byte(fmt.Sprintf(incGraph, 5))
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, changed, 0644)
		return a.Result() != first
	}, 5*time.Second, 50*time.Millisecond)

	// --- Assert ---
	assert.Contains(t, out.String(), "result[0] = 15")

	cancel()
	require.NoError(t, <-done)
}

func TestHealthHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.hcl")
	writeGraph(t, path, 1)
	cfg := validConfig(path)
	a := NewApp(context.Background(), &safeBuffer{}, &cfg)

	rec := httptest.NewRecorder()
	a.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, err := a.LoadGraph()
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	a.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}
