package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeGraph(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0600), "failed to set up test file")
	return path
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeGraph(t, `
subgraph "main" {
  actor "entrance" "in" {
    arity = 2
  }
  actor "kernel" "mul" {
    kernel  = "arith.mul"
    inputs  = 2
    outputs = 1
  }
  actor "exit" "out" {
    arity = 1
  }
  arrow "data" {
    from = "in[0]"
    to   = "mul[0]"
  }
  arrow "data" {
    from = "in[1]"
    to   = "mul[1]"
  }
  arrow "data" {
    from = "mul"
    to   = "out"
  }
}
`)
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, []string{"run", path, "--arg", "6", "--arg", "7", "--log-level", "error"})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "result[0] = 42")
}

func TestRun_InvalidGraph(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Missing closing brace.
	path := writeGraph(t, `
subgraph "main" {
  actor "entrance" "in" {
    arity = 1
`)
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, []string{"validate", path, "--log-level", "error"})

	// --- Assert ---
	require.Error(t, err, "run() should fail on an unparsable graph")
	require.Contains(t, err.Error(), "failed to load graph")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"run", "graph.hcl", "--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
