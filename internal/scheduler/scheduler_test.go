package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRun_EmptyQueueReturnsImmediately(t *testing.T) {
	s := New()
	done := make(chan error, 1)
	go func() {
		done <- s.Run(testContext(), 4, func(context.Context, int, Task) {
			t.Error("fire must not be called")
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return on an empty queue")
	}
}

func TestRun_FiresSuccessorsUntilQuiescent(t *testing.T) {
	// A binary tree of depth 10 where every task enqueues its two children.
	const depth = 10
	s := New()
	s.Enqueue(Task{Actor: 1})

	var mu sync.Mutex
	seen := make(map[graph.ActorID]int)
	err := s.Run(testContext(), 8, func(_ context.Context, _ int, task Task) {
		mu.Lock()
		seen[task.Actor]++
		mu.Unlock()
		if task.Actor < 1<<(depth-1) {
			s.Enqueue(Task{Actor: 2 * task.Actor})
			s.Enqueue(Task{Actor: 2*task.Actor + 1})
		}
	})

	require.NoError(t, err)
	assert.Len(t, seen, 1<<depth-1)
	for id, n := range seen {
		assert.Equal(t, 1, n, "task %d fired more than once", id)
	}
	assert.Equal(t, 0, s.Pending())
}

func TestRun_WorkersRunConcurrently(t *testing.T) {
	const tasks = 4
	s := New()
	for i := 0; i < tasks; i++ {
		s.Enqueue(Task{Actor: graph.ActorID(i)})
	}

	// Every task waits until all of them have started, which only terminates
	// if the pool runs them in parallel.
	var started sync.WaitGroup
	started.Add(tasks)
	err := s.Run(testContext(), tasks, func(context.Context, int, Task) {
		started.Done()
		started.Wait()
	})
	require.NoError(t, err)
}

func TestEnqueueAfterRunIsIgnored(t *testing.T) {
	s := New()
	s.Enqueue(Task{Actor: 1})
	require.NoError(t, s.Run(testContext(), 1, func(context.Context, int, Task) {}))

	s.Enqueue(Task{Actor: 2})
	assert.Equal(t, 0, s.Pending())
}
