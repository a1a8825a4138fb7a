package scheduler

import (
	"context"
	"sync"

	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/value"
	"golang.org/x/sync/errgroup"
)

// Task asks for one firing attempt of an actor in a context.
type Task struct {
	Actor   graph.ActorID
	Context value.Context
}

// FireFunc runs one task on a worker.
type FireFunc func(ctx context.Context, workerID int, t Task)

// Scheduler is a FIFO of tasks with in-flight accounting. A Scheduler drives a
// single run and cannot be reused after Run returns.
type Scheduler struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Task
	pending int
	done    bool
}

// New creates an empty scheduler.
func New() *Scheduler {
	s := &Scheduler{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Enqueue adds t to the back of the queue.
func (s *Scheduler) Enqueue(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.pending++
	s.queue = append(s.queue, t)
	s.cond.Signal()
}

// Pending returns the number of queued or running tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Run starts workers workers and blocks until the run is quiescent.
func (s *Scheduler) Run(ctx context.Context, workers int, fire FireFunc) error {
	logger := ctxlog.FromContext(ctx)
	if workers < 1 {
		workers = 1
	}

	s.mu.Lock()
	if s.pending == 0 {
		s.done = true
	}
	s.mu.Unlock()

	logger.Debug("Starting worker pool.", "workers", workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		workerID := i
		g.Go(func() error {
			s.worker(ctx, workerID, fire)
			return nil
		})
	}
	err := g.Wait()
	logger.Debug("Worker pool drained.")
	return err
}

// worker is the core processing loop for a single concurrent worker.
func (s *Scheduler) worker(ctx context.Context, workerID int, fire FireFunc) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for {
		t, ok := s.next()
		if !ok {
			break
		}
		fire(ctx, workerID, t)
		s.finish()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

func (s *Scheduler) next() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.done {
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return Task{}, false
	}
	t := s.queue[0]
	s.queue[0] = Task{}
	s.queue = s.queue[1:]
	return t, true
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if s.pending == 0 {
		s.done = true
		s.cond.Broadcast()
	}
}
