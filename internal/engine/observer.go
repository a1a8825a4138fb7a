package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/value"
)

// Event describes one firing, or one drained round when Drained is set.
type Event struct {
	RunID    uuid.UUID
	Actor    graph.ActorID
	Name     string
	Role     graph.Role
	Context  value.Context
	WorkerID int
	// Branch is the branch or return id the outputs travelled on.
	Branch int
	// Call is set when the firing invoked a sub-graph.
	Call    *value.Call
	Result  bool
	Drained bool
}

// Summary describes a finished run.
type Summary struct {
	RunID    uuid.UUID
	Context  value.Context
	Firings  int64
	Drained  int64
	Duration time.Duration
	Err      error
}

// Observer is notified of firings and run completions. Implementations are
// called from worker goroutines and must be safe for concurrent use.
type Observer interface {
	ActorFired(ctx context.Context, ev Event)
	RunFinished(ctx context.Context, s Summary)
}

type observers []Observer

func multiObserver(obs []Observer) Observer {
	return observers(obs)
}

func (o observers) ActorFired(ctx context.Context, ev Event) {
	for _, obs := range o {
		obs.ActorFired(ctx, ev)
	}
}

func (o observers) RunFinished(ctx context.Context, s Summary) {
	for _, obs := range o {
		obs.RunFinished(ctx, s)
	}
}
