package monitor

import (
	"context"

	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/engine"
)

// Logging reports every firing at debug level and every run at info level.
type Logging struct{}

var _ engine.Observer = Logging{}

func (Logging) ActorFired(ctx context.Context, ev engine.Event) {
	logger := ctxlog.FromContext(ctx)
	if ev.Drained {
		logger.Debug("Actor round drained.", "actor", ev.Name, "role", ev.Role.String(), "worker_id", ev.WorkerID)
		return
	}
	args := []any{"actor", ev.Name, "role", ev.Role.String(), "worker_id", ev.WorkerID, "branch", ev.Branch}
	if ev.Call != nil {
		args = append(args, "call", string(ev.Call.Callee), "return_address", int(ev.Call.BranchID))
	}
	if ev.Result {
		args = append(args, "result", true)
	}
	logger.Debug("Actor fired.", args...)
}

func (Logging) RunFinished(ctx context.Context, s engine.Summary) {
	logger := ctxlog.FromContext(ctx)
	if s.Err != nil {
		logger.Error("Run failed.", "firings", s.Firings, "drained", s.Drained, "duration", s.Duration, "error", s.Err)
		return
	}
	logger.Info("Run completed.", "firings", s.Firings, "duration", s.Duration)
}
