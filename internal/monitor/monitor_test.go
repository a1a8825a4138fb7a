package monitor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/engine"
	"github.com/specialistvlad/flowactor/internal/fault"
	"github.com/specialistvlad/flowactor/internal/graph"
	"github.com/specialistvlad/flowactor/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	event   string
	payload map[string]any
}

func recordingPublisher() (*Publisher, *[]emitted) {
	var (
		mu  sync.Mutex
		got []emitted
	)
	return &Publisher{emit: func(event string, payload map[string]any) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, emitted{event, payload})
	}}, &got
}

func TestPublisherPayloads(t *testing.T) {
	p, got := recordingPublisher()
	runID := uuid.New()

	p.ActorFired(context.Background(), engine.Event{
		RunID:   runID,
		Name:    "call",
		Role:    graph.RoleGather,
		Context: 3,
		Call:    &value.Call{Callee: "fact", BranchID: 7},
	})
	p.RunFinished(context.Background(), engine.Summary{
		RunID:    runID,
		Context:  3,
		Firings:  12,
		Duration: 5 * time.Millisecond,
		Err:      fault.Newf(fault.StackUnderflow, "empty"),
	})
	p.Close()

	require.Len(t, *got, 2)

	fired := (*got)[0]
	assert.Equal(t, EventActorFired, fired.event)
	assert.Equal(t, runID.String(), fired.payload["run_id"])
	assert.Equal(t, "gather", fired.payload["role"])
	assert.Equal(t, "fact", fired.payload["call"])
	assert.Equal(t, 7, fired.payload["return_address"])
	assert.Equal(t, uint64(3), fired.payload["context"])

	finished := (*got)[1]
	assert.Equal(t, EventRunFinished, finished.event)
	assert.Equal(t, false, finished.payload["ok"])
	assert.Equal(t, "StackUnderflow", finished.payload["kind"])
	assert.Equal(t, int64(12), finished.payload["firings"])
	assert.Equal(t, int64(5), finished.payload["duration_ms"])
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	Logging{}.ActorFired(ctx, engine.Event{Name: "sw", Role: graph.RoleSwitch, Branch: 1})
	Logging{}.ActorFired(ctx, engine.Event{Name: "k", Role: graph.RoleKernel, Drained: true})
	Logging{}.RunFinished(ctx, engine.Summary{Firings: 4})
	Logging{}.RunFinished(ctx, engine.Summary{Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, `msg="Actor fired." actor=sw role=switch`)
	assert.Contains(t, out, `msg="Actor round drained." actor=k`)
	assert.Contains(t, out, `msg="Run completed." firings=4`)
	assert.Contains(t, out, `msg="Run failed."`)
}
