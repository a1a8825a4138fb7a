package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	ctx = With(ctx, "run_id", "r1")
	FromContext(ctx).Info("fired", "actor", "main.out")

	assert.Contains(t, buf.String(), "run_id=r1")
	assert.Contains(t, buf.String(), "actor=main.out")
}

func TestFromContextPanicsWithoutLogger(t *testing.T) {
	assert.Panics(t, func() { FromContext(context.Background()) })
}
