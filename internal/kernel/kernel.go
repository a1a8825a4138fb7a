// Package kernel defines how compute kernels are launched and the retrying
// launcher that wraps flaky ones.
package kernel

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/value"
)

var (
	// ErrUnknown is returned when no kernel is registered under a name.
	ErrUnknown = errors.New("unknown kernel")
	// ErrArity is returned when a kernel receives or produces the wrong number
	// of tensors.
	ErrArity = errors.New("kernel arity mismatch")
)

// Launcher runs a named kernel over input handles.
type Launcher interface {
	Launch(ctx context.Context, kernel string, inputs []value.TensorHandle) ([]value.TensorHandle, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, kernel string, inputs []value.TensorHandle) ([]value.TensorHandle, error)

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context, kernel string, inputs []value.TensorHandle) ([]value.TensorHandle, error) {
	return f(ctx, kernel, inputs)
}

// RetryConfig bounds the retries of a failing launch.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Retry wraps next so that failed launches are retried with exponential
// backoff. ErrUnknown and ErrArity are never retried, and a cancelled context
// stops retrying. With MaxRetries of zero next is returned unchanged.
func Retry(next Launcher, cfg RetryConfig) Launcher {
	if cfg.MaxRetries == 0 {
		return next
	}
	return &retrying{next: next, cfg: cfg}
}

type retrying struct {
	next Launcher
	cfg  RetryConfig
}

func (r *retrying) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if r.cfg.InitialInterval > 0 {
		eb.InitialInterval = r.cfg.InitialInterval
	}
	if r.cfg.MaxInterval > 0 {
		eb.MaxInterval = r.cfg.MaxInterval
	}
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, r.cfg.MaxRetries), ctx)
}

func (r *retrying) Launch(ctx context.Context, kernel string, inputs []value.TensorHandle) ([]value.TensorHandle, error) {
	var out []value.TensorHandle
	op := func() error {
		res, err := r.next.Launch(ctx, kernel, inputs)
		if err != nil {
			if errors.Is(err, ErrUnknown) || errors.Is(err, ErrArity) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = res
		return nil
	}
	notify := func(err error, wait time.Duration) {
		ctxlog.FromContext(ctx).Warn("Kernel launch failed, retrying.", "kernel", kernel, "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(op, r.newBackOff(ctx), notify); err != nil {
		return nil, err
	}
	return out, nil
}
