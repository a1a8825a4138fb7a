package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/flowactor/internal/value"
)

// ErrContextBusy is returned when a run asks for a context another run holds.
var ErrContextBusy = errors.New("context is already in use")

// contextPool hands out context ids 1..size, each to one run at a time.
type contextPool struct {
	mu   sync.Mutex
	cond *sync.Cond
	size int
	free []value.Context
	busy map[value.Context]bool
}

func newContextPool(size int) *contextPool {
	p := &contextPool{size: size, busy: make(map[value.Context]bool, size)}
	p.cond = sync.NewCond(&p.mu)
	// Lowest ids are handed out first.
	for c := size; c >= 1; c-- {
		p.free = append(p.free, value.Context(c))
	}
	return p
}

// acquire blocks until a context is free or ctx ends.
func (p *contextPool) acquire(ctx context.Context) (value.Context, error) {
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.cond.Broadcast()
	})
	defer stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.free) == 0 {
		if err := ctx.Err(); err != nil {
			return value.NoContext, err
		}
		p.cond.Wait()
	}
	c := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.busy[c] = true
	return c, nil
}

// claim takes a specific context without waiting.
func (p *contextPool) claim(c value.Context) error {
	if c == value.NoContext || int(c) > p.size {
		return fmt.Errorf("context %d outside pool range 1..%d", c, p.size)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy[c] {
		return fmt.Errorf("context %d: %w", c, ErrContextBusy)
	}
	for i, f := range p.free {
		if f == c {
			p.free = append(p.free[:i], p.free[i+1:]...)
			break
		}
	}
	p.busy[c] = true
	return nil
}

func (p *contextPool) release(c value.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.busy[c] {
		return
	}
	delete(p.busy, c)
	p.free = append(p.free, c)
	p.cond.Signal()
}

// inUse returns the number of contexts currently held.
func (p *contextPool) inUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.busy)
}
