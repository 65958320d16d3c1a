// Package worker provides goroutine pool management.
//
// Naked goroutines are forbidden outside main's own lifecycle loop;
// concurrency elsewhere goes through a Pool with context propagation.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"ringi.sh/ringi/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware task function.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission and a named identity
// for logging.
type Pool struct {
	pool *ants.Pool
	name string

	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// Config contains Pool configuration. Size is the maximum number of
// concurrently running goroutines; ExpiryDuration controls how long an
// idle worker is kept before being purged.
type Config struct {
	Name            string
	Size            int
	ExpiryDuration  time.Duration
	PanicIsolated   bool // reserved for future per-task panic policy
}

// New creates a single named Pool.
func New(ctx context.Context, cfg Config) (*Pool, error) {
	serviceCtx, serviceCancel := context.WithCancel(ctx)

	expiry := cfg.ExpiryDuration
	if expiry <= 0 {
		expiry = 10 * time.Second
	}

	panicHandler := func(p interface{}) {
		logger.Error("worker panic recovered",
			zap.String("pool", cfg.Name),
			zap.Any("panic", p),
			zap.Stack("stack"),
		)
	}

	antsPool, err := ants.NewPool(cfg.Size,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(true),
		ants.WithExpiryDuration(expiry),
	)
	if err != nil {
		serviceCancel()
		return nil, err
	}

	return &Pool{
		pool:          antsPool,
		name:          cfg.Name,
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}, nil
}

// Submit submits a context-aware task. The task receives the caller's
// context and should check ctx.Done() at blocking points. If the context
// is already cancelled, Submit returns ctx.Err() immediately without
// submitting.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return p.pool.Submit(func() {
		select {
		case <-ctx.Done():
			logger.Debug("task skipped: context cancelled",
				zap.String("pool", p.name),
				zap.Error(ctx.Err()),
			)
			return
		default:
		}
		task(ctx)
	})
}

// TrySubmit attempts a non-blocking submission, returning false immediately
// if every worker is busy and the pool's internal queue would otherwise
// block. Callers use this to detect saturation and fall back to running
// the task inline.
func (p *Pool) TrySubmit(task func()) bool {
	return p.pool.Submit(task) == nil
}

// Running returns the number of currently running goroutines.
func (p *Pool) Running() int { return p.pool.Running() }

// Free returns the number of available goroutine slots.
func (p *Pool) Free() int { return p.pool.Free() }

// Cap returns the pool's configured capacity.
func (p *Pool) Cap() int { return p.pool.Cap() }

// Shutdown gracefully releases the pool, cancelling its service context
// first so any detached work notices, then waiting up to timeout for
// running tasks to finish.
func (p *Pool) Shutdown(timeout time.Duration) {
	p.serviceCancel()
	if err := p.pool.ReleaseTimeout(timeout); err != nil {
		logger.Warn("pool shutdown timeout", zap.String("pool", p.name), zap.Error(err))
	}
}

// Metrics returns pool metrics for observability.
func (p *Pool) Metrics() map[string]int {
	return map[string]int{
		"running": p.pool.Running(),
		"free":    p.pool.Free(),
		"cap":     p.pool.Cap(),
	}
}
