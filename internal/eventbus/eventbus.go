// Package eventbus is the in-process implementation of EventBus (C6):
// publish-after-commit semantics, asynchronous per-subscriber dispatch on a
// bounded ants pool, and isolation between subscribers so one slow/failing
// one never blocks another.
package eventbus

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ringi.sh/ringi/internal/domain"
	"ringi.sh/ringi/internal/pkg/logger"
	"ringi.sh/ringi/internal/pkg/worker"
)

// Handler processes one event. A returned error is logged with the
// event's trace id; it never propagates back to the publisher — by the
// time a handler runs, the originating transaction has already committed.
type Handler func(ctx context.Context, event domain.Event) error

// Config sizes the dispatch pool and the per-task budget. Core/Max mirror
// spec.md's "core=5, max=10" language; ants models this as one pool capped
// at Max, whose idle goroutines are purged back down after ExpiryDuration
// rather than tracking a literal warm "core" count.
type Config struct {
	Core          int
	Max           int
	QueueCapacity int
	TaskTimeout   time.Duration
}

// DefaultConfig matches spec.md §4.5's defaults.
func DefaultConfig() Config {
	return Config{Core: 5, Max: 10, QueueCapacity: 100, TaskTimeout: 10 * time.Second}
}

type subscription struct {
	name    string
	handler Handler
}

// Bus is the ants-backed EventBus.
type Bus struct {
	pool        *worker.Pool
	sem         chan struct{}
	taskTimeout time.Duration

	subscribers map[domain.EventType][]subscription
}

// New builds a Bus. ctx bounds the pool's own lifetime; Shutdown should
// still be called for a clean drain.
func New(ctx context.Context, cfg Config) (*Bus, error) {
	if cfg.Max <= 0 {
		cfg.Max = 10
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 100
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 10 * time.Second
	}

	pool, err := worker.New(ctx, worker.Config{
		Name:           "eventbus",
		Size:           cfg.Max,
		ExpiryDuration: 30 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return &Bus{
		pool:        pool,
		sem:         make(chan struct{}, cfg.QueueCapacity),
		taskTimeout: cfg.TaskTimeout,
		subscribers: make(map[domain.EventType][]subscription),
	}, nil
}

// Subscribe registers handler under name for eventType. Subscribers are
// dispatched in registration order, but no ordering is guaranteed between
// them once running concurrently on the pool.
func (b *Bus) Subscribe(eventType domain.EventType, name string, handler Handler) {
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{name: name, handler: handler})
}

// Publish dispatches every subscriber registered against each event's type.
// It returns immediately; subscriber failures are logged, never returned.
func (b *Bus) Publish(_ context.Context, events ...domain.Event) error {
	for _, event := range events {
		for _, sub := range b.subscribers[event.Type] {
			b.dispatch(event, sub)
		}
	}
	return nil
}

// dispatch submits one (event, subscriber) pair to the pool, falling back
// to an inline synchronous call when the queue is saturated so the
// subscriber still runs — it is only ever delayed, never dropped.
func (b *Bus) dispatch(event domain.Event, sub subscription) {
	select {
	case b.sem <- struct{}{}:
		submitted := b.pool.TrySubmit(func() {
			defer func() { <-b.sem }()
			b.run(event, sub)
		})
		if !submitted {
			<-b.sem
			b.run(event, sub)
		}
	default:
		b.run(event, sub)
	}
}

func (b *Bus) run(event domain.Event, sub subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), b.taskTimeout)
	defer cancel()

	if err := sub.handler(ctx, event); err != nil {
		logger.Error("event subscriber failed",
			zap.String("subscriber", sub.name),
			zap.String("eventType", string(event.Type)),
			zap.Int64("expenseId", event.ExpenseID),
			zap.String("traceId", event.TraceID),
			zap.Error(err),
		)
	}
}

// Shutdown releases the dispatch pool, waiting up to timeout for in-flight
// subscribers to finish.
func (b *Bus) Shutdown(timeout time.Duration) {
	b.pool.Shutdown(timeout)
}
