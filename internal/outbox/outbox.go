// Package outbox is the alternate, durable EventBus implementation
// spec.md §9 invites operators to substitute when they need stronger
// durability than the in-process ants-backed bus: events are enqueued as
// River jobs inside the same pgx.Tx the lifecycle operation writes
// through, so "buffered in the transaction, emitted only on commit" is
// enforced by Postgres itself rather than by buffering in memory.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"ringi.sh/ringi/internal/domain"
	"ringi.sh/ringi/internal/pkg/logger"
)

// EventArgs is the River job payload for one dispatched domain event.
type EventArgs struct {
	Type        string    `json:"type"`
	ExpenseID   int64     `json:"expenseId"`
	ActorID     string    `json:"actorId"`
	TraceID     string    `json:"traceId"`
	OccurredAt  time.Time `json:"occurredAt"`
	ApplicantID string    `json:"applicantId,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// Kind identifies this job type to River.
func (EventArgs) Kind() string { return "expense_event" }

// InsertOpts puts event jobs on the default queue with no special
// uniqueness constraint — duplicates are expected under retry and
// subscribers must already tolerate at-least-once delivery.
func (EventArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: river.QueueDefault}
}

func toArgs(event domain.Event) EventArgs {
	return EventArgs{
		Type:        string(event.Type),
		ExpenseID:   event.ExpenseID,
		ActorID:     event.ActorID,
		TraceID:     event.TraceID,
		OccurredAt:  event.OccurredAt,
		ApplicantID: event.ApplicantID,
		Reason:      event.Reason,
	}
}

func toEvent(args EventArgs) domain.Event {
	return domain.Event{
		Type:        domain.EventType(args.Type),
		ExpenseID:   args.ExpenseID,
		ActorID:     args.ActorID,
		TraceID:     args.TraceID,
		OccurredAt:  args.OccurredAt,
		ApplicantID: args.ApplicantID,
		Reason:      args.Reason,
	}
}

// Handler processes one delivered event. See eventbus.Handler — same
// contract, different transport.
type Handler func(ctx context.Context, event domain.Event) error

type subscription struct {
	name    string
	handler Handler
}

// Bus is the River-backed EventBus/TransactionalEventBus implementation.
type Bus struct {
	pool        *pgxpool.Pool
	riverClient *river.Client[pgx.Tx]
	subscribers map[domain.EventType][]subscription
}

// NewBus wraps riverClient as an outbox Bus. pool is used only for the
// non-transactional Publish path. riverClient may be nil at construction
// time — bootstrap needs to register this Bus's EventWorker before the
// River client that depends on that worker registry can be created; call
// SetRiverClient once it exists.
func NewBus(pool *pgxpool.Pool, riverClient *river.Client[pgx.Tx]) *Bus {
	return &Bus{
		pool:        pool,
		riverClient: riverClient,
		subscribers: make(map[domain.EventType][]subscription),
	}
}

// SetRiverClient binds the River client this Bus enqueues jobs through,
// once it exists. EnqueueTx/Publish called before this panic with a nil
// pointer dereference — bootstrap always calls it before serving traffic.
func (b *Bus) SetRiverClient(riverClient *river.Client[pgx.Tx]) {
	b.riverClient = riverClient
}

// Subscribe registers handler under name for eventType.
func (b *Bus) Subscribe(eventType domain.EventType, name string, handler Handler) {
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{name: name, handler: handler})
}

// EnqueueTx inserts one durable job per event inside tx — the insert is
// only visible to other transactions once tx commits, which is exactly
// "buffered in the transaction, emitted only if it commits" for this
// implementation.
func (b *Bus) EnqueueTx(ctx context.Context, tx pgx.Tx, events ...domain.Event) error {
	for _, event := range events {
		if _, err := b.riverClient.InsertTx(ctx, tx, toArgs(event), nil); err != nil {
			return fmt.Errorf("enqueue event %s for expense %d: %w", event.Type, event.ExpenseID, err)
		}
	}
	return nil
}

// Publish enqueues events outside of any caller transaction, for callers
// that only hold the EventBus interface.
func (b *Bus) Publish(ctx context.Context, events ...domain.Event) error {
	for _, event := range events {
		if _, err := b.riverClient.Insert(ctx, toArgs(event), nil); err != nil {
			return fmt.Errorf("enqueue event %s for expense %d: %w", event.Type, event.ExpenseID, err)
		}
	}
	return nil
}

// EventWorker delivers one durably-enqueued event to every subscriber
// registered for its type. Each subscriber's failure is logged and
// isolated from its peers; EventWorker itself always reports success so a
// partially-delivered event is not retried indefinitely against
// subscribers that already succeeded.
type EventWorker struct {
	river.WorkerDefaults[EventArgs]
	bus *Bus
}

// NewEventWorker builds the River worker backing bus's durable dispatch.
func NewEventWorker(bus *Bus) *EventWorker {
	return &EventWorker{bus: bus}
}

// Work delivers the job's event to every registered subscriber.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventArgs]) error {
	event := toEvent(job.Args)
	for _, sub := range w.bus.subscribers[event.Type] {
		if err := sub.handler(ctx, event); err != nil {
			logger.Error("outbox event subscriber failed",
				zap.String("subscriber", sub.name),
				zap.String("eventType", string(event.Type)),
				zap.Int64("expenseId", event.ExpenseID),
				zap.String("traceId", event.TraceID),
				zap.Error(err),
			)
		}
	}
	return nil
}
