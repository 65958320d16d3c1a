// Package usecase is ExpenseLifecycle (C7): the state machine. Every
// operation here is a single transaction over ExpenseStore+AuditStore,
// followed on commit by a publish to EventBus. The pre-read FindById
// inside each operation is advisory, for classifying friendly errors and
// deriving the post-image; correctness depends entirely on the
// version-predicated update in internal/store.
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ringi.sh/ringi/internal/audit"
	"ringi.sh/ringi/internal/domain"
	apperrors "ringi.sh/ringi/internal/pkg/errors"
	"ringi.sh/ringi/internal/platform/clock"
	"ringi.sh/ringi/internal/policy"
	"ringi.sh/ringi/internal/store"
)

const maxReasonLen = 100

// EventPublisher is the minimal surface ExpenseLifecycle needs from C6.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}

// TransactionalEventPublisher is implemented by an outbox-style EventBus
// that can enqueue durably inside the same transaction as the state
// mutation. ExpenseLifecycle type-asserts for this on every operation; when
// the configured bus doesn't implement it, events are buffered in memory
// and published only after the transaction commits.
type TransactionalEventPublisher interface {
	EventPublisher
	EnqueueTx(ctx context.Context, tx pgx.Tx, events ...domain.Event) error
}

// ExpenseLifecycle orchestrates C2 (AuthorizationPolicy), C3 (ExpenseStore),
// C4 (AuditStore) and C6 (EventBus) under one transaction per operation.
type ExpenseLifecycle struct {
	pool  *pgxpool.Pool
	clock clock.Clock
	bus   EventPublisher
}

// New builds an ExpenseLifecycle.
func New(pool *pgxpool.Pool, clk clock.Clock, bus EventPublisher) *ExpenseLifecycle {
	return &ExpenseLifecycle{pool: pool, clock: clk, bus: bus}
}

// Create validates inputs, persists a new DRAFT expense, appends the CREATE
// audit row, and publishes ExpenseCreated — all in one transaction.
func (l *ExpenseLifecycle) Create(ctx context.Context, actor domain.Actor, title, amount, currency, traceID string) (*domain.Expense, error) {
	// CREATE's predicate is "any authenticated actor" — always true here,
	// since a boundary handler only reaches this call with a resolved
	// Actor — but the call still runs so every mutation goes through C2.
	if d := policy.Authorize(actor, policy.ActionCreate, nil); !d.Allowed {
		return nil, apperrors.AuthorizationError(d.Reason)
	}

	now := l.clock.Now()
	draft, err := domain.NewDraft(actor.ID, title, amount, currency, now)
	if err != nil {
		return nil, toValidationError(err)
	}

	var persisted *domain.Expense
	event := domain.NewExpenseCreated(0, actor.ID, traceID, now)

	err = l.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		id, err := store.NewExpenseStore(tx).Insert(ctx, draft)
		if err != nil {
			return err
		}
		draft.ID = id
		event.ExpenseID = id

		if _, err := audit.NewStore(tx).Append(ctx, domain.AuditEntry{
			ExpenseID:   id,
			ActorID:     actor.ID,
			Action:      domain.ActionCreate,
			AfterStatus: domain.StatusDraft,
			TraceID:     traceID,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		return l.enqueueTx(ctx, tx, &event)
	})
	if err != nil {
		return nil, err
	}

	persisted = draft
	l.publishIfBuffered(ctx, event)
	return persisted, nil
}

// Submit transitions DRAFT -> SUBMITTED.
func (l *ExpenseLifecycle) Submit(ctx context.Context, expenseID int64, actor domain.Actor, traceID string) (*domain.Expense, error) {
	var result *domain.Expense
	var event domain.Event

	err := l.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		expenseStore := store.NewExpenseStore(tx)

		pre, err := expenseStore.FindByID(ctx, expenseID)
		if err != nil {
			return err
		}

		if d := policy.Authorize(actor, policy.ActionSubmit, pre); !d.Allowed {
			return apperrors.AuthorizationError(d.Reason)
		}

		if pre.Status != domain.StatusDraft {
			return apperrors.InvalidTransition("expense is not in DRAFT status")
		}

		now := l.clock.Now()
		post := pre.Submit(now)

		applied, err := expenseStore.ConditionalUpdate(ctx, expenseID, pre.Version, post)
		if err != nil {
			return err
		}
		if !applied {
			return apperrors.ConflictError("expense was modified concurrently")
		}

		if _, err := audit.NewStore(tx).Append(ctx, domain.AuditEntry{
			ExpenseID:    expenseID,
			ActorID:      actor.ID,
			Action:       domain.ActionSubmit,
			BeforeStatus: statusPtr(domain.StatusDraft),
			AfterStatus:  domain.StatusSubmitted,
			TraceID:      traceID,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		event = domain.NewExpenseSubmitted(expenseID, actor.ID, traceID, now)
		result = &post
		return l.enqueueTx(ctx, tx, &event)
	})
	if err != nil {
		return nil, err
	}

	l.publishIfBuffered(ctx, event)
	return result, nil
}

// Approve transitions SUBMITTED -> APPROVED. expectedVersion must equal the
// persisted version or the call fails with Conflict before any write.
func (l *ExpenseLifecycle) Approve(ctx context.Context, expenseID, expectedVersion int64, actor domain.Actor, traceID string) (*domain.Expense, error) {
	return l.decide(ctx, expenseID, expectedVersion, actor, traceID, policy.ActionApprove, domain.ActionApprove, "")
}

// Reject transitions SUBMITTED -> REJECTED. reason is required, non-blank,
// and at most 100 characters; it is validated inside decide, after the
// pre-read and authorization check, so the check order for a reject on a
// nonexistent/unauthorized expense is NotFound/AuthorizationError first,
// never ValidationError.
func (l *ExpenseLifecycle) Reject(ctx context.Context, expenseID, expectedVersion int64, reason string, actor domain.Actor, traceID string) (*domain.Expense, error) {
	return l.decide(ctx, expenseID, expectedVersion, actor, traceID, policy.ActionReject, domain.ActionReject, reason)
}

// decide implements the shared Approve/Reject shape, in the order spec.md
// §4.6 mandates: pre-read (NotFound) -> authorize (AuthorizationError) ->
// reason validation on Reject (ValidationError) -> status legality
// (InvalidTransition) -> expectedVersion match (Conflict) -> apply.
func (l *ExpenseLifecycle) decide(
	ctx context.Context,
	expenseID, expectedVersion int64,
	actor domain.Actor,
	traceID string,
	authAction policy.Action,
	auditAction domain.Action,
	reason string,
) (*domain.Expense, error) {
	var result *domain.Expense
	var event domain.Event

	err := l.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		expenseStore := store.NewExpenseStore(tx)

		pre, err := expenseStore.FindByID(ctx, expenseID)
		if err != nil {
			return err
		}

		if d := policy.Authorize(actor, authAction, pre); !d.Allowed {
			return apperrors.AuthorizationError(d.Reason)
		}

		if auditAction == domain.ActionReject {
			trimmed := strings.TrimSpace(reason)
			if trimmed == "" {
				return apperrors.ValidationError("reason is required", apperrors.Detail{Field: "reason", Message: "must not be blank"})
			}
			if len(trimmed) > maxReasonLen {
				return apperrors.ValidationError("reason is too long", apperrors.Detail{
					Field:   "reason",
					Message: fmt.Sprintf("must be at most %d characters", maxReasonLen),
				})
			}
			reason = trimmed
		}

		if pre.Status != domain.StatusSubmitted {
			return apperrors.InvalidTransition("expense is not in SUBMITTED status")
		}

		if expectedVersion != pre.Version {
			return apperrors.ConflictError("expected version does not match the current expense version")
		}

		now := l.clock.Now()
		var post domain.Expense
		var afterStatus domain.Status
		if auditAction == domain.ActionApprove {
			post = pre.Approve(now)
			afterStatus = domain.StatusApproved
		} else {
			post = pre.Reject(now)
			afterStatus = domain.StatusRejected
		}

		applied, err := expenseStore.ConditionalUpdate(ctx, expenseID, expectedVersion, post)
		if err != nil {
			return err
		}
		if !applied {
			return apperrors.ConflictError("expense was modified concurrently")
		}

		var note *string
		if reason != "" {
			note = &reason
		}
		if _, err := audit.NewStore(tx).Append(ctx, domain.AuditEntry{
			ExpenseID:    expenseID,
			ActorID:      actor.ID,
			Action:       auditAction,
			BeforeStatus: statusPtr(domain.StatusSubmitted),
			AfterStatus:  afterStatus,
			Note:         note,
			TraceID:      traceID,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		if auditAction == domain.ActionApprove {
			event = domain.NewExpenseApproved(expenseID, actor.ID, pre.ApplicantID, traceID, now)
		} else {
			event = domain.NewExpenseRejected(expenseID, actor.ID, pre.ApplicantID, reason, traceID, now)
		}
		result = &post
		return l.enqueueTx(ctx, tx, &event)
	})
	if err != nil {
		return nil, err
	}

	l.publishIfBuffered(ctx, event)
	return result, nil
}

// GetAuditLog authorizes VIEW on the expense, then returns its full audit
// trail ordered by (createdAt, id).
func (l *ExpenseLifecycle) GetAuditLog(ctx context.Context, expenseID int64, actor domain.Actor) ([]domain.AuditEntry, error) {
	expense, err := store.NewExpenseStore(l.pool).FindByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if d := policy.Authorize(actor, policy.ActionView, expense); !d.Allowed {
		return nil, apperrors.AuthorizationError(d.Reason)
	}
	return audit.NewStore(l.pool).FindByExpense(ctx, expenseID)
}

// withTx runs fn inside a single pgx transaction, committing on success and
// rolling back on any error (including a panic, re-raised after rollback).
func (l *ExpenseLifecycle) withTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return apperrors.StorageError(fmt.Errorf("begin transaction: %w", err), true)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.StorageError(fmt.Errorf("commit transaction: %w", err), true)
	}
	return nil
}

// enqueueTx durably enqueues event inside tx when the bus supports it. When
// it doesn't, the event is left for publishIfBuffered to send once the
// transaction has actually committed.
func (l *ExpenseLifecycle) enqueueTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error {
	if txBus, ok := l.bus.(TransactionalEventPublisher); ok {
		if err := txBus.EnqueueTx(ctx, tx, *event); err != nil {
			return apperrors.StorageError(fmt.Errorf("enqueue event: %w", err), true)
		}
		*event = domain.Event{} // already durably enqueued; nothing left to publish in-memory
	}
	return nil
}

// publishIfBuffered publishes event when it wasn't already durably enqueued
// inside the transaction. Publish is best-effort: failures are logged by
// the bus implementation, never surfaced here.
func (l *ExpenseLifecycle) publishIfBuffered(ctx context.Context, event domain.Event) {
	if event.Type == "" {
		return
	}
	_ = l.bus.Publish(ctx, event)
}

func statusPtr(s domain.Status) *domain.Status { return &s }

func toValidationError(err error) error {
	if fe, ok := err.(domain.FieldError); ok {
		return apperrors.ValidationError(fe.Error(), apperrors.Detail{Field: fe.Field, Message: fe.Message})
	}
	return apperrors.ValidationError(err.Error())
}
