// Package audit is AuditStore (C4): an append-only log of expense state
// transitions. Rows are never updated or deleted; ExpenseLifecycle shares
// one pgx.Tx between this store and internal/store's ExpenseStore so "one
// successful mutation implies exactly one audit row" holds even under a
// crash between the two statements.
package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ringi.sh/ringi/internal/domain"
	apperrors "ringi.sh/ringi/internal/pkg/errors"
	"ringi.sh/ringi/internal/store"
)

// Store is AuditStore.
type Store struct {
	db store.DBTX
}

// NewStore wraps db (a pool or a pgx.Tx) as an audit Store.
func NewStore(db store.DBTX) *Store {
	return &Store{db: db}
}

// WithTx rebinds the store to run inside tx.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{db: tx}
}

// Append inserts one immutable row and assigns its id.
func (s *Store) Append(ctx context.Context, entry domain.AuditEntry) (int64, error) {
	const q = `
		INSERT INTO expense_audit_log (expense_id, actor_id, action, before_status, after_status, note, trace_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var beforeStatus *string
	if entry.BeforeStatus != nil {
		s := string(*entry.BeforeStatus)
		beforeStatus = &s
	}

	var id int64
	err := s.db.QueryRow(ctx, q,
		entry.ExpenseID, entry.ActorID, string(entry.Action), beforeStatus, string(entry.AfterStatus),
		entry.Note, entry.TraceID, entry.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.StorageError(fmt.Errorf("append audit entry: %w", err), false)
	}
	return id, nil
}

// FindByExpense returns every row for expenseId, ordered by (createdAt ASC, id ASC).
func (s *Store) FindByExpense(ctx context.Context, expenseID int64) ([]domain.AuditEntry, error) {
	const q = `
		SELECT id, expense_id, actor_id, action, before_status, after_status, note, trace_id, created_at
		FROM expense_audit_log
		WHERE expense_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(ctx, q, expenseID)
	if err != nil {
		return nil, apperrors.StorageError(fmt.Errorf("find audit entries: %w", err), false)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			entry        domain.AuditEntry
			action       string
			afterStatus  string
			beforeStatus *string
		)
		if err := rows.Scan(
			&entry.ID, &entry.ExpenseID, &entry.ActorID, &action, &beforeStatus, &afterStatus,
			&entry.Note, &entry.TraceID, &entry.CreatedAt,
		); err != nil {
			return nil, apperrors.StorageError(fmt.Errorf("scan audit entry: %w", err), false)
		}
		entry.Action = domain.Action(action)
		entry.AfterStatus = domain.Status(afterStatus)
		if beforeStatus != nil {
			st := domain.Status(*beforeStatus)
			entry.BeforeStatus = &st
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StorageError(fmt.Errorf("iterate audit entries: %w", err), false)
	}
	return entries, nil
}
