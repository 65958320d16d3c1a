package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "ringi.sh/ringi/internal/pkg/errors"

	"ringi.sh/ringi/internal/domain"
)

// ExpenseStore is C3: Insert, FindByID, Search, ConditionalUpdate.
type ExpenseStore struct {
	q *Queries
}

// NewExpenseStore wraps db (a pool or a pgx.Tx) as an ExpenseStore.
func NewExpenseStore(db DBTX) *ExpenseStore {
	return &ExpenseStore{q: New(db)}
}

// WithTx rebinds the store to run inside tx. ExpenseLifecycle calls this to
// share one transaction across ExpenseStore and AuditStore.
func (s *ExpenseStore) WithTx(tx pgx.Tx) *ExpenseStore {
	return &ExpenseStore{q: s.q.WithTx(tx)}
}

// Insert persists draft (status=DRAFT, version=0) and returns the assigned id.
func (s *ExpenseStore) Insert(ctx context.Context, draft *domain.Expense) (int64, error) {
	const q = `
		INSERT INTO expenses (applicant_id, title, amount, currency, status, submitted_at, created_at, updated_at, version)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int64
	err := s.q.db.QueryRow(ctx, q,
		draft.ApplicantID, draft.Title, draft.Amount, draft.Currency, string(draft.Status),
		draft.SubmittedAt, draft.CreatedAt, draft.UpdatedAt, draft.Version,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.StorageError(fmt.Errorf("insert expense: %w", err), isRetryable(err))
	}
	return id, nil
}

// FindByID returns the full current state of an expense, including version.
func (s *ExpenseStore) FindByID(ctx context.Context, id int64) (*domain.Expense, error) {
	const q = `
		SELECT id, applicant_id, title, amount::text, currency, status, submitted_at, created_at, updated_at, version
		FROM expenses WHERE id = $1`

	exp, err := scanExpenseRows(s.q.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFoundError("expense not found")
	}
	if err != nil {
		return nil, apperrors.StorageError(fmt.Errorf("find expense: %w", err), isRetryable(err))
	}
	return exp, nil
}

// ConditionalUpdate applies post only if the row's current version equals
// expectedVersion, returning applied=true on success and applied=false on
// VersionMismatch. post carries the complete post-image.
func (s *ExpenseStore) ConditionalUpdate(ctx context.Context, id int64, expectedVersion int64, post domain.Expense) (applied bool, err error) {
	const q = `
		UPDATE expenses
		SET status = $1, submitted_at = $2, updated_at = $3, version = $4
		WHERE id = $5 AND version = $6`

	tag, err := s.q.db.Exec(ctx, q,
		string(post.Status), post.SubmittedAt, post.UpdatedAt, post.Version,
		id, expectedVersion,
	)
	if err != nil {
		return false, apperrors.StorageError(fmt.Errorf("conditional update expense: %w", err), isRetryable(err))
	}
	return tag.RowsAffected() == 1, nil
}

// Search returns a page of expenses matching criteria under restriction,
// ordered by sort, plus the total row count under the same filter.
func (s *ExpenseStore) Search(ctx context.Context, criteria Criteria, restriction Restriction, sort Sort, page Page) ([]domain.Expense, int, error) {
	where, args := buildWhere(criteria, restriction)

	limit := page.Limit
	if limit < 1 {
		limit = 1
	}

	countQ := "SELECT count(*) FROM expenses" + where
	var total int
	if err := s.q.db.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.StorageError(fmt.Errorf("count expenses: %w", err), isRetryable(err))
	}

	listArgs := append(append([]any{}, args...), limit, page.Offset)
	listQ := fmt.Sprintf(
		`SELECT id, applicant_id, title, amount::text, currency, status, submitted_at, created_at, updated_at, version
		 FROM expenses%s
		 ORDER BY %s %s, id %s
		 LIMIT $%d OFFSET $%d`,
		where, sort.Field, sort.Dir, sort.Dir, len(args)+1, len(args)+2,
	)

	rows, err := s.q.db.Query(ctx, listQ, listArgs...)
	if err != nil {
		return nil, 0, apperrors.StorageError(fmt.Errorf("search expenses: %w", err), isRetryable(err))
	}
	defer rows.Close()

	var items []domain.Expense
	for rows.Next() {
		exp, err := scanExpenseRows(rows)
		if err != nil {
			return nil, 0, apperrors.StorageError(fmt.Errorf("scan expense row: %w", err), false)
		}
		items = append(items, *exp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.StorageError(fmt.Errorf("iterate expense rows: %w", err), isRetryable(err))
	}

	return items, total, nil
}

// buildWhere composes a parameterized WHERE clause (including the leading
// space, empty string if unrestricted and no criteria apply) and its
// positional args, starting at $1.
func buildWhere(c Criteria, r Restriction) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if !r.Unrestricted {
		add("applicant_id = $%d", r.RestrictToApplicantID)
	} else if c.ApplicantID != nil {
		add("applicant_id = $%d", *c.ApplicantID)
	}
	if c.Status != nil {
		add("status = $%d", string(*c.Status))
	}
	if c.Title != nil && *c.Title != "" {
		add("title ILIKE $%d", "%"+*c.Title+"%")
	}
	if c.AmountMin != nil {
		add("amount >= $%d::numeric", *c.AmountMin)
	}
	if c.AmountMax != nil {
		add("amount <= $%d::numeric", *c.AmountMax)
	}
	if c.SubmittedFrom != nil {
		add("submitted_at >= $%d", *c.SubmittedFrom)
	}
	if c.SubmittedTo != nil {
		add("submitted_at <= $%d", *c.SubmittedTo)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpenseRows(row rowScanner) (*domain.Expense, error) {
	var (
		exp         domain.Expense
		status      string
		submittedAt *time.Time
	)
	if err := row.Scan(
		&exp.ID, &exp.ApplicantID, &exp.Title, &exp.Amount, &exp.Currency,
		&status, &submittedAt, &exp.CreatedAt, &exp.UpdatedAt, &exp.Version,
	); err != nil {
		return nil, err
	}
	exp.Status = domain.Status(status)
	exp.SubmittedAt = submittedAt
	return &exp, nil
}

func isRetryable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
