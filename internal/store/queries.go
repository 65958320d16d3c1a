// Package store is ExpenseStore (C3): durable persistence of expenses with
// version-conditional updates. There is no generated query layer in this
// tree — sqlc's generator output never made it into the retrieval pack, so
// the Queries type below is hand-written in the same shape sqlc would have
// produced: a DBTX seam that accepts either a pool or a transaction, and a
// WithTx constructor for binding the same queries inside one pgx.Tx.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so Queries methods
// run unchanged whether called standalone or inside ExpenseLifecycle's
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries bundles the SQL operations ExpenseStore needs over one DBTX.
type Queries struct {
	db DBTX
}

// New builds Queries over a pool or any other DBTX.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx rebinds the same queries to run inside tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}
