package pgsql

import (
	"context"
	"errors"

	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/mining_ledger/internal/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx, so every
// repository runs unchanged inside or outside a session.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ DBTX = (*pgxpool.Pool)(nil)
	_ DBTX = (pgx.Tx)(nil)
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db DBTX
}

// PgxTxManager opens serializable sessions on a pool.
type PgxTxManager struct {
	Pool *pgxpool.Pool
}

var _ portsrepo.TransactionManager = (*PgxTxManager)(nil)

func newPgxTxManager(pool *pgxpool.Pool) *PgxTxManager {
	return &PgxTxManager{Pool: pool}
}

// RunInTx runs work inside one SERIALIZABLE transaction. Serialization
// failures and deadlocks, whether raised by a statement or at commit, come
// back wrapped in apperrors.ErrTransient.
func (m *PgxTxManager) RunInTx(ctx context.Context, work portsrepo.UnitOfWork) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	defer m.Rollback(ctx, tx)

	if err := work(ctx, newPgxStore(tx)); err != nil {
		return err
	}
	return m.Commit(ctx, tx)
}

// Begin starts a new serializable database transaction
func (m *PgxTxManager) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := m.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, translateError(err, "failed to begin transaction")
	}
	return tx, nil
}

// Commit commits a transaction
func (m *PgxTxManager) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return translateError(err, "failed to commit transaction")
	}
	return nil
}

// Rollback rolls back a transaction. It is a no-op after a successful commit.
func (m *PgxTxManager) Rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		middleware.GetLoggerFromCtx(ctx).Error("failed to rollback transaction", "error", err)
	}
}
