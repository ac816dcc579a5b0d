package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/userhub/userhub/internal/domain/repository"
)

// querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so repositories can run against the pool or inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager runs a unit of work inside a single database transaction.
// The callback receives a UserRepository bound to that transaction; if the
// callback returns an error the transaction is rolled back, so a failure
// partway through a batch of membership mutations leaves no partial state.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(users repository.UserRepository) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&UserRepository{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
