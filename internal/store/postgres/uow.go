package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

// UnitOfWork implements domain.UnitOfWork on a pgx transaction. Every
// engine operation runs inside exactly one serializable-enough transaction:
// either all of its registry and ledger writes commit, or none do. Row
// locking on the bonds and balances tables serializes concurrent calls that
// touch the same bond or account.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork creates a UnitOfWork over the given pool.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// Atomically begins a transaction, runs fn against tx-bound stores, and
// commits. Any error from fn rolls the transaction back and is returned
// unwrapped so domain sentinels survive errors.Is checks.
func (u *UnitOfWork) Atomically(ctx context.Context, fn func(ctx context.Context, s domain.Stores) error) error {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	if err := fn(ctx, newStores(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit tx: %w", err)
	}
	return nil
}

// newStores binds all stores to the same querier (pool or transaction).
func newStores(q querier) domain.Stores {
	return domain.Stores{
		Bonds:  NewBondRegistry(q),
		Ledger: NewAssetLedger(q),
		Claims: NewClaimStore(q),
		Audit:  NewAuditStore(q),
	}
}

// Compile-time interface check.
var _ domain.UnitOfWork = (*UnitOfWork)(nil)
