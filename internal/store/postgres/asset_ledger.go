package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

// AssetLedger implements domain.AssetLedger on the balances table. The
// balance column carries a CHECK (balance >= 0) constraint, so even a buggy
// caller cannot overdraw an account.
type AssetLedger struct {
	q querier
}

// NewAssetLedger creates an AssetLedger over the given querier.
func NewAssetLedger(q querier) *AssetLedger {
	return &AssetLedger{q: q}
}

// Transfer moves amount from one account to another. The debit is a
// conditional UPDATE guarded by balance >= amount; zero rows affected means
// the source cannot cover the transfer.
func (l *AssetLedger) Transfer(ctx context.Context, asset, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if err := l.debit(ctx, asset, from, amount); err != nil {
		return err
	}
	return l.credit(ctx, asset, to, amount)
}

// Mint credits an account out of thin air. Reserved for deposits arriving
// from outside the ledger.
func (l *AssetLedger) Mint(ctx context.Context, asset, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	return l.credit(ctx, asset, to, amount)
}

// Burn destroys amount held by an account.
func (l *AssetLedger) Burn(ctx context.Context, asset, from string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	return l.debit(ctx, asset, from, amount)
}

// Balance returns the account's balance, zero for unknown accounts.
func (l *AssetLedger) Balance(ctx context.Context, asset, account string) (uint64, error) {
	const query = `SELECT balance FROM balances WHERE asset = $1 AND account = $2`
	var bal int64
	err := l.q.QueryRow(ctx, query, asset, account).Scan(&bal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: balance %s/%s: %w", asset, account, err)
	}
	return uint64(bal), nil
}

func (l *AssetLedger) debit(ctx context.Context, asset, account string, amount uint64) error {
	const query = `
		UPDATE balances SET balance = balance - $3
		WHERE asset = $1 AND account = $2 AND balance >= $3`
	tag, err := l.q.Exec(ctx, query, asset, account, int64(amount))
	if err != nil {
		return fmt.Errorf("postgres: debit %s/%s: %w", asset, account, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

func (l *AssetLedger) credit(ctx context.Context, asset, account string, amount uint64) error {
	const query = `
		INSERT INTO balances (asset, account, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset, account)
		DO UPDATE SET balance = balances.balance + EXCLUDED.balance`
	if _, err := l.q.Exec(ctx, query, asset, account, int64(amount)); err != nil {
		return fmt.Errorf("postgres: credit %s/%s: %w", asset, account, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.AssetLedger = (*AssetLedger)(nil)
