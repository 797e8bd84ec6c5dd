package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

// ClaimStore implements domain.ClaimStore on the claims table. A claim row
// exists only while its amount is positive.
type ClaimStore struct {
	q querier
}

// NewClaimStore creates a ClaimStore over the given querier.
func NewClaimStore(q querier) *ClaimStore {
	return &ClaimStore{q: q}
}

// Credit adds amount to the account's claim on the bond.
func (c *ClaimStore) Credit(ctx context.Context, account string, bondID uint64, amount uint64) error {
	if amount == 0 {
		return nil
	}
	const query = `
		INSERT INTO claims (account, bond_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (account, bond_id)
		DO UPDATE SET amount = claims.amount + EXCLUDED.amount`
	if _, err := c.q.Exec(ctx, query, account, int64(bondID), int64(amount)); err != nil {
		return fmt.Errorf("postgres: credit claim %s/%d: %w", account, bondID, err)
	}
	return nil
}

// Debit removes amount from the account's claim, deleting the row at zero.
func (c *ClaimStore) Debit(ctx context.Context, account string, bondID uint64, amount uint64) error {
	const debit = `
		UPDATE claims SET amount = amount - $3
		WHERE account = $1 AND bond_id = $2 AND amount >= $3`
	tag, err := c.q.Exec(ctx, debit, account, int64(bondID), int64(amount))
	if err != nil {
		return fmt.Errorf("postgres: debit claim %s/%d: %w", account, bondID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientClaim
	}

	const sweep = `DELETE FROM claims WHERE account = $1 AND bond_id = $2 AND amount = 0`
	if _, err := c.q.Exec(ctx, sweep, account, int64(bondID)); err != nil {
		return fmt.Errorf("postgres: sweep claim %s/%d: %w", account, bondID, err)
	}
	return nil
}

// Get returns the account's claim on the bond, zero if none.
func (c *ClaimStore) Get(ctx context.Context, account string, bondID uint64) (uint64, error) {
	const query = `SELECT amount FROM claims WHERE account = $1 AND bond_id = $2`
	var amount int64
	err := c.q.QueryRow(ctx, query, account, int64(bondID)).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: get claim %s/%d: %w", account, bondID, err)
	}
	return uint64(amount), nil
}

// Compile-time interface check.
var _ domain.ClaimStore = (*ClaimStore)(nil)
