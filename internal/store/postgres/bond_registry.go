package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// BondRegistry implements domain.BondRegistry on the bonds table. Bond ids
// come from a dedicated sequence so they are never reused after deletion.
type BondRegistry struct {
	q querier
}

// NewBondRegistry creates a BondRegistry over the given querier.
func NewBondRegistry(q querier) *BondRegistry {
	return &BondRegistry{q: q}
}

// Get returns the bond with the given id. The row is locked FOR UPDATE when
// running inside a transaction, which linearizes concurrent calls on the
// same bond.
func (r *BondRegistry) Get(ctx context.Context, id uint64) (domain.Bond, error) {
	const query = `
		SELECT id, asset, amount, maturity
		FROM bonds WHERE id = $1 FOR UPDATE`
	var b domain.Bond
	var idRaw, amountRaw int64
	err := r.q.QueryRow(ctx, query, int64(id)).Scan(&idRaw, &b.Asset, &amountRaw, &b.Maturity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Bond{}, domain.ErrUnknownBond
		}
		return domain.Bond{}, fmt.Errorf("postgres: get bond %d: %w", id, err)
	}
	b.ID = uint64(idRaw)
	b.Amount = uint64(amountRaw)
	return b, nil
}

// Insert stores a new bond record.
func (r *BondRegistry) Insert(ctx context.Context, b domain.Bond) error {
	const query = `
		INSERT INTO bonds (id, asset, amount, maturity)
		VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(ctx, query, int64(b.ID), b.Asset, int64(b.Amount), b.Maturity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrBondExists
		}
		return fmt.Errorf("postgres: insert bond %d: %w", b.ID, err)
	}
	return nil
}

// UpdateAmount overwrites the remaining principal, deleting the record when
// it reaches zero so no zero-balance bond ever persists.
func (r *BondRegistry) UpdateAmount(ctx context.Context, id uint64, newAmount uint64) error {
	if newAmount == 0 {
		tag, err := r.q.Exec(ctx, `DELETE FROM bonds WHERE id = $1`, int64(id))
		if err != nil {
			return fmt.Errorf("postgres: delete bond %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUnknownBond
		}
		return nil
	}

	tag, err := r.q.Exec(ctx,
		`UPDATE bonds SET amount = $2 WHERE id = $1`,
		int64(id), int64(newAmount),
	)
	if err != nil {
		return fmt.Errorf("postgres: update bond %d amount: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUnknownBond
	}
	return nil
}

// SetMaturity overwrites the maturity timestamp without touching the amount.
func (r *BondRegistry) SetMaturity(ctx context.Context, id uint64, maturity int64) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE bonds SET maturity = $2 WHERE id = $1`,
		int64(id), maturity,
	)
	if err != nil {
		return fmt.Errorf("postgres: set bond %d maturity: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUnknownBond
	}
	return nil
}

// NextID allocates a fresh bond id from the registry sequence.
func (r *BondRegistry) NextID(ctx context.Context) (uint64, error) {
	var id int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('bond_id_seq')`).Scan(&id); err != nil {
		return 0, fmt.Errorf("postgres: next bond id: %w", err)
	}
	return uint64(id), nil
}

// List returns a page of bonds. Order is not guaranteed.
func (r *BondRegistry) List(ctx context.Context, opts domain.ListOpts) ([]domain.Bond, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, asset, amount, maturity
		FROM bonds ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bonds: %w", err)
	}
	defer rows.Close()

	var list []domain.Bond
	for rows.Next() {
		b, err := scanBond(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// ForEach streams every live bond through fn without materializing the full
// set.
func (r *BondRegistry) ForEach(ctx context.Context, fn func(domain.Bond) error) error {
	rows, err := r.q.Query(ctx, `SELECT id, asset, amount, maturity FROM bonds`)
	if err != nil {
		return fmt.Errorf("postgres: iterate bonds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBond(rows)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanBond(rows pgx.Rows) (domain.Bond, error) {
	var b domain.Bond
	var idRaw, amountRaw int64
	if err := rows.Scan(&idRaw, &b.Asset, &amountRaw, &b.Maturity); err != nil {
		return domain.Bond{}, fmt.Errorf("postgres: scan bond: %w", err)
	}
	b.ID = uint64(idRaw)
	b.Amount = uint64(amountRaw)
	return b, nil
}

// Compile-time interface check.
var _ domain.BondRegistry = (*BondRegistry)(nil)
