package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// BondRegistry is the single source of truth for bond records. Every
// mutation is a single atomic write; no reader observes a half-written
// record.
type BondRegistry interface {
	// Get returns the bond or ErrUnknownBond.
	Get(ctx context.Context, id uint64) (Bond, error)
	// Insert stores a new bond. ErrBondExists if the id is already present.
	Insert(ctx context.Context, b Bond) error
	// UpdateAmount overwrites the bond's remaining principal, deleting the
	// record entirely when newAmount is zero. ErrUnknownBond if absent.
	UpdateAmount(ctx context.Context, id uint64, newAmount uint64) error
	// SetMaturity overwrites the bond's maturity without touching the
	// amount. ErrUnknownBond if absent.
	SetMaturity(ctx context.Context, id uint64, maturity int64) error
	// NextID allocates a fresh bond id. IDs are monotonically increasing
	// and never reused, even after deletion.
	NextID(ctx context.Context) (uint64, error)
	// List returns a page of bonds. Order is not guaranteed; diagnostics
	// only.
	List(ctx context.Context, opts ListOpts) ([]Bond, error)
	// ForEach visits every live bond. Order is not guaranteed; diagnostics
	// only.
	ForEach(ctx context.Context, fn func(Bond) error) error
}

// AssetLedger moves fungible balances between accounts. Amounts are
// non-negative integers with no implicit rounding; an account is never
// overdrawn.
type AssetLedger interface {
	// Transfer moves amount of asset from one account to another.
	// ErrInsufficientBalance if the source cannot cover it.
	Transfer(ctx context.Context, asset, from, to string, amount uint64) error
	// Mint credits amount of asset to an account out of thin air. Reserved
	// for deposits arriving from outside the ledger.
	Mint(ctx context.Context, asset, to string, amount uint64) error
	// Burn destroys amount of asset held by an account.
	// ErrInsufficientBalance if the account cannot cover it.
	Burn(ctx context.Context, asset, from string, amount uint64) error
	// Balance returns the current balance (zero for unknown accounts).
	Balance(ctx context.Context, asset, account string) (uint64, error)
}

// ClaimStore tracks each account's redeemable right against a bond's
// remaining principal. The registry claim is the canonical representation;
// no separate token asset is minted.
type ClaimStore interface {
	// Credit adds amount to the account's claim on the bond.
	Credit(ctx context.Context, account string, bondID uint64, amount uint64) error
	// Debit removes amount from the account's claim, deleting the row when
	// it reaches zero. ErrInsufficientClaim if the claim cannot cover it.
	Debit(ctx context.Context, account string, bondID uint64, amount uint64) error
	// Get returns the account's claim on the bond (zero if none).
	Get(ctx context.Context, account string, bondID uint64) (uint64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
	// ListBefore returns entries created strictly before the cutoff, for
	// archival.
	ListBefore(ctx context.Context, before time.Time) ([]AuditEntry, error)
}

// Stores bundles every persistent collaborator an engine touches within one
// operation.
type Stores struct {
	Bonds  BondRegistry
	Ledger AssetLedger
	Claims ClaimStore
	Audit  AuditStore
}

// UnitOfWork runs fn against a transactional view of the stores. Either
// every write inside fn commits, or none does. Calls touching the same bond
// are serialized by the underlying store.
type UnitOfWork interface {
	Atomically(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
