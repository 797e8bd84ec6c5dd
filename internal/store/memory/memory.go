// Package memory implements the domain store interfaces with in-process
// maps. It backs unit tests and single-node deployments that do not need
// durability. Atomicity is a single mutex plus snapshot rollback: a failed
// unit of work leaves state byte-for-byte unchanged.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

type balanceKey struct {
	asset   string
	account string
}

type claimKey struct {
	account string
	bondID  uint64
}

// Store holds all in-memory state. It implements domain.UnitOfWork; the
// individual store interfaces are exposed through Stores().
type Store struct {
	mu       sync.Mutex
	bonds    map[uint64]domain.Bond
	nextID   uint64
	balances map[balanceKey]uint64
	claims   map[claimKey]uint64
	audit    []domain.AuditEntry
	auditSeq int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		bonds:    make(map[uint64]domain.Bond),
		balances: make(map[balanceKey]uint64),
		claims:   make(map[claimKey]uint64),
	}
}

// Stores returns the store interfaces with per-call locking, for use outside
// a unit of work.
func (s *Store) Stores() domain.Stores {
	lock := func() func() {
		s.mu.Lock()
		return s.mu.Unlock
	}
	return s.stores(lock)
}

// Atomically runs fn under the store mutex against a snapshot-protected
// view. On error every mutation made by fn is rolled back.
func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, st domain.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	noop := func() func() { return func() {} }
	if err := fn(ctx, s.stores(noop)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) stores(lock func() func()) domain.Stores {
	return domain.Stores{
		Bonds:  &bondRegistry{s: s, lock: lock},
		Ledger: &assetLedger{s: s, lock: lock},
		Claims: &claimStore{s: s, lock: lock},
		Audit:  &auditStore{s: s, lock: lock},
	}
}

type snapshotState struct {
	bonds    map[uint64]domain.Bond
	nextID   uint64
	balances map[balanceKey]uint64
	claims   map[claimKey]uint64
	auditLen int
	auditSeq int64
}

func (s *Store) snapshot() snapshotState {
	snap := snapshotState{
		bonds:    make(map[uint64]domain.Bond, len(s.bonds)),
		nextID:   s.nextID,
		balances: make(map[balanceKey]uint64, len(s.balances)),
		claims:   make(map[claimKey]uint64, len(s.claims)),
		auditLen: len(s.audit),
		auditSeq: s.auditSeq,
	}
	for k, v := range s.bonds {
		snap.bonds[k] = v
	}
	for k, v := range s.balances {
		snap.balances[k] = v
	}
	for k, v := range s.claims {
		snap.claims[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshotState) {
	s.bonds = snap.bonds
	s.nextID = snap.nextID
	s.balances = snap.balances
	s.claims = snap.claims
	s.audit = s.audit[:snap.auditLen]
	s.auditSeq = snap.auditSeq
}

// ---------------------------------------------------------------------------
// BondRegistry
// ---------------------------------------------------------------------------

type bondRegistry struct {
	s    *Store
	lock func() func()
}

func (r *bondRegistry) Get(_ context.Context, id uint64) (domain.Bond, error) {
	defer r.lock()()
	b, ok := r.s.bonds[id]
	if !ok {
		return domain.Bond{}, domain.ErrUnknownBond
	}
	return b, nil
}

func (r *bondRegistry) Insert(_ context.Context, b domain.Bond) error {
	defer r.lock()()
	if _, ok := r.s.bonds[b.ID]; ok {
		return domain.ErrBondExists
	}
	r.s.bonds[b.ID] = b
	return nil
}

func (r *bondRegistry) UpdateAmount(_ context.Context, id uint64, newAmount uint64) error {
	defer r.lock()()
	b, ok := r.s.bonds[id]
	if !ok {
		return domain.ErrUnknownBond
	}
	if newAmount == 0 {
		delete(r.s.bonds, id)
		return nil
	}
	b.Amount = newAmount
	r.s.bonds[id] = b
	return nil
}

func (r *bondRegistry) SetMaturity(_ context.Context, id uint64, maturity int64) error {
	defer r.lock()()
	b, ok := r.s.bonds[id]
	if !ok {
		return domain.ErrUnknownBond
	}
	b.Maturity = maturity
	r.s.bonds[id] = b
	return nil
}

func (r *bondRegistry) NextID(_ context.Context) (uint64, error) {
	defer r.lock()()
	r.s.nextID++
	return r.s.nextID, nil
}

func (r *bondRegistry) List(_ context.Context, opts domain.ListOpts) ([]domain.Bond, error) {
	defer r.lock()()
	list := make([]domain.Bond, 0, len(r.s.bonds))
	for _, b := range r.s.bonds {
		list = append(list, b)
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(list) {
			return nil, nil
		}
		list = list[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(list) {
		list = list[:opts.Limit]
	}
	return list, nil
}

func (r *bondRegistry) ForEach(_ context.Context, fn func(domain.Bond) error) error {
	defer r.lock()()
	for _, b := range r.s.bonds {
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// AssetLedger
// ---------------------------------------------------------------------------

type assetLedger struct {
	s    *Store
	lock func() func()
}

func (l *assetLedger) Transfer(_ context.Context, asset, from, to string, amount uint64) error {
	defer l.lock()()
	fromKey := balanceKey{asset, from}
	if l.s.balances[fromKey] < amount {
		return domain.ErrInsufficientBalance
	}
	l.s.balances[fromKey] -= amount
	l.s.balances[balanceKey{asset, to}] += amount
	return nil
}

func (l *assetLedger) Mint(_ context.Context, asset, to string, amount uint64) error {
	defer l.lock()()
	l.s.balances[balanceKey{asset, to}] += amount
	return nil
}

func (l *assetLedger) Burn(_ context.Context, asset, from string, amount uint64) error {
	defer l.lock()()
	key := balanceKey{asset, from}
	if l.s.balances[key] < amount {
		return domain.ErrInsufficientBalance
	}
	l.s.balances[key] -= amount
	return nil
}

func (l *assetLedger) Balance(_ context.Context, asset, account string) (uint64, error) {
	defer l.lock()()
	return l.s.balances[balanceKey{asset, account}], nil
}

// ---------------------------------------------------------------------------
// ClaimStore
// ---------------------------------------------------------------------------

type claimStore struct {
	s    *Store
	lock func() func()
}

func (c *claimStore) Credit(_ context.Context, account string, bondID uint64, amount uint64) error {
	defer c.lock()()
	c.s.claims[claimKey{account, bondID}] += amount
	return nil
}

func (c *claimStore) Debit(_ context.Context, account string, bondID uint64, amount uint64) error {
	defer c.lock()()
	key := claimKey{account, bondID}
	if c.s.claims[key] < amount {
		return domain.ErrInsufficientClaim
	}
	c.s.claims[key] -= amount
	if c.s.claims[key] == 0 {
		delete(c.s.claims, key)
	}
	return nil
}

func (c *claimStore) Get(_ context.Context, account string, bondID uint64) (uint64, error) {
	defer c.lock()()
	return c.s.claims[claimKey{account, bondID}], nil
}

// ---------------------------------------------------------------------------
// AuditStore
// ---------------------------------------------------------------------------

type auditStore struct {
	s    *Store
	lock func() func()
}

func (a *auditStore) Log(_ context.Context, event string, detail map[string]any) error {
	defer a.lock()()
	a.s.auditSeq++
	a.s.audit = append(a.s.audit, domain.AuditEntry{
		ID:        a.s.auditSeq,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (a *auditStore) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	defer a.lock()()
	list := a.s.audit
	if opts.Offset > 0 {
		if opts.Offset >= len(list) {
			return nil, nil
		}
		list = list[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(list) {
		list = list[:opts.Limit]
	}
	out := make([]domain.AuditEntry, len(list))
	copy(out, list)
	return out, nil
}

func (a *auditStore) ListBefore(_ context.Context, before time.Time) ([]domain.AuditEntry, error) {
	defer a.lock()()
	var out []domain.AuditEntry
	for _, e := range a.s.audit {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Compile-time interface checks.
var (
	_ domain.UnitOfWork   = (*Store)(nil)
	_ domain.BondRegistry = (*bondRegistry)(nil)
	_ domain.AssetLedger  = (*assetLedger)(nil)
	_ domain.ClaimStore   = (*claimStore)(nil)
	_ domain.AuditStore   = (*auditStore)(nil)
)
