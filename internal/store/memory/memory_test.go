package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

func TestBondRegistryInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()
	st := s.Stores()

	bond := domain.Bond{ID: 1, Asset: "USDC", Amount: 100, Maturity: 5000}
	require.NoError(t, st.Bonds.Insert(ctx, bond))

	got, err := st.Bonds.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, bond, got)

	err = st.Bonds.Insert(ctx, bond)
	assert.ErrorIs(t, err, domain.ErrBondExists)

	_, err = st.Bonds.Get(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrUnknownBond)
}

func TestBondRegistryUpdateAmountDeletesAtZero(t *testing.T) {
	ctx := context.Background()
	s := New()
	st := s.Stores()

	require.NoError(t, st.Bonds.Insert(ctx, domain.Bond{ID: 1, Asset: "USDC", Amount: 100, Maturity: 5000}))

	require.NoError(t, st.Bonds.UpdateAmount(ctx, 1, 40))
	got, err := st.Bonds.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), got.Amount)

	require.NoError(t, st.Bonds.UpdateAmount(ctx, 1, 0))
	_, err = st.Bonds.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrUnknownBond)
}

func TestNextIDIsMonotonic(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()

	first, err := st.Bonds.NextID(ctx)
	require.NoError(t, err)
	second, err := st.Bonds.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestLedgerTransferInsufficient(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()

	require.NoError(t, st.Ledger.Mint(ctx, "USDC", "alice", 50))

	err := st.Ledger.Transfer(ctx, "USDC", "alice", "bob", 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	require.NoError(t, st.Ledger.Transfer(ctx, "USDC", "alice", "bob", 50))
	b, err := st.Ledger.Balance(ctx, "USDC", "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(50), b)
}

func TestClaimDebitInsufficient(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()

	require.NoError(t, st.Claims.Credit(ctx, "alice", 1, 100))

	err := st.Claims.Debit(ctx, "alice", 1, 101)
	assert.ErrorIs(t, err, domain.ErrInsufficientClaim)

	require.NoError(t, st.Claims.Debit(ctx, "alice", 1, 100))
	remaining, err := st.Claims.Get(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), remaining)
}

func TestAtomicallyRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	st := s.Stores()

	require.NoError(t, st.Ledger.Mint(ctx, "USDC", "alice", 100))
	sentinel := errors.New("boom")

	err := s.Atomically(ctx, func(ctx context.Context, tx domain.Stores) error {
		if err := tx.Ledger.Transfer(ctx, "USDC", "alice", "bob", 60); err != nil {
			return err
		}
		if err := tx.Bonds.Insert(ctx, domain.Bond{ID: 9, Asset: "USDC", Amount: 60, Maturity: 1}); err != nil {
			return err
		}
		if err := tx.Audit.Log(ctx, "test", nil); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	// Every write inside the failed unit of work is rolled back.
	b, err := st.Ledger.Balance(ctx, "USDC", "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), b)

	_, err = st.Bonds.Get(ctx, 9)
	assert.ErrorIs(t, err, domain.ErrUnknownBond)

	entries, err := st.Audit.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAtomicallyCommits(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Atomically(ctx, func(ctx context.Context, tx domain.Stores) error {
		if err := tx.Ledger.Mint(ctx, "USDC", "alice", 100); err != nil {
			return err
		}
		return tx.Audit.Log(ctx, "deposit", map[string]any{"amount": 100})
	})
	require.NoError(t, err)

	b, err := s.Stores().Ledger.Balance(ctx, "USDC", "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), b)

	entries, err := s.Stores().Audit.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
