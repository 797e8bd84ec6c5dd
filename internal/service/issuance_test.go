package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

func TestIssueEscrowsCollateral(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 500))

	maturity := f.maturityIn(31 * 24 * time.Hour)
	id, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 200, maturity)
	require.NoError(t, err)

	assert.Equal(t, uint64(300), f.balance(ctx, testAccount))
	assert.Equal(t, uint64(200), f.balance(ctx, testEscrow))

	bond, err := f.query.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, testAsset, bond.Asset)
	assert.Equal(t, uint64(200), bond.Amount)
	assert.Equal(t, maturity, bond.Maturity)

	claim, err := f.query.Claim(ctx, testAccount, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), claim)
}

func TestIssueZeroAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 500))

	_, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 0, f.maturityIn(31*24*time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Equal(t, uint64(500), f.balance(ctx, testAccount))
}

func TestIssueMaturityInsideLockWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 500))

	// Exactly now + MinMaturity is still too soon; the bound is exclusive.
	boundary := f.clock.Now() + testMinMaturity.Milliseconds()
	_, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 100, boundary)
	assert.ErrorIs(t, err, domain.ErrInvalidMaturity)

	_, err = f.issuance.Issue(ctx, caller(testAccount), testAsset, 100, f.clock.Now()-1)
	assert.ErrorIs(t, err, domain.ErrInvalidMaturity)

	// One millisecond past the window is accepted.
	_, err = f.issuance.Issue(ctx, caller(testAccount), testAsset, 100, boundary+1)
	assert.NoError(t, err)
}

func TestIssueInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 50))

	_, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 100, f.maturityIn(31*24*time.Hour))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// The failed issuance must leave no trace.
	assert.Equal(t, uint64(50), f.balance(ctx, testAccount))
	assert.Equal(t, uint64(0), f.balance(ctx, testEscrow))
	bonds, err := f.query.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, bonds)
}

func TestIssueSequentialIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 1000))

	maturity := f.maturityIn(31 * 24 * time.Hour)
	first, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 100, maturity)
	require.NoError(t, err)
	second, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 100, maturity)
	require.NoError(t, err)

	assert.Equal(t, first+1, second)
}
