package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

// issueAndMature funds the account, issues a bond, and advances the clock
// past its maturity.
func issueAndMature(t *testing.T, f *fixture, amount uint64) uint64 {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.fund(ctx, testAccount, amount))
	id, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, amount, f.maturityIn(31*24*time.Hour))
	require.NoError(t, err)

	f.clock.Advance(32 * 24 * time.Hour)
	return id
}

func TestRedeemFullDeletesBond(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := issueAndMature(t, f, 200)

	res, err := f.redemption.Redeem(ctx, caller(testAccount), id, 200)
	require.NoError(t, err)

	// 0.5% of 200, rounded up, is exactly 1.
	assert.Equal(t, uint64(200), res.Redeemed)
	assert.Equal(t, uint64(1), res.Fee)
	assert.Equal(t, uint64(199), res.NetPayout)
	assert.Equal(t, uint64(0), res.Remaining)

	assert.Equal(t, uint64(199), f.balance(ctx, testAccount))
	assert.Equal(t, uint64(1), f.balance(ctx, testFeeSink))
	assert.Equal(t, uint64(0), f.balance(ctx, testEscrow))

	// Fully drained bonds are removed from the registry.
	_, err = f.query.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrUnknownBond)
}

func TestRedeemPartialKeepsBondLive(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := issueAndMature(t, f, 200)

	before, err := f.query.Get(ctx, id)
	require.NoError(t, err)

	res, err := f.redemption.Redeem(ctx, caller(testAccount), id, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), res.Remaining)

	bond, err := f.query.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), bond.Amount)
	assert.Equal(t, before.Maturity, bond.Maturity)

	claim, err := f.query.Claim(ctx, testAccount, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), claim)
}

func TestRedeemBeforeMaturity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 200))
	id, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 200, f.maturityIn(31*24*time.Hour))
	require.NoError(t, err)

	_, err = f.redemption.Redeem(ctx, caller(testAccount), id, 200)
	assert.ErrorIs(t, err, domain.ErrNotMatured)

	// Nothing may move on a rejected redemption.
	assert.Equal(t, uint64(0), f.balance(ctx, testAccount))
	assert.Equal(t, uint64(200), f.balance(ctx, testEscrow))
	claim, err := f.query.Claim(ctx, testAccount, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), claim)
}

func TestRedeemAtExactMaturity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 200))
	maturity := f.maturityIn(31 * 24 * time.Hour)
	id, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 200, maturity)
	require.NoError(t, err)

	f.clock.Set(maturity)

	_, err = f.redemption.Redeem(ctx, caller(testAccount), id, 200)
	assert.NoError(t, err)
}

func TestRedeemZeroAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := issueAndMature(t, f, 200)

	_, err := f.redemption.Redeem(ctx, caller(testAccount), id, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestRedeemMoreThanPrincipal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := issueAndMature(t, f, 200)

	_, err := f.redemption.Redeem(ctx, caller(testAccount), id, 201)
	assert.ErrorIs(t, err, domain.ErrInsufficientBondBalance)
}

func TestRedeemUnknownBond(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.redemption.Redeem(ctx, caller(testAccount), 42, 100)
	assert.ErrorIs(t, err, domain.ErrUnknownBond)
}

func TestRedeemWithoutClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := issueAndMature(t, f, 200)

	_, err := f.redemption.Redeem(ctx, caller("mallory"), id, 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientClaim)

	// The holder's claim and the escrow are untouched.
	claim, err := f.query.Claim(ctx, testAccount, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), claim)
	assert.Equal(t, uint64(200), f.balance(ctx, testEscrow))
}

func TestRedeemConservesAssets(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := issueAndMature(t, f, 1000)

	total := func() uint64 {
		return f.balance(ctx, testAccount) + f.balance(ctx, testEscrow) + f.balance(ctx, testFeeSink)
	}
	require.Equal(t, uint64(1000), total())

	for _, amount := range []uint64{1, 7, 300, 692} {
		_, err := f.redemption.Redeem(ctx, caller(testAccount), id, amount)
		require.NoError(t, err)
		assert.Equal(t, uint64(1000), total())
	}

	_, err := f.query.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrUnknownBond)
}
