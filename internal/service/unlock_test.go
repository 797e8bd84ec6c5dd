package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

func TestUnlockRequiresPrivilege(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 200))
	id, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 200, f.maturityIn(31*24*time.Hour))
	require.NoError(t, err)

	err = f.unlock.Unlock(ctx, caller(testAccount), id)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// The maturity must be untouched.
	bond, err := f.query.Get(ctx, id)
	require.NoError(t, err)
	assert.Greater(t, bond.Maturity, f.clock.Now())
}

func TestUnlockEnablesImmediateRedemption(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 200))
	id, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 200, f.maturityIn(365*24*time.Hour))
	require.NoError(t, err)

	require.NoError(t, f.unlock.Unlock(ctx, admin("ops"), id))

	bond, err := f.query.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), bond.Maturity)

	// No asset moves on unlock.
	assert.Equal(t, uint64(200), f.balance(ctx, testEscrow))

	res, err := f.redemption.Redeem(ctx, caller(testAccount), id, 200)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Fee)
	assert.Equal(t, uint64(199), res.NetPayout)
}

func TestUnlockUnknownBond(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	err := f.unlock.Unlock(ctx, admin("ops"), 42)
	assert.ErrorIs(t, err, domain.ErrUnknownBond)
}

func TestUnlockAlreadyMatured(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := issueAndMature(t, f, 200)

	// Unlocking a matured bond keeps it redeemable.
	require.NoError(t, f.unlock.Unlock(ctx, admin("ops"), id))
	f.clock.Advance(time.Minute)

	_, err := f.redemption.Redeem(ctx, caller(testAccount), id, 200)
	assert.NoError(t, err)
}
