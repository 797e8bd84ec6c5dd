package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockboxlabs/bondvault/internal/domain"
	"github.com/lockboxlabs/bondvault/internal/fee"
)

func TestThirtyDayBondLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 200))

	t0 := f.clock.Now()
	maturity := t0 + (30 * 24 * time.Hour).Milliseconds()

	// Maturity exactly at the minimum lock window is rejected.
	_, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 200, maturity)
	require.ErrorIs(t, err, domain.ErrInvalidMaturity)

	id, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 200, maturity+1)
	require.NoError(t, err)

	// Day 1: still locked.
	f.clock.Advance(24 * time.Hour)
	_, err = f.redemption.Redeem(ctx, caller(testAccount), id, 200)
	require.ErrorIs(t, err, domain.ErrNotMatured)

	// Day 31: full redemption at 0.5% pays 199 net.
	f.clock.Advance(30 * 24 * time.Hour)
	res, err := f.redemption.Redeem(ctx, caller(testAccount), id, 200)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Fee)
	assert.Equal(t, uint64(199), res.NetPayout)

	assert.Equal(t, uint64(199), f.balance(ctx, testAccount))
	assert.Equal(t, uint64(1), f.balance(ctx, testFeeSink))
	_, err = f.query.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrUnknownBond)
}

func TestUnlockIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 200))

	id, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 200, f.maturityIn(60*24*time.Hour))
	require.NoError(t, err)

	f.clock.Advance(15 * 24 * time.Hour)

	require.NoError(t, f.unlock.Unlock(ctx, admin("ops"), id))
	first, err := f.query.Get(ctx, id)
	require.NoError(t, err)

	// Repeating the unlock at the same instant changes nothing.
	require.NoError(t, f.unlock.Unlock(ctx, admin("ops"), id))
	second, err := f.query.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.Maturity, second.Maturity)

	// The bond is redeemable immediately, without advancing the clock.
	_, err = f.redemption.Redeem(ctx, caller(testAccount), id, 200)
	assert.NoError(t, err)
}

func TestOnePercentFeeCeiling(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Same store and clock, 1% fee.
	redemption := NewRedemptionService(
		f.store, f.clock, nil, nil, fee.Rate(10_000), testEscrow, testFeeSink, 30*time.Second, logger,
	)

	require.NoError(t, f.fund(ctx, testAccount, 201))
	id, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 201, f.maturityIn(31*24*time.Hour))
	require.NoError(t, err)
	f.clock.Advance(32 * 24 * time.Hour)

	res, err := redemption.Redeem(ctx, caller(testAccount), id, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Fee)
	assert.Equal(t, uint64(99), res.NetPayout)

	// 1% of 101 is 1.01, so the ceiling takes 2 and nets 99 again.
	res, err = redemption.Redeem(ctx, caller(testAccount), id, 101)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Fee)
	assert.Equal(t, uint64(99), res.NetPayout)
}
