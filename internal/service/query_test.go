package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

func TestSolvencyTracksEscrow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 1000))

	maturity := f.maturityIn(31 * 24 * time.Hour)
	_, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 300, maturity)
	require.NoError(t, err)
	_, err = f.issuance.Issue(ctx, caller(testAccount), testAsset, 200, maturity)
	require.NoError(t, err)

	report, err := f.query.Solvency(ctx, testAsset)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), report.Outstanding)
	assert.Equal(t, uint64(500), report.Escrowed)
	assert.Equal(t, 2, report.BondCount)
	assert.True(t, report.Solvent())
}

func TestSolvencyDetectsShortfall(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 500))

	_, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 500, f.maturityIn(31*24*time.Hour))
	require.NoError(t, err)

	// Drain escrow behind the engines' back.
	require.NoError(t, f.store.Stores().Ledger.Burn(ctx, testAsset, testEscrow, 100))

	report, err := f.query.Solvency(ctx, testAsset)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), report.Outstanding)
	assert.Equal(t, uint64(400), report.Escrowed)
	assert.False(t, report.Solvent())
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.fund(ctx, testAccount, 1000))

	maturity := f.maturityIn(31 * 24 * time.Hour)
	for i := 0; i < 5; i++ {
		_, err := f.issuance.Issue(ctx, caller(testAccount), testAsset, 100, maturity)
		require.NoError(t, err)
	}

	page, err := f.query.List(ctx, domain.ListOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := f.query.List(ctx, domain.ListOpts{Limit: 10, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestDepositRequiresPrivilege(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	err := f.ledger.Deposit(ctx, caller(testAccount), testAsset, testAccount, 100)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, f.ledger.Deposit(ctx, admin("ops"), testAsset, testAccount, 100))
	balance, err := f.ledger.Balance(ctx, testAsset, testAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
}
