package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/lockboxlabs/bondvault/internal/clock"
	"github.com/lockboxlabs/bondvault/internal/domain"
	"github.com/lockboxlabs/bondvault/internal/fee"
	"github.com/lockboxlabs/bondvault/internal/store/memory"
)

const (
	testAsset   = "USDC"
	testAccount = "alice"
	testEscrow  = "escrow:bonds"
	testFeeSink = "treasury:fees"

	testMinMaturity = 30 * 24 * time.Hour
	testFeeRate     = fee.Rate(5_000) // 0.5%
)

// fixture wires the engines against the in-memory store and a manual clock.
type fixture struct {
	store      *memory.Store
	clock      *clock.Manual
	issuance   *IssuanceService
	redemption *RedemptionService
	unlock     *UnlockService
	query      *QueryService
	ledger     *LedgerService
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	clk := clock.NewManual(1_000_000)

	return &fixture{
		store: store,
		clock: clk,
		issuance: NewIssuanceService(
			store, clk, nil, testMinMaturity, testEscrow, logger,
		),
		redemption: NewRedemptionService(
			store, clk, nil, nil, testFeeRate, testEscrow, testFeeSink, 30*time.Second, logger,
		),
		unlock: NewUnlockService(
			store, clk, nil, nil, 30*time.Second, logger,
		),
		query:  NewQueryService(store.Stores(), testEscrow, logger),
		ledger: NewLedgerService(store, store.Stores(), logger),
	}
}

// fund mints a starting balance for an account.
func (f *fixture) fund(ctx context.Context, account string, amount uint64) error {
	return f.store.Stores().Ledger.Mint(ctx, testAsset, account, amount)
}

// balance reads an account's balance directly from the store.
func (f *fixture) balance(ctx context.Context, account string) uint64 {
	b, _ := f.store.Stores().Ledger.Balance(ctx, testAsset, account)
	return b
}

// maturityIn returns a maturity timestamp d past the current clock reading.
func (f *fixture) maturityIn(d time.Duration) int64 {
	return f.clock.Now() + d.Milliseconds()
}

// caller returns an unprivileged caller identity.
func caller(account string) domain.Caller {
	return domain.Caller{Account: account}
}

// admin returns a privileged caller identity.
func admin(account string) domain.Caller {
	return domain.Caller{Account: account, Privileged: true}
}
