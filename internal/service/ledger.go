package service

import (
	"context"
	"log/slog"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

// LedgerService exposes the deposit path through which collateral enters
// the ledger from outside (bank rails, chain bridges). Deposits are
// privileged: only the operator's ingest identity may mint.
type LedgerService struct {
	uow    domain.UnitOfWork
	stores domain.Stores
	logger *slog.Logger
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(uow domain.UnitOfWork, stores domain.Stores, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		uow:    uow,
		stores: stores,
		logger: logger.With(slog.String("component", "ledger")),
	}
}

// Deposit mints amount of asset to the target account.
func (s *LedgerService) Deposit(ctx context.Context, caller domain.Caller, asset, account string, amount uint64) error {
	if !caller.Privileged {
		return domain.ErrUnauthorized
	}
	if amount == 0 {
		return domain.ErrInvalidAmount
	}

	err := s.uow.Atomically(ctx, func(ctx context.Context, st domain.Stores) error {
		if err := st.Ledger.Mint(ctx, asset, account, amount); err != nil {
			return err
		}
		return st.Audit.Log(ctx, "deposit", map[string]any{
			"asset":   asset,
			"account": account,
			"amount":  amount,
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "deposit minted",
		slog.String("asset", asset),
		slog.String("account", account),
		slog.Uint64("amount", amount),
	)
	return nil
}

// Balance returns an account's balance for one asset.
func (s *LedgerService) Balance(ctx context.Context, asset, account string) (uint64, error) {
	return s.stores.Ledger.Balance(ctx, asset, account)
}
