package service

import (
	"context"
	"log/slog"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

// QueryService serves read-only diagnostics over the registry and ledger.
// It runs outside any unit of work: results are point-in-time snapshots and
// must not feed business logic.
type QueryService struct {
	stores domain.Stores
	escrow string
	logger *slog.Logger
}

// NewQueryService creates a QueryService over autocommit store views.
func NewQueryService(stores domain.Stores, escrowAccount string, logger *slog.Logger) *QueryService {
	return &QueryService{
		stores: stores,
		escrow: escrowAccount,
		logger: logger.With(slog.String("component", "query")),
	}
}

// Get returns a single bond, ErrUnknownBond if absent.
func (s *QueryService) Get(ctx context.Context, bondID uint64) (domain.Bond, error) {
	return s.stores.Bonds.Get(ctx, bondID)
}

// List returns a page of live bonds. Order is not guaranteed.
func (s *QueryService) List(ctx context.Context, opts domain.ListOpts) ([]domain.Bond, error) {
	return s.stores.Bonds.List(ctx, opts)
}

// Claim returns the caller's claim on a bond.
func (s *QueryService) Claim(ctx context.Context, account string, bondID uint64) (uint64, error) {
	return s.stores.Claims.Get(ctx, account, bondID)
}

// Solvency sums outstanding principal for one asset across the registry and
// compares it against the collateral sitting in escrow.
func (s *QueryService) Solvency(ctx context.Context, asset string) (domain.SolvencyReport, error) {
	report := domain.SolvencyReport{Asset: asset}

	err := s.stores.Bonds.ForEach(ctx, func(b domain.Bond) error {
		if b.Asset != asset {
			return nil
		}
		report.Outstanding += b.Amount
		report.BondCount++
		return nil
	})
	if err != nil {
		return domain.SolvencyReport{}, err
	}

	escrowed, err := s.stores.Ledger.Balance(ctx, asset, s.escrow)
	if err != nil {
		return domain.SolvencyReport{}, err
	}
	report.Escrowed = escrowed

	if !report.Solvent() {
		s.logger.ErrorContext(ctx, "escrow does not cover outstanding principal",
			slog.String("asset", asset),
			slog.Uint64("outstanding", report.Outstanding),
			slog.Uint64("escrowed", report.Escrowed),
		)
	}

	return report, nil
}
