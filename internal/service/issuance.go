// Package service implements the bond engines: issuance, redemption, and
// administrative unlock. Engines never cache bond state between calls; the
// registry is the single source of truth, and every call is one atomic unit
// of work.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lockboxlabs/bondvault/internal/clock"
	"github.com/lockboxlabs/bondvault/internal/domain"
)

// IssuanceService validates issuance requests, escrows collateral, and
// writes the registry entry.
type IssuanceService struct {
	uow         domain.UnitOfWork
	clock       clock.Clock
	bus         domain.SignalBus
	minMaturity int64 // milliseconds
	escrow      string
	logger      *slog.Logger
}

// NewIssuanceService creates an IssuanceService. minMaturity is the minimum
// lock window; bus may be nil to disable event publication.
func NewIssuanceService(
	uow domain.UnitOfWork,
	clk clock.Clock,
	bus domain.SignalBus,
	minMaturity time.Duration,
	escrowAccount string,
	logger *slog.Logger,
) *IssuanceService {
	return &IssuanceService{
		uow:         uow,
		clock:       clk,
		bus:         bus,
		minMaturity: minMaturity.Milliseconds(),
		escrow:      escrowAccount,
		logger:      logger.With(slog.String("component", "issuance")),
	}
}

// Issue escrows amount of asset from the caller and registers a new bond
// maturing at the given unix-millisecond timestamp. The maturity must exceed
// now + MinMaturity so the product cannot be abused as an instant
// pass-through. Returns the allocated bond id.
func (s *IssuanceService) Issue(ctx context.Context, caller domain.Caller, asset string, amount uint64, maturity int64) (uint64, error) {
	// One clock reading per call; every maturity check below uses it.
	now := s.clock.Now()

	if amount == 0 {
		return 0, domain.ErrInvalidAmount
	}
	if maturity <= now+s.minMaturity {
		return 0, domain.ErrInvalidMaturity
	}

	var bond domain.Bond
	err := s.uow.Atomically(ctx, func(ctx context.Context, st domain.Stores) error {
		if err := st.Ledger.Transfer(ctx, asset, caller.Account, s.escrow, amount); err != nil {
			return err
		}

		id, err := st.Bonds.NextID(ctx)
		if err != nil {
			return err
		}

		bond = domain.Bond{ID: id, Asset: asset, Amount: amount, Maturity: maturity}
		if err := st.Bonds.Insert(ctx, bond); err != nil {
			return err
		}

		if err := st.Claims.Credit(ctx, caller.Account, id, amount); err != nil {
			return err
		}

		return st.Audit.Log(ctx, domain.EventBondCreated, map[string]any{
			"bond_id":     id,
			"account":     caller.Account,
			"asset":       asset,
			"amount":      amount,
			"maturity_ms": maturity,
		})
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "bond issued",
		slog.Uint64("bond_id", bond.ID),
		slog.String("account", caller.Account),
		slog.String("asset", asset),
		slog.Uint64("amount", amount),
		slog.Int64("maturity_ms", maturity),
	)

	publishEvent(ctx, s.bus, s.logger, domain.EventBondCreated, domain.BondCreatedEvent{
		EventID:  uuid.New().String(),
		BondID:   bond.ID,
		Account:  caller.Account,
		Asset:    asset,
		Amount:   amount,
		Maturity: maturity,
	})

	return bond.ID, nil
}
