package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lockboxlabs/bondvault/internal/clock"
	"github.com/lockboxlabs/bondvault/internal/domain"
	"github.com/lockboxlabs/bondvault/internal/fee"
)

// RedemptionResult reports the outcome of a redemption.
type RedemptionResult struct {
	BondID    uint64 `json:"bond_id"`
	Asset     string `json:"asset"`
	Redeemed  uint64 `json:"redeemed"`
	Fee       uint64 `json:"fee"`
	NetPayout uint64 `json:"net_payout"`
	Remaining uint64 `json:"remaining"`
}

// RedemptionService validates maturity, computes the protocol fee, releases
// net proceeds from escrow, and shrinks or deletes the registry entry.
// Partial redemption is supported: a bond with remaining principal stays
// live at the same maturity until fully drained.
type RedemptionService struct {
	uow     domain.UnitOfWork
	clock   clock.Clock
	bus     domain.SignalBus
	locks   domain.LockManager
	rate    fee.Rate
	escrow  string
	feeSink string
	lockTTL time.Duration
	logger  *slog.Logger
}

// NewRedemptionService creates a RedemptionService. locks may be nil when a
// single writer is guaranteed (tests, single-node deployments); bus may be
// nil to disable event publication.
func NewRedemptionService(
	uow domain.UnitOfWork,
	clk clock.Clock,
	bus domain.SignalBus,
	locks domain.LockManager,
	rate fee.Rate,
	escrowAccount, feeSinkAccount string,
	lockTTL time.Duration,
	logger *slog.Logger,
) *RedemptionService {
	return &RedemptionService{
		uow:     uow,
		clock:   clk,
		bus:     bus,
		locks:   locks,
		rate:    rate,
		escrow:  escrowAccount,
		feeSink: feeSinkAccount,
		lockTTL: lockTTL,
		logger:  logger.With(slog.String("component", "redemption")),
	}
}

// Redeem burns requested claim from the caller and pays out the matching
// principal net of the protocol fee. The fee is assessed against the amount
// redeemed in this call, rounding up, so the protocol never under-collects.
func (s *RedemptionService) Redeem(ctx context.Context, caller domain.Caller, bondID uint64, requested uint64) (RedemptionResult, error) {
	// One clock reading per call; the maturity gate below must not drift if
	// the clock advances mid-call.
	now := s.clock.Now()

	if requested == 0 {
		return RedemptionResult{}, domain.ErrInvalidAmount
	}

	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, bondKey(bondID), s.lockTTL)
		if err != nil {
			return RedemptionResult{}, err
		}
		defer unlock()
	}

	var res RedemptionResult
	err := s.uow.Atomically(ctx, func(ctx context.Context, st domain.Stores) error {
		bond, err := st.Bonds.Get(ctx, bondID)
		if err != nil {
			return err
		}
		if !bond.Matured(now) {
			return domain.ErrNotMatured
		}
		if requested > bond.Amount {
			return domain.ErrInsufficientBondBalance
		}

		if err := st.Claims.Debit(ctx, caller.Account, bondID, requested); err != nil {
			return err
		}

		feeAmount := s.rate.CeilMul(requested)
		net := requested - feeAmount

		if err := st.Ledger.Transfer(ctx, bond.Asset, s.escrow, caller.Account, net); err != nil {
			return err
		}
		if err := st.Ledger.Transfer(ctx, bond.Asset, s.escrow, s.feeSink, feeAmount); err != nil {
			return err
		}

		remaining := bond.Amount - requested
		if err := st.Bonds.UpdateAmount(ctx, bondID, remaining); err != nil {
			return err
		}

		res = RedemptionResult{
			BondID:    bondID,
			Asset:     bond.Asset,
			Redeemed:  requested,
			Fee:       feeAmount,
			NetPayout: net,
			Remaining: remaining,
		}

		return st.Audit.Log(ctx, domain.EventBondRedeemed, map[string]any{
			"bond_id":    bondID,
			"account":    caller.Account,
			"asset":      bond.Asset,
			"redeemed":   requested,
			"fee":        feeAmount,
			"net_payout": net,
			"remaining":  remaining,
		})
	})
	if err != nil {
		return RedemptionResult{}, err
	}

	s.logger.InfoContext(ctx, "bond redeemed",
		slog.Uint64("bond_id", bondID),
		slog.String("account", caller.Account),
		slog.Uint64("redeemed", res.Redeemed),
		slog.Uint64("fee", res.Fee),
		slog.Uint64("net_payout", res.NetPayout),
		slog.Uint64("remaining", res.Remaining),
	)

	publishEvent(ctx, s.bus, s.logger, domain.EventBondRedeemed, domain.BondRedeemedEvent{
		EventID:   uuid.New().String(),
		BondID:    bondID,
		Account:   caller.Account,
		Asset:     res.Asset,
		Redeemed:  res.Redeemed,
		Fee:       res.Fee,
		NetPayout: res.NetPayout,
		Remaining: res.Remaining,
	})

	return res, nil
}

// bondKey is the distributed-lock key for one bond. Calls referencing the
// same bond are linearized; disjoint bonds proceed concurrently.
func bondKey(id uint64) string {
	return fmt.Sprintf("bond:%d", id)
}
