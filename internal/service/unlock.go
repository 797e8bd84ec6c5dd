package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lockboxlabs/bondvault/internal/clock"
	"github.com/lockboxlabs/bondvault/internal/domain"
)

// UnlockService is the administrative override: it rewrites a bond's
// maturity to the current time so the holder can redeem immediately. No
// asset moves; accounted principal and fee policy are untouched. Calling it
// on an already-matured bond is a no-op from the holder's perspective.
type UnlockService struct {
	uow     domain.UnitOfWork
	clock   clock.Clock
	bus     domain.SignalBus
	locks   domain.LockManager
	lockTTL time.Duration
	logger  *slog.Logger
}

// NewUnlockService creates an UnlockService. locks and bus may be nil.
func NewUnlockService(
	uow domain.UnitOfWork,
	clk clock.Clock,
	bus domain.SignalBus,
	locks domain.LockManager,
	lockTTL time.Duration,
	logger *slog.Logger,
) *UnlockService {
	return &UnlockService{
		uow:     uow,
		clock:   clk,
		bus:     bus,
		locks:   locks,
		lockTTL: lockTTL,
		logger:  logger.With(slog.String("component", "unlock")),
	}
}

// Unlock forces the bond's maturity to now. Only privileged callers may
// invoke it; the privilege itself is resolved by the authentication edge,
// not here.
func (s *UnlockService) Unlock(ctx context.Context, caller domain.Caller, bondID uint64) error {
	if !caller.Privileged {
		return domain.ErrUnauthorized
	}

	now := s.clock.Now()

	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, bondKey(bondID), s.lockTTL)
		if err != nil {
			return err
		}
		defer unlock()
	}

	err := s.uow.Atomically(ctx, func(ctx context.Context, st domain.Stores) error {
		if _, err := st.Bonds.Get(ctx, bondID); err != nil {
			return err
		}
		if err := st.Bonds.SetMaturity(ctx, bondID, now); err != nil {
			return err
		}
		return st.Audit.Log(ctx, domain.EventBondUnlocked, map[string]any{
			"bond_id":     bondID,
			"maturity_ms": now,
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "bond unlocked",
		slog.Uint64("bond_id", bondID),
		slog.Int64("maturity_ms", now),
	)

	publishEvent(ctx, s.bus, s.logger, domain.EventBondUnlocked, domain.BondUnlockedEvent{
		EventID:  uuid.New().String(),
		BondID:   bondID,
		Maturity: now,
	})

	return nil
}
