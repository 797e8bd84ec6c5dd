package domain

import "errors"

// Every rejected call returns one of these sentinels before any state is
// touched; there are no partial side effects on a failure path.
var (
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrInvalidMaturity         = errors.New("maturity below minimum lock window")
	ErrUnknownBond             = errors.New("unknown bond")
	ErrNotMatured              = errors.New("bond not matured")
	ErrInsufficientBondBalance = errors.New("redemption exceeds bond balance")
	ErrInsufficientClaim       = errors.New("insufficient claim on bond")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrBondExists              = errors.New("bond already exists")
	ErrLockHeld                = errors.New("lock already held")
)
