package errors

import "errors"

var (
	ErrInvalidFeeInput         = errors.New("invalid fee input")
	ErrPoolNotInitialized      = errors.New("fee pool not initialized")
	ErrPoolAlreadyInitialized  = errors.New("fee pool already initialized")
	ErrUnauthorized            = errors.New("caller is not the pool authority")
	ErrDistributionNotReady    = errors.New("distribution interval has not elapsed")
	ErrNoFundsToDistribute     = errors.New("no funds available to distribute")
	ErrNotEligibleForReward    = errors.New("reputation below reward threshold")
	ErrAlreadyClaimedToday     = errors.New("reward already claimed this epoch")
	ErrNoDistributionYet       = errors.New("no distribution has occurred yet")
	ErrInvalidWithdrawalAmount = errors.New("invalid withdrawal amount")
	ErrInsufficientFunds       = errors.New("insufficient pool balance")
	ErrConflict                = errors.New("fee record conflict")
	ErrIdempotencyKeyRequired  = errors.New("idempotency key is required")
	ErrIdempotencyConflict     = errors.New("idempotency key conflict")
)
