package errors

import "errors"

var (
	ErrInvalidUserInput       = errors.New("invalid user input")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserAlreadyExists      = errors.New("user already exists for wallet")
	ErrConflict               = errors.New("user record conflict")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
)
