package errors

import "errors"

var (
	ErrInvalidCommunityInput   = errors.New("invalid community input")
	ErrCommunityNotFound       = errors.New("community not found")
	ErrCommunityNotActive      = errors.New("community is not active")
	ErrCommunityAlreadyExists  = errors.New("community already exists for authority and name")
	ErrInvalidCategory         = errors.New("invalid category")
	ErrCategoryAlreadyExists   = errors.New("custom category already exists")
	ErrAlreadySubscribed       = errors.New("already subscribed to category")
	ErrSubscriptionNotFound    = errors.New("category subscription not found")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrConflict                = errors.New("community record conflict")
	ErrIdempotencyKeyRequired  = errors.New("idempotency key is required")
	ErrIdempotencyConflict     = errors.New("idempotency key conflict")
)
