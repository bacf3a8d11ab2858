package errors

import "errors"

var (
	ErrInvalidReportInput      = errors.New("invalid report input")
	ErrReportNotFound          = errors.New("report not found")
	ErrReportNotPending        = errors.New("report is not pending")
	ErrAlreadyReported         = errors.New("poll already reported by user")
	ErrCannotReportOwnPoll     = errors.New("cannot report own poll")
	ErrNotCommunityMember      = errors.New("not an active community member")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrPollNotFound            = errors.New("poll not found")
	ErrConflict                = errors.New("report record conflict")
	ErrIdempotencyKeyRequired  = errors.New("idempotency key is required")
	ErrIdempotencyConflict     = errors.New("idempotency key conflict")
)
