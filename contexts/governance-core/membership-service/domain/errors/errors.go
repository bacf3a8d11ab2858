package errors

import "errors"

var (
	ErrInvalidMembershipInput    = errors.New("invalid membership input")
	ErrMembershipNotFound        = errors.New("membership not found")
	ErrAlreadyMember             = errors.New("already a community member")
	ErrNotCommunityMember        = errors.New("not a community member")
	ErrUserBanned                = errors.New("user is banned from community")
	ErrCommunityRequiresApproval = errors.New("community requires membership approval")
	ErrRequestNotFound           = errors.New("membership request not found")
	ErrRequestNotPending         = errors.New("membership request is not pending")
	ErrRequestAlreadyExists      = errors.New("membership request already exists")
	ErrInsufficientPermissions   = errors.New("insufficient permissions")
	ErrCannotBanModerator        = errors.New("cannot ban a moderator or admin")
	ErrCannotRemoveAdmin         = errors.New("cannot remove the community admin")
	ErrCannotRemoveModerator     = errors.New("cannot remove a moderator")
	ErrAdminCannotLeave          = errors.New("community admin cannot leave own community")
	ErrInvalidBanDuration        = errors.New("invalid ban duration")
	ErrBanNotFound               = errors.New("ban record not found")
	ErrBanNotActive              = errors.New("ban is not active")
	ErrAppealNotFound            = errors.New("appeal not found")
	ErrAppealNotPending          = errors.New("appeal is not pending")
	ErrAppealAlreadyExists       = errors.New("appeal already exists for ban")
	ErrConflict                  = errors.New("membership record conflict")
	ErrIdempotencyKeyRequired    = errors.New("idempotency key is required")
	ErrIdempotencyConflict       = errors.New("idempotency key conflict")
)
