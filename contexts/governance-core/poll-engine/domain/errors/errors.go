package errors

import "errors"

var (
	ErrInvalidPollInput         = errors.New("invalid poll input")
	ErrPollNotFound             = errors.New("poll not found")
	ErrPollNotActive            = errors.New("poll is not active")
	ErrPollExpired              = errors.New("poll deadline has passed")
	ErrPollNotExpired           = errors.New("poll deadline has not passed")
	ErrInvalidOption            = errors.New("invalid option index")
	ErrAlreadyVoted             = errors.New("already voted on this poll")
	ErrNotCommunityMember       = errors.New("not an active community member")
	ErrUserBanned               = errors.New("user is banned from community")
	ErrInsufficientPermissions  = errors.New("insufficient permissions")
	ErrCorrectAnswerRequired    = errors.New("knowledge poll requires a correct answer")
	ErrNoAnswerHashStored       = errors.New("poll has no answer commitment")
	ErrInvalidAnswerHash        = errors.New("revealed answer does not match commitment")
	ErrRevealDeadlinePassed     = errors.New("reveal deadline has passed")
	ErrNotAwaitingReveal        = errors.New("poll is not awaiting reveal")
	ErrNotConfidenceVoting      = errors.New("poll is not in confidence voting")
	ErrConfidenceDeadlinePassed = errors.New("confidence deadline has passed")
	ErrConfidenceStillActive    = errors.New("confidence voting is still active")
	ErrNotPollParticipant       = errors.New("caller did not participate in poll")
	ErrAlreadyVotedConfidence   = errors.New("already cast a confidence ballot")
	ErrConflict                 = errors.New("poll record conflict")
	ErrIdempotencyKeyRequired   = errors.New("idempotency key is required")
	ErrIdempotencyConflict      = errors.New("idempotency key conflict")
)
