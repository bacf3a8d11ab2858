package errors

import "errors"

var (
	ErrInvalidLeaderboardInput = errors.New("invalid leaderboard input")
	ErrUserNotRanked           = errors.New("user not present on leaderboard")
)
