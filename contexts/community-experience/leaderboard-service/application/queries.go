package application

import (
	"context"
	"log/slog"
	"strings"

	"agora/contexts/community-experience/leaderboard-service/domain/entities"
	domainerrors "agora/contexts/community-experience/leaderboard-service/domain/errors"
	"agora/contexts/community-experience/leaderboard-service/ports"
)

const defaultLeaderboardLimit = 10

// Queries exposes the read side of the scoreboards.
type Queries struct {
	Scores ports.ScoreRepository
	Logger *slog.Logger
}

func (q Queries) GetGlobalLeaderboard(ctx context.Context, limit int) ([]entities.Entry, error) {
	return q.Scores.TopGlobal(ctx, normalizeLimit(limit))
}

func (q Queries) GetCommunityLeaderboard(ctx context.Context, communityID string, limit int) ([]entities.Entry, error) {
	communityID = strings.TrimSpace(communityID)
	if communityID == "" {
		return nil, domainerrors.ErrInvalidLeaderboardInput
	}
	return q.Scores.TopCommunity(ctx, communityID, normalizeLimit(limit))
}

func (q Queries) GetUserRank(ctx context.Context, communityID string, userID string) (entities.Entry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.Entry{}, domainerrors.ErrInvalidLeaderboardInput
	}

	var (
		entry entities.Entry
		found bool
		err   error
	)
	if communityID = strings.TrimSpace(communityID); communityID == "" {
		entry, found, err = q.Scores.GlobalRank(ctx, userID)
	} else {
		entry, found, err = q.Scores.CommunityRank(ctx, communityID, userID)
	}
	if err != nil {
		return entities.Entry{}, err
	}
	if !found {
		return entities.Entry{}, domainerrors.ErrUserNotRanked
	}
	return entry, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLeaderboardLimit
	}
	return limit
}
