package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"agora/contexts/community-experience/leaderboard-service/application"
	"agora/contexts/community-experience/leaderboard-service/domain/entities"
	httptransport "agora/contexts/community-experience/leaderboard-service/transport/http"
)

type Handler struct {
	Queries application.Queries
	Logger  *slog.Logger
}

func (h Handler) GetGlobalLeaderboardHandler(ctx context.Context, limit int) (httptransport.LeaderboardResponse, error) {
	entries, err := h.Queries.GetGlobalLeaderboard(ctx, limit)
	if err != nil {
		return httptransport.LeaderboardResponse{}, err
	}
	return toLeaderboardResponse("global", entries), nil
}

func (h Handler) GetCommunityLeaderboardHandler(ctx context.Context, communityID string, limit int) (httptransport.LeaderboardResponse, error) {
	entries, err := h.Queries.GetCommunityLeaderboard(ctx, communityID, limit)
	if err != nil {
		return httptransport.LeaderboardResponse{}, err
	}
	return toLeaderboardResponse("community:"+strings.TrimSpace(communityID), entries), nil
}

func (h Handler) GetUserRankHandler(ctx context.Context, communityID string, userID string) (httptransport.UserRankResponse, error) {
	entry, err := h.Queries.GetUserRank(ctx, communityID, userID)
	if err != nil {
		return httptransport.UserRankResponse{}, err
	}
	scope := "global"
	if communityID = strings.TrimSpace(communityID); communityID != "" {
		scope = "community:" + communityID
	}
	return httptransport.UserRankResponse{
		UserID: entry.UserID,
		Scope:  scope,
		Rank:   entry.Rank,
		Score:  entry.Score,
	}, nil
}

func toLeaderboardResponse(scope string, entries []entities.Entry) httptransport.LeaderboardResponse {
	items := make([]httptransport.LeaderboardEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, httptransport.LeaderboardEntryResponse{
			Rank:   entry.Rank,
			UserID: entry.UserID,
			Score:  entry.Score,
		})
	}
	return httptransport.LeaderboardResponse{Scope: scope, Entries: items}
}
