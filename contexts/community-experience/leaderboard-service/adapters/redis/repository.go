package redisadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"agora/contexts/community-experience/leaderboard-service/domain/entities"
	"agora/contexts/community-experience/leaderboard-service/ports"
)

const (
	globalBoardKey     = "leaderboard:global"
	communityBoardKey  = "leaderboard:community:"
	eventDedupKeySpace = "leaderboard:event:"
)

// Repository keeps the scoreboards in redis sorted sets. Scores are a
// derived projection and can be rebuilt by replaying the event stream.
type Repository struct {
	Client *redis.Client
	Logger *slog.Logger
}

func NewRepository(client *redis.Client, logger *slog.Logger) *Repository {
	return &Repository{Client: client, Logger: logger}
}

func communityKey(communityID string) string {
	return communityBoardKey + strings.TrimSpace(communityID)
}

func (r *Repository) IncrementGlobal(ctx context.Context, userID string, delta float64) error {
	if err := r.Client.ZIncrBy(ctx, globalBoardKey, delta, strings.TrimSpace(userID)).Err(); err != nil {
		r.logError(ctx, "increment_global_score", err)
		return fmt.Errorf("increment global score: %w", err)
	}
	return nil
}

func (r *Repository) IncrementCommunity(ctx context.Context, communityID string, userID string, delta float64) error {
	if err := r.Client.ZIncrBy(ctx, communityKey(communityID), delta, strings.TrimSpace(userID)).Err(); err != nil {
		r.logError(ctx, "increment_community_score", err)
		return fmt.Errorf("increment community score: %w", err)
	}
	return nil
}

func (r *Repository) TopGlobal(ctx context.Context, limit int) ([]entities.Entry, error) {
	return r.top(ctx, globalBoardKey, limit)
}

func (r *Repository) TopCommunity(ctx context.Context, communityID string, limit int) ([]entities.Entry, error) {
	return r.top(ctx, communityKey(communityID), limit)
}

func (r *Repository) top(ctx context.Context, key string, limit int) ([]entities.Entry, error) {
	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}
	rows, err := r.Client.ZRevRangeWithScores(ctx, key, 0, stop).Result()
	if err != nil {
		r.logError(ctx, "list_top_scores", err)
		return nil, fmt.Errorf("list top scores: %w", err)
	}
	entries := make([]entities.Entry, 0, len(rows))
	for i, row := range rows {
		userID, _ := row.Member.(string)
		entries = append(entries, entities.Entry{
			UserID: userID,
			Score:  row.Score,
			Rank:   int64(i + 1),
		})
	}
	return entries, nil
}

func (r *Repository) GlobalRank(ctx context.Context, userID string) (entities.Entry, bool, error) {
	return r.rank(ctx, globalBoardKey, userID)
}

func (r *Repository) CommunityRank(ctx context.Context, communityID string, userID string) (entities.Entry, bool, error) {
	return r.rank(ctx, communityKey(communityID), userID)
}

func (r *Repository) rank(ctx context.Context, key string, userID string) (entities.Entry, bool, error) {
	userID = strings.TrimSpace(userID)
	position, err := r.Client.ZRevRank(ctx, key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return entities.Entry{}, false, nil
	}
	if err != nil {
		r.logError(ctx, "get_rank", err)
		return entities.Entry{}, false, fmt.Errorf("get rank: %w", err)
	}
	score, err := r.Client.ZScore(ctx, key, userID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.logError(ctx, "get_score", err)
		return entities.Entry{}, false, fmt.Errorf("get score: %w", err)
	}
	return entities.Entry{UserID: userID, Score: score, Rank: position + 1}, true, nil
}

func (r *Repository) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	reserved, err := r.Client.SetNX(ctx, eventDedupKeySpace+strings.TrimSpace(eventID), payloadHash, ttl).Result()
	if err != nil {
		r.logError(ctx, "reserve_event", err)
		return false, fmt.Errorf("reserve event: %w", err)
	}
	return !reserved, nil
}

func (r *Repository) logError(ctx context.Context, event string, err error) {
	if r.Logger == nil {
		return
	}
	r.Logger.ErrorContext(ctx, event,
		slog.String("module", "leaderboard-service"),
		slog.String("layer", "adapters.redis"),
		slog.String("error", err.Error()),
	)
}

var (
	_ ports.ScoreRepository = (*Repository)(nil)
	_ ports.EventDedupStore = (*Repository)(nil)
)
