package ports

import (
	"context"
	"time"

	"agora/contexts/community-experience/leaderboard-service/domain/entities"
	contractsv1 "agora/contracts/gen/events/v1"
)

// EventEnvelope is the shared event contract consumed off the bus.
type EventEnvelope = contractsv1.Envelope

// ScoreRepository maintains the global and per-community scoreboards.
type ScoreRepository interface {
	IncrementGlobal(ctx context.Context, userID string, delta float64) error
	IncrementCommunity(ctx context.Context, communityID string, userID string, delta float64) error
	TopGlobal(ctx context.Context, limit int) ([]entities.Entry, error)
	TopCommunity(ctx context.Context, communityID string, limit int) ([]entities.Entry, error)
	GlobalRank(ctx context.Context, userID string) (entities.Entry, bool, error)
	CommunityRank(ctx context.Context, communityID string, userID string) (entities.Entry, bool, error)
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(ctx context.Context, event EventEnvelope) error,
	) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type Clock interface {
	Now() time.Time
}
