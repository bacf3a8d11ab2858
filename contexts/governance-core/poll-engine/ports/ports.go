package ports

import (
	"context"
	"time"

	"agora/contexts/governance-core/poll-engine/domain/entities"
	contractsv1 "agora/contracts/gen/events/v1"
)

type PollRepository interface {
	SavePoll(ctx context.Context, poll entities.Poll) error
	GetPoll(ctx context.Context, pollID string) (entities.Poll, error)
	ListPollsByCommunity(ctx context.Context, communityID string, status entities.PollStatus, limit int, offset int) ([]entities.Poll, error)
	ListOpenPolls(ctx context.Context, limit int) ([]entities.Poll, error)
}

type ParticipationRepository interface {
	SaveParticipation(ctx context.Context, participation entities.Participation) error
	GetParticipation(ctx context.Context, pollID string, voterID string) (entities.Participation, bool, error)
	ListParticipants(ctx context.Context, pollID string) ([]entities.Participation, error)
	SaveConfidenceBallot(ctx context.Context, ballot entities.ConfidenceBallot) error
	GetConfidenceBallot(ctx context.Context, pollID string, voterID string) (entities.ConfidenceBallot, bool, error)
}

// WeightStrategy converts a voter's reputation into the weight applied to
// weighted tallies.
type WeightStrategy interface {
	Weight(reputation int64) float64
}

// MembershipGuard answers membership questions for the poll's community.
type MembershipGuard interface {
	ActiveMember(ctx context.Context, communityID string, userID string) (bool, error)
	CanModerate(ctx context.Context, communityID string, userID string) (bool, error)
	CountActiveMembers(ctx context.Context, communityID string) (int64, error)
}

// UserProfile is the projection of a voter the poll engine needs.
type UserProfile struct {
	UserID     string
	Reputation int64
	FeeTier    string
	FeeAmount  uint64
}

// UserDirectory exposes the reputation operations the poll lifecycle drives.
type UserDirectory interface {
	GetProfile(ctx context.Context, userID string) (UserProfile, error)
	GrantReputation(ctx context.Context, userID string, delta int64, reason string) error
	RecordVoteCast(ctx context.Context, userID string) error
	RecordVoteCreated(ctx context.Context, userID string) error
}

// FeeCollector charges the poll creation fee into the shared pool.
type FeeCollector interface {
	CollectFee(ctx context.Context, payerID string, communityID string, pollID string, amount uint64) error
}

// CommunityCounter keeps the community aggregate counters in step.
type CommunityCounter interface {
	VoteCreated(ctx context.Context, communityID string, fee uint64) error
}

// ModerationLogger records moderator-forced poll closures in the community
// moderation log.
type ModerationLogger interface {
	RecordPollModeration(ctx context.Context, communityID string, moderatorID string, pollID string, action string, reason string) error
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
