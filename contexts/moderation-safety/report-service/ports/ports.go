package ports

import (
	"context"
	"time"

	"agora/contexts/moderation-safety/report-service/domain/entities"
	contractsv1 "agora/contracts/gen/events/v1"
)

type ReportRepository interface {
	SaveReport(ctx context.Context, report entities.Report) error
	GetReport(ctx context.Context, reportID string) (entities.Report, error)
	GetReportByReporter(ctx context.Context, pollID string, reporterID string) (entities.Report, bool, error)
	ListReportsByPoll(ctx context.Context, pollID string, limit int) ([]entities.Report, error)
}

type CounterRepository interface {
	SaveCounter(ctx context.Context, counter entities.ReportCounter) error
	GetCounter(ctx context.Context, pollID string) (entities.ReportCounter, bool, error)
}

// PollInfo is the projection of a poll the report pipeline needs.
type PollInfo struct {
	PollID      string
	CommunityID string
	CreatorID   string
	Status      string
}

// PollDirectory resolves polls and applies moderator-forced closures.
type PollDirectory interface {
	GetPollInfo(ctx context.Context, pollID string) (PollInfo, error)
	CancelPoll(ctx context.Context, pollID string, moderatorID string, reason string) error
}

// MembershipGuard answers membership questions for the reported poll's
// community.
type MembershipGuard interface {
	ActiveMember(ctx context.Context, communityID string, userID string) (bool, error)
	CanModerate(ctx context.Context, communityID string, userID string) (bool, error)
}

// ModerationLogger records report outcomes in the community moderation log.
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
