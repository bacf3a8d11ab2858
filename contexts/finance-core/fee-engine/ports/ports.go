package ports

import (
	"context"
	"time"

	"agora/contexts/finance-core/fee-engine/domain/entities"
	contractsv1 "agora/contracts/gen/events/v1"
)

type FeePoolRepository interface {
	SavePool(ctx context.Context, pool entities.FeePool) error
	GetPool(ctx context.Context) (entities.FeePool, bool, error)
	// DebitBalance checks and debits the balance in a single atomic step.
	// It fails with ErrInsufficientFunds when the balance is below amount.
	DebitBalance(ctx context.Context, amount uint64, updatedAt time.Time) (entities.FeePool, error)
}

type RewardRepository interface {
	SaveReward(ctx context.Context, record entities.RewardRecord) error
	GetReward(ctx context.Context, userID string) (entities.RewardRecord, bool, error)
}

// ReputationReader resolves a claimant's reputation from the user ledger.
type ReputationReader interface {
	Reputation(ctx context.Context, userID string) (int64, error)
}

// CommunityFeeRecorder accrues collected fees on the community aggregate.
type CommunityFeeRecorder interface {
	FeeAccrued(ctx context.Context, communityID string, amount uint64) error
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
