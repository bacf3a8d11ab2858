package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"agora/contexts/finance-core/fee-engine/domain/entities"
	domainerrors "agora/contexts/finance-core/fee-engine/domain/errors"
	"agora/contexts/finance-core/fee-engine/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing every fee-engine port, including
// the reputation reader and community recorder stand-ins for tests.
type Store struct {
	mu sync.RWMutex

	pool    *entities.FeePool
	rewards map[string]entities.RewardRecord

	reputation   map[string]int64
	communityFee map[string]uint64

	idempotency map[string]ports.IdempotencyRecord
	outbox      []ports.OutboxMessage
	published   map[string]time.Time

	NowFunc func() time.Time
}

func NewStore() *Store {
	return &Store{
		rewards:      make(map[string]entities.RewardRecord),
		reputation:   make(map[string]int64),
		communityFee: make(map[string]uint64),
		idempotency:  make(map[string]ports.IdempotencyRecord),
		published:    make(map[string]time.Time),
	}
}

// SetReputation seeds the reputation projection used when the store stands
// in for the user ledger port.
func (s *Store) SetReputation(userID string, reputation int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reputation[strings.TrimSpace(userID)] = reputation
}

func (s *Store) SetPool(pool entities.FeePool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = &pool
}

// CommunityFee reports the accrued fee total for a community, for test
// assertions.
func (s *Store) CommunityFee(communityID string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.communityFee[strings.TrimSpace(communityID)]
}

func (s *Store) SavePool(_ context.Context, pool entities.FeePool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = &pool
	return nil
}

func (s *Store) DebitBalance(_ context.Context, amount uint64, updatedAt time.Time) (entities.FeePool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return entities.FeePool{}, domainerrors.ErrPoolNotInitialized
	}
	if amount > s.pool.Balance {
		return entities.FeePool{}, domainerrors.ErrInsufficientFunds
	}
	s.pool.Balance -= amount
	s.pool.UpdatedAt = updatedAt.UTC()
	return *s.pool, nil
}

func (s *Store) GetPool(_ context.Context) (entities.FeePool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pool == nil {
		return entities.FeePool{}, false, nil
	}
	return *s.pool, true, nil
}

func (s *Store) SaveReward(_ context.Context, record entities.RewardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rewards[strings.TrimSpace(record.UserID)] = record
	return nil
}

func (s *Store) GetReward(_ context.Context, userID string) (entities.RewardRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.rewards[strings.TrimSpace(userID)]
	return record, ok, nil
}

func (s *Store) Reputation(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reputation, ok := s.reputation[strings.TrimSpace(userID)]
	if !ok {
		return 0, domainerrors.ErrInvalidFeeInput
	}
	return reputation, nil
}

func (s *Store) FeeAccrued(_ context.Context, communityID string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communityFee[strings.TrimSpace(communityID)] += amount
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	s.outbox = append(s.outbox, ports.OutboxMessage{
		OutboxID:     outboxID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		CreatedAt:    time.Now().UTC(),
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if _, done := s.published[row.OutboxID]; done {
			continue
		}
		items = append(items, row)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[strings.TrimSpace(outboxID)] = publishedAt
	return nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = strings.TrimSpace(key)
	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idempotency[strings.TrimSpace(record.Key)] = record
	return nil
}

func (s *Store) Now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
