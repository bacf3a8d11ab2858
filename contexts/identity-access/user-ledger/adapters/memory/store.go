package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"agora/contexts/identity-access/user-ledger/domain/entities"
	domainerrors "agora/contexts/identity-access/user-ledger/domain/errors"
	"agora/contexts/identity-access/user-ledger/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	users       map[string]entities.User
	walletIndex map[string]string
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord

	// NowFunc lets tests pin or advance the clock; nil means wall clock.
	NowFunc func() time.Time
}

func NewStore(seed []entities.User) *Store {
	users := make(map[string]entities.User, len(seed))
	wallets := make(map[string]string, len(seed))
	for _, user := range seed {
		users[user.UserID] = user
		wallets[user.Wallet] = user.UserID
	}
	return &Store{
		users:       users,
		walletIndex: wallets,
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) SetUser(user entities.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.TrimSpace(user.UserID)] = user
	s.walletIndex[strings.TrimSpace(user.Wallet)] = strings.TrimSpace(user.UserID)
}

func (s *Store) SaveUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := strings.TrimSpace(user.UserID)
	if existingID, ok := s.walletIndex[strings.TrimSpace(user.Wallet)]; ok && existingID != userID {
		return domainerrors.ErrConflict
	}
	s.users[userID] = user
	s.walletIndex[strings.TrimSpace(user.Wallet)] = userID
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[strings.TrimSpace(userID)]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByWallet(_ context.Context, wallet string) (entities.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.walletIndex[strings.TrimSpace(wallet)]
	if !ok {
		return entities.User{}, false, nil
	}
	user, ok := s.users[userID]
	if !ok {
		return entities.User{}, false, nil
	}
	return user, true, nil
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
	if existing, ok := s.outbox[outboxID]; ok && existing.published {
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
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
