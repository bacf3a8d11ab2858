package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/community-experience/leaderboard-service/domain/entities"
	"agora/contexts/community-experience/leaderboard-service/ports"
)

// Store is the in-memory adapter backing every leaderboard-service port.
// Its Subscribe/Publish pair forms a synchronous in-process bus so the
// consumer can be exercised without a broker.
type Store struct {
	mu sync.RWMutex

	global    map[string]float64
	community map[string]map[string]float64

	dedup map[string]dedupRecord

	handlers map[string][]func(ctx context.Context, event ports.EventEnvelope) error

	NowFunc func() time.Time
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

func NewStore() *Store {
	return &Store{
		global:    make(map[string]float64),
		community: make(map[string]map[string]float64),
		dedup:     make(map[string]dedupRecord),
		handlers:  make(map[string][]func(ctx context.Context, event ports.EventEnvelope) error),
	}
}

// SetScore seeds a board directly. An empty communityID targets the
// global board.
func (s *Store) SetScore(communityID string, userID string, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(communityID) == "" {
		s.global[strings.TrimSpace(userID)] = score
		return
	}
	board := s.community[strings.TrimSpace(communityID)]
	if board == nil {
		board = make(map[string]float64)
		s.community[strings.TrimSpace(communityID)] = board
	}
	board[strings.TrimSpace(userID)] = score
}

func (s *Store) IncrementGlobal(_ context.Context, userID string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global[strings.TrimSpace(userID)] += delta
	return nil
}

func (s *Store) IncrementCommunity(_ context.Context, communityID string, userID string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	communityID = strings.TrimSpace(communityID)
	board := s.community[communityID]
	if board == nil {
		board = make(map[string]float64)
		s.community[communityID] = board
	}
	board[strings.TrimSpace(userID)] += delta
	return nil
}

func (s *Store) TopGlobal(_ context.Context, limit int) ([]entities.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankBoard(s.global, limit), nil
}

func (s *Store) TopCommunity(_ context.Context, communityID string, limit int) ([]entities.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankBoard(s.community[strings.TrimSpace(communityID)], limit), nil
}

func (s *Store) GlobalRank(_ context.Context, userID string) (entities.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findRank(s.global, userID)
}

func (s *Store) CommunityRank(_ context.Context, communityID string, userID string) (entities.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findRank(s.community[strings.TrimSpace(communityID)], userID)
}

func rankBoard(board map[string]float64, limit int) []entities.Entry {
	entries := make([]entities.Entry, 0, len(board))
	for userID, score := range board {
		entries = append(entries, entities.Entry{UserID: userID, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = int64(i + 1)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func findRank(board map[string]float64, userID string) (entities.Entry, bool, error) {
	userID = strings.TrimSpace(userID)
	if _, ok := board[userID]; !ok {
		return entities.Entry{}, false, nil
	}
	for _, entry := range rankBoard(board, 0) {
		if entry.UserID == userID {
			return entry, true, nil
		}
	}
	return entities.Entry{}, false, nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eventID = strings.TrimSpace(eventID)
	record, exists := s.dedup[eventID]
	if exists && record.expiresAt.After(s.now()) {
		return true, nil
	}
	s.dedup[eventID] = dedupRecord{payloadHash: payloadHash, expiresAt: expiresAt.UTC()}
	return false, nil
}

func (s *Store) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(ctx context.Context, event ports.EventEnvelope) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[topic] = append(s.handlers[topic], handler)
	return nil
}

// Publish dispatches an event synchronously to every handler subscribed
// to its topic.
func (s *Store) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	s.mu.RLock()
	handlers := append([]func(ctx context.Context, event ports.EventEnvelope) error(nil), s.handlers[topic]...)
	s.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}
