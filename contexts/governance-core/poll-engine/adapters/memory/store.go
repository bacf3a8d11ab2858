package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/poll-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/poll-engine/domain/errors"
	"agora/contexts/governance-core/poll-engine/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing every poll-engine port, including
// the cross-context guard ports so the module can run self-contained in
// tests.
type Store struct {
	mu sync.RWMutex

	polls          map[string]entities.Poll
	participations map[string]entities.Participation
	ballots        map[string]entities.ConfidenceBallot
	idempotency    map[string]ports.IdempotencyRecord

	outbox    []ports.OutboxMessage
	published map[string]time.Time

	members    map[string]memberInfo
	profiles   map[string]ports.UserProfile
	reputation map[string]int64
	feesPaid   map[string]uint64

	moderationLog []ModerationEntry

	NowFunc func() time.Time
}

type memberInfo struct {
	active    bool
	moderator bool
}

// ModerationEntry captures RecordPollModeration calls for test assertions.
type ModerationEntry struct {
	CommunityID string
	ModeratorID string
	PollID      string
	Action      string
	Reason      string
}

func pairKey(a string, b string) string {
	return strings.TrimSpace(a) + "|" + strings.TrimSpace(b)
}

func NewStore(seed []entities.Poll) *Store {
	polls := make(map[string]entities.Poll, len(seed))
	for _, poll := range seed {
		polls[poll.PollID] = poll
	}
	return &Store{
		polls:          polls,
		participations: make(map[string]entities.Participation),
		ballots:        make(map[string]entities.ConfidenceBallot),
		idempotency:    make(map[string]ports.IdempotencyRecord),
		published:      make(map[string]time.Time),
		members:        make(map[string]memberInfo),
		profiles:       make(map[string]ports.UserProfile),
		reputation:     make(map[string]int64),
		feesPaid:       make(map[string]uint64),
	}
}

// SetMember seeds the membership projection used when the store stands in
// for the membership guard port.
func (s *Store) SetMember(communityID string, userID string, active bool, moderator bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[pairKey(communityID, userID)] = memberInfo{active: active, moderator: moderator}
}

// SetProfile seeds the user projection used when the store stands in for
// the user directory port.
func (s *Store) SetProfile(profile ports.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[strings.TrimSpace(profile.UserID)] = profile
	s.reputation[strings.TrimSpace(profile.UserID)] = profile.Reputation
}

func (s *Store) SetPoll(poll entities.Poll) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[strings.TrimSpace(poll.PollID)] = poll
}

// Reputation reports the tracked reputation for a user, for test assertions.
func (s *Store) Reputation(userID string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reputation[strings.TrimSpace(userID)]
}

// FeesCollected reports the total fee amount charged to a payer.
func (s *Store) FeesCollected(payerID string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feesPaid[strings.TrimSpace(payerID)]
}

// ModerationEntries returns the recorded moderation calls.
func (s *Store) ModerationEntries() []ModerationEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]ModerationEntry, len(s.moderationLog))
	copy(entries, s.moderationLog)
	return entries
}

func (s *Store) SavePoll(_ context.Context, poll entities.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[strings.TrimSpace(poll.PollID)] = poll
	return nil
}

func (s *Store) GetPoll(_ context.Context, pollID string) (entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	return poll, nil
}

func (s *Store) ListPollsByCommunity(_ context.Context, communityID string, status entities.PollStatus, limit int, offset int) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID = strings.TrimSpace(communityID)
	items := make([]entities.Poll, 0)
	for _, poll := range s.polls {
		if poll.CommunityID != communityID {
			continue
		}
		if status != "" && poll.Status != status {
			continue
		}
		items = append(items, poll)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].PollID < items[j].PollID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if offset >= len(items) {
		return nil, nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListOpenPolls(_ context.Context, limit int) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Poll, 0)
	for _, poll := range s.polls {
		if poll.Status.Terminal() {
			continue
		}
		items = append(items, poll)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].PollID < items[j].PollID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) SaveParticipation(_ context.Context, participation entities.Participation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(participation.PollID, participation.VoterID)
	if _, exists := s.participations[key]; exists {
		return domainerrors.ErrAlreadyVoted
	}
	s.participations[key] = participation
	return nil
}

func (s *Store) GetParticipation(_ context.Context, pollID string, voterID string) (entities.Participation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	participation, ok := s.participations[pairKey(pollID, voterID)]
	return participation, ok, nil
}

func (s *Store) ListParticipants(_ context.Context, pollID string) ([]entities.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pollID = strings.TrimSpace(pollID)
	items := make([]entities.Participation, 0)
	for _, participation := range s.participations {
		if participation.PollID == pollID {
			items = append(items, participation)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].VotedAt.Before(items[j].VotedAt)
	})
	return items, nil
}

func (s *Store) SaveConfidenceBallot(_ context.Context, ballot entities.ConfidenceBallot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(ballot.PollID, ballot.VoterID)
	if _, exists := s.ballots[key]; exists {
		return domainerrors.ErrAlreadyVotedConfidence
	}
	s.ballots[key] = ballot
	return nil
}

func (s *Store) GetConfidenceBallot(_ context.Context, pollID string, voterID string) (entities.ConfidenceBallot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[pairKey(pollID, voterID)]
	return ballot, ok, nil
}

func (s *Store) ActiveMember(_ context.Context, communityID string, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.members[pairKey(communityID, userID)]
	return ok && info.active, nil
}

func (s *Store) CanModerate(_ context.Context, communityID string, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.members[pairKey(communityID, userID)]
	return ok && info.active && info.moderator, nil
}

func (s *Store) CountActiveMembers(_ context.Context, communityID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID = strings.TrimSpace(communityID)
	var count int64
	for key, info := range s.members {
		if strings.HasPrefix(key, communityID+"|") && info.active {
			count++
		}
	}
	return count, nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (ports.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[strings.TrimSpace(userID)]
	if !ok {
		return ports.UserProfile{}, domainerrors.ErrInvalidPollInput
	}
	profile.Reputation = s.reputation[strings.TrimSpace(userID)]
	return profile, nil
}

func (s *Store) GrantReputation(_ context.Context, userID string, delta int64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID = strings.TrimSpace(userID)
	next := s.reputation[userID] + delta
	if next < 0 {
		next = 0
	}
	s.reputation[userID] = next
	return nil
}

func (s *Store) RecordVoteCast(_ context.Context, _ string) error    { return nil }
func (s *Store) RecordVoteCreated(_ context.Context, _ string) error { return nil }

func (s *Store) CollectFee(_ context.Context, payerID string, _ string, _ string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feesPaid[strings.TrimSpace(payerID)] += amount
	return nil
}

func (s *Store) VoteCreated(_ context.Context, _ string, _ uint64) error { return nil }

func (s *Store) RecordPollModeration(_ context.Context, communityID string, moderatorID string, pollID string, action string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moderationLog = append(s.moderationLog, ModerationEntry{
		CommunityID: communityID,
		ModeratorID: moderatorID,
		PollID:      pollID,
		Action:      action,
		Reason:      reason,
	})
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
