package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/moderation-safety/report-service/domain/entities"
	domainerrors "agora/contexts/moderation-safety/report-service/domain/errors"
	"agora/contexts/moderation-safety/report-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing every report-service port,
// including the poll directory and membership guard stand-ins for tests.
type Store struct {
	mu sync.RWMutex

	reports  map[string]entities.Report
	counters map[string]entities.ReportCounter

	polls   map[string]ports.PollInfo
	members map[string]memberInfo

	cancelled     []CancelCall
	moderationLog []ModerationEntry

	idempotency map[string]ports.IdempotencyRecord
	outbox      []ports.OutboxMessage
	published   map[string]time.Time

	NowFunc func() time.Time
}

type memberInfo struct {
	active    bool
	moderator bool
}

// CancelCall captures a CancelPoll invocation for test assertions.
type CancelCall struct {
	PollID      string
	ModeratorID string
	Reason      string
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

func NewStore() *Store {
	return &Store{
		reports:     make(map[string]entities.Report),
		counters:    make(map[string]entities.ReportCounter),
		polls:       make(map[string]ports.PollInfo),
		members:     make(map[string]memberInfo),
		idempotency: make(map[string]ports.IdempotencyRecord),
		published:   make(map[string]time.Time),
	}
}

// SetPollInfo seeds the poll projection used when the store stands in for
// the poll directory port.
func (s *Store) SetPollInfo(info ports.PollInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[strings.TrimSpace(info.PollID)] = info
}

// SetMember seeds the membership projection used when the store stands in
// for the membership guard port.
func (s *Store) SetMember(communityID string, userID string, active bool, moderator bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[pairKey(communityID, userID)] = memberInfo{active: active, moderator: moderator}
}

// CancelledPolls returns the recorded CancelPoll calls.
func (s *Store) CancelledPolls() []CancelCall {
	s.mu.RLock()
	defer s.mu.RUnlock()
	calls := make([]CancelCall, len(s.cancelled))
	copy(calls, s.cancelled)
	return calls
}

// ModerationEntries returns the recorded moderation calls.
func (s *Store) ModerationEntries() []ModerationEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]ModerationEntry, len(s.moderationLog))
	copy(entries, s.moderationLog)
	return entries
}

// PendingOutbox returns the undelivered outbox rows.
func (s *Store) PendingOutbox() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if _, done := s.published[row.OutboxID]; !done {
			items = append(items, row)
		}
	}
	return items
}

func (s *Store) SaveReport(_ context.Context, report entities.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[strings.TrimSpace(report.ReportID)] = report
	return nil
}

func (s *Store) GetReport(_ context.Context, reportID string) (entities.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[strings.TrimSpace(reportID)]
	if !ok {
		return entities.Report{}, domainerrors.ErrReportNotFound
	}
	return report, nil
}

func (s *Store) GetReportByReporter(_ context.Context, pollID string, reporterID string) (entities.Report, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pollID = strings.TrimSpace(pollID)
	reporterID = strings.TrimSpace(reporterID)
	for _, report := range s.reports {
		if report.PollID == pollID && report.ReporterID == reporterID {
			return report, true, nil
		}
	}
	return entities.Report{}, false, nil
}

func (s *Store) ListReportsByPoll(_ context.Context, pollID string, limit int) ([]entities.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pollID = strings.TrimSpace(pollID)
	items := make([]entities.Report, 0)
	for _, report := range s.reports {
		if report.PollID == pollID {
			items = append(items, report)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) SaveCounter(_ context.Context, counter entities.ReportCounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[strings.TrimSpace(counter.PollID)] = counter
	return nil
}

func (s *Store) GetCounter(_ context.Context, pollID string) (entities.ReportCounter, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counter, ok := s.counters[strings.TrimSpace(pollID)]
	return counter, ok, nil
}

func (s *Store) GetPollInfo(_ context.Context, pollID string) (ports.PollInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return ports.PollInfo{}, domainerrors.ErrPollNotFound
	}
	return info, nil
}

func (s *Store) CancelPoll(_ context.Context, pollID string, moderatorID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, CancelCall{
		PollID:      strings.TrimSpace(pollID),
		ModeratorID: strings.TrimSpace(moderatorID),
		Reason:      reason,
	})
	return nil
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
