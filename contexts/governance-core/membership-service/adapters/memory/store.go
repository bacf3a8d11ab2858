package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/membership-service/domain/entities"
	domainerrors "agora/contexts/governance-core/membership-service/domain/errors"
	"agora/contexts/governance-core/membership-service/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	memberships map[string]entities.Membership
	requests    map[string]entities.MembershipRequest
	bans        map[string]entities.BanRecord
	appeals     map[string]entities.Appeal
	logEntries  []entities.ModerationLogEntry
	idempotency map[string]ports.IdempotencyRecord

	communities map[string]ports.CommunityInfo

	NowFunc func() time.Time
}

func pairKey(communityID string, userID string) string {
	return strings.TrimSpace(communityID) + "|" + strings.TrimSpace(userID)
}

func NewStore(seed []entities.Membership) *Store {
	memberships := make(map[string]entities.Membership, len(seed))
	for _, membership := range seed {
		memberships[pairKey(membership.CommunityID, membership.UserID)] = membership
	}
	return &Store{
		memberships: memberships,
		requests:    make(map[string]entities.MembershipRequest),
		bans:        make(map[string]entities.BanRecord),
		appeals:     make(map[string]entities.Appeal),
		idempotency: make(map[string]ports.IdempotencyRecord),
		communities: make(map[string]ports.CommunityInfo),
	}
}

// SetCommunityInfo seeds the community projection used when the store stands
// in for the community directory port.
func (s *Store) SetCommunityInfo(info ports.CommunityInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communities[strings.TrimSpace(info.CommunityID)] = info
}

func (s *Store) SetMembership(membership entities.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[pairKey(membership.CommunityID, membership.UserID)] = membership
}

func (s *Store) SetBan(ban entities.BanRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bans[strings.TrimSpace(ban.BanID)] = ban
}

func (s *Store) GetCommunityInfo(_ context.Context, communityID string) (ports.CommunityInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.communities[strings.TrimSpace(communityID)]
	if !ok {
		return ports.CommunityInfo{}, domainerrors.ErrInvalidMembershipInput
	}
	return info, nil
}

func (s *Store) MemberJoined(_ context.Context, _ string) error { return nil }
func (s *Store) MemberLeft(_ context.Context, _ string) error   { return nil }

func (s *Store) SaveMembership(_ context.Context, membership entities.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(membership.CommunityID, membership.UserID)
	if existing, ok := s.memberships[key]; ok && existing.MembershipID != membership.MembershipID {
		return domainerrors.ErrConflict
	}
	s.memberships[key] = membership
	return nil
}

func (s *Store) GetMembership(_ context.Context, communityID string, userID string) (entities.Membership, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	membership, ok := s.memberships[pairKey(communityID, userID)]
	return membership, ok, nil
}

func (s *Store) ListMembers(_ context.Context, communityID string, limit int, offset int) ([]entities.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID = strings.TrimSpace(communityID)
	items := make([]entities.Membership, 0)
	for _, membership := range s.memberships {
		if membership.CommunityID == communityID && membership.IsActive {
			items = append(items, membership)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].JoinedAt.Before(items[j].JoinedAt)
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

func (s *Store) CountActiveMembers(_ context.Context, communityID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID = strings.TrimSpace(communityID)
	var count int64
	for _, membership := range s.memberships {
		if membership.CommunityID == communityID && membership.IsActive {
			count++
		}
	}
	return count, nil
}

func (s *Store) SaveRequest(_ context.Context, request entities.MembershipRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[strings.TrimSpace(request.RequestID)] = request
	return nil
}

func (s *Store) GetRequest(_ context.Context, requestID string) (entities.MembershipRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[strings.TrimSpace(requestID)]
	if !ok {
		return entities.MembershipRequest{}, domainerrors.ErrRequestNotFound
	}
	return request, nil
}

func (s *Store) GetPendingRequest(_ context.Context, communityID string, requesterID string) (entities.MembershipRequest, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID = strings.TrimSpace(communityID)
	requesterID = strings.TrimSpace(requesterID)
	for _, request := range s.requests {
		if request.CommunityID == communityID && request.RequesterID == requesterID && request.Status == entities.RequestPending {
			return request, true, nil
		}
	}
	return entities.MembershipRequest{}, false, nil
}

func (s *Store) ListPendingRequests(_ context.Context, communityID string, limit int) ([]entities.MembershipRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID = strings.TrimSpace(communityID)
	items := make([]entities.MembershipRequest, 0)
	for _, request := range s.requests {
		if request.CommunityID == communityID && request.Status == entities.RequestPending {
			items = append(items, request)
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

func (s *Store) SaveBan(_ context.Context, ban entities.BanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bans[strings.TrimSpace(ban.BanID)] = ban
	return nil
}

func (s *Store) GetBan(_ context.Context, banID string) (entities.BanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ban, ok := s.bans[strings.TrimSpace(banID)]
	if !ok {
		return entities.BanRecord{}, domainerrors.ErrBanNotFound
	}
	return ban, nil
}

func (s *Store) GetActiveBan(_ context.Context, communityID string, userID string) (entities.BanRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID = strings.TrimSpace(communityID)
	userID = strings.TrimSpace(userID)
	for _, ban := range s.bans {
		if ban.CommunityID == communityID && ban.UserID == userID && ban.IsActive {
			return ban, true, nil
		}
	}
	return entities.BanRecord{}, false, nil
}

func (s *Store) ListActiveBans(_ context.Context, communityID string, limit int) ([]entities.BanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID = strings.TrimSpace(communityID)
	items := make([]entities.BanRecord, 0)
	for _, ban := range s.bans {
		if ban.CommunityID == communityID && ban.IsActive {
			items = append(items, ban)
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

func (s *Store) ListExpiredBans(_ context.Context, now time.Time, limit int) ([]entities.BanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.BanRecord, 0)
	for _, ban := range s.bans {
		if ban.IsActive && ban.Expired(now) {
			items = append(items, ban)
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

func (s *Store) SaveAppeal(_ context.Context, appeal entities.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appeals[strings.TrimSpace(appeal.AppealID)] = appeal
	return nil
}

func (s *Store) GetAppeal(_ context.Context, appealID string) (entities.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appeal, ok := s.appeals[strings.TrimSpace(appealID)]
	if !ok {
		return entities.Appeal{}, domainerrors.ErrAppealNotFound
	}
	return appeal, nil
}

func (s *Store) GetAppealByBan(_ context.Context, banID string) (entities.Appeal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	banID = strings.TrimSpace(banID)
	for _, appeal := range s.appeals {
		if appeal.BanID == banID {
			return appeal, true, nil
		}
	}
	return entities.Appeal{}, false, nil
}

func (s *Store) ListPendingAppeals(_ context.Context, communityID string, limit int) ([]entities.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID = strings.TrimSpace(communityID)
	items := make([]entities.Appeal, 0)
	for _, appeal := range s.appeals {
		if appeal.CommunityID == communityID && appeal.Status == entities.AppealPending {
			items = append(items, appeal)
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

func (s *Store) AppendLogEntry(_ context.Context, entry entities.ModerationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logEntries = append(s.logEntries, entry)
	return nil
}

func (s *Store) ListLogEntries(_ context.Context, communityID string, limit int, offset int) ([]entities.ModerationLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID = strings.TrimSpace(communityID)
	items := make([]entities.ModerationLogEntry, 0)
	for _, entry := range s.logEntries {
		if entry.CommunityID == communityID {
			items = append(items, entry)
		}
	}
	if offset >= len(items) {
		return nil, nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
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
