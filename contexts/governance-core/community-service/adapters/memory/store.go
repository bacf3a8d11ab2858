package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/community-service/domain/entities"
	domainerrors "agora/contexts/governance-core/community-service/domain/errors"
	"agora/contexts/governance-core/community-service/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	communities   map[string]entities.Community
	ownerIndex    map[string]string
	categories    map[string]entities.CustomCategory
	subscriptions map[string]entities.CategorySubscription
	idempotency   map[string]ports.IdempotencyRecord

	NowFunc func() time.Time
}

func ownerKey(authority string, name string) string {
	return strings.TrimSpace(authority) + "|" + strings.ToLower(strings.TrimSpace(name))
}

func subscriptionKey(userID string, category string) string {
	return strings.TrimSpace(userID) + "|" + strings.ToLower(strings.TrimSpace(category))
}

func categoryKey(communityID string, name string) string {
	return strings.TrimSpace(communityID) + "|" + strings.ToLower(strings.TrimSpace(name))
}

func NewStore(seed []entities.Community) *Store {
	communities := make(map[string]entities.Community, len(seed))
	owners := make(map[string]string, len(seed))
	for _, community := range seed {
		communities[community.CommunityID] = community
		owners[ownerKey(community.Authority, community.Name)] = community.CommunityID
	}
	return &Store{
		communities:   communities,
		ownerIndex:    owners,
		categories:    make(map[string]entities.CustomCategory),
		subscriptions: make(map[string]entities.CategorySubscription),
		idempotency:   make(map[string]ports.IdempotencyRecord),
	}
}

func (s *Store) SetCommunity(community entities.Community) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communities[strings.TrimSpace(community.CommunityID)] = community
	s.ownerIndex[ownerKey(community.Authority, community.Name)] = strings.TrimSpace(community.CommunityID)
}

func (s *Store) SaveCommunity(_ context.Context, community entities.Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	communityID := strings.TrimSpace(community.CommunityID)
	key := ownerKey(community.Authority, community.Name)
	if existingID, ok := s.ownerIndex[key]; ok && existingID != communityID {
		return domainerrors.ErrConflict
	}
	s.communities[communityID] = community
	s.ownerIndex[key] = communityID
	return nil
}

func (s *Store) GetCommunity(_ context.Context, communityID string) (entities.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	community, ok := s.communities[strings.TrimSpace(communityID)]
	if !ok {
		return entities.Community{}, domainerrors.ErrCommunityNotFound
	}
	return community, nil
}

func (s *Store) GetCommunityByAuthorityName(_ context.Context, authority string, name string) (entities.Community, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID, ok := s.ownerIndex[ownerKey(authority, name)]
	if !ok {
		return entities.Community{}, false, nil
	}
	community, ok := s.communities[communityID]
	if !ok {
		return entities.Community{}, false, nil
	}
	return community, true, nil
}

func (s *Store) ListCommunities(_ context.Context, category string, limit int, offset int) ([]entities.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Community, 0, len(s.communities))
	for _, community := range s.communities {
		if category != "" && community.Category != category {
			continue
		}
		items = append(items, community)
	}
	sort.Slice(items, func(i, j int) bool {
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

func (s *Store) SaveCustomCategory(_ context.Context, category entities.CustomCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := categoryKey(category.CommunityID, category.Name)
	if existing, ok := s.categories[key]; ok && existing.CategoryID != category.CategoryID {
		return domainerrors.ErrCategoryAlreadyExists
	}
	s.categories[key] = category
	return nil
}

func (s *Store) GetCustomCategoryByName(_ context.Context, communityID string, name string) (entities.CustomCategory, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, ok := s.categories[categoryKey(communityID, name)]
	return category, ok, nil
}

func (s *Store) ListCustomCategories(_ context.Context, communityID string) ([]entities.CustomCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID = strings.TrimSpace(communityID)
	items := make([]entities.CustomCategory, 0)
	for _, category := range s.categories {
		if category.CommunityID == communityID {
			items = append(items, category)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) SaveSubscription(_ context.Context, subscription entities.CategorySubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[subscriptionKey(subscription.UserID, subscription.Category)] = subscription
	return nil
}

func (s *Store) GetSubscription(_ context.Context, userID string, category string) (entities.CategorySubscription, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subscription, ok := s.subscriptions[subscriptionKey(userID, category)]
	return subscription, ok, nil
}

func (s *Store) DeleteSubscription(_ context.Context, userID string, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions, subscriptionKey(userID, category))
	return nil
}

func (s *Store) ListSubscriptions(_ context.Context, userID string) ([]entities.CategorySubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID = strings.TrimSpace(userID)
	items := make([]entities.CategorySubscription, 0)
	for _, subscription := range s.subscriptions {
		if subscription.UserID == userID {
			items = append(items, subscription)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
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
