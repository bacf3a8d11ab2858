package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/community-service/domain/entities"
	domainerrors "agora/contexts/governance-core/community-service/domain/errors"
	"agora/contexts/governance-core/community-service/ports"

	"github.com/google/uuid"
)

const (
	maxNameLength        = 50
	maxDescriptionLength = 200
	maxColorLength       = 7
	maxIconLength        = 10
)

// Service owns the community registry: creation, settings, categories, and
// the counters other modules accrue into.
type Service struct {
	Communities    ports.CommunityRepository
	Categories     ports.CategoryRepository
	Subscriptions  ports.SubscriptionRepository
	Idempotency    ports.IdempotencyStore
	AdminEnroller  ports.AdminEnroller
	Moderation     ports.ModerationGuard
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type CreateCommunityInput struct {
	AuthorityID           string
	Name                  string
	Description           string
	Category              string
	QuorumPercentage      int
	RequiresApproval      bool
	WeightedVotingDefault bool
}

type UpdateCommunityInput struct {
	CommunityID      string
	CallerID         string
	Description      *string
	QuorumPercentage *int
	RequiresApproval *bool
}

type CreateCustomCategoryInput struct {
	CommunityID string
	CallerID    string
	Name        string
	Color       string
	Icon        string
}

func (s Service) CreateCommunity(ctx context.Context, idempotencyKey string, input CreateCommunityInput) (entities.Community, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	input.AuthorityID = strings.TrimSpace(input.AuthorityID)
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.ToLower(strings.TrimSpace(input.Category))

	if idempotencyKey == "" {
		return entities.Community{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if input.AuthorityID == "" ||
		input.Name == "" || len(input.Name) > maxNameLength ||
		len(input.Description) > maxDescriptionLength ||
		input.QuorumPercentage < 1 || input.QuorumPercentage > 100 {
		return entities.Community{}, domainerrors.ErrInvalidCommunityInput
	}
	if input.Category == "" {
		input.Category = "general"
	}
	if !entities.IsBuiltinCategory(input.Category) {
		return entities.Community{}, domainerrors.ErrInvalidCategory
	}

	requestHash := hashStrings("create", input.AuthorityID, input.Name, input.Category,
		fmt.Sprintf("%d|%t|%t", input.QuorumPercentage, input.RequiresApproval, input.WeightedVotingDefault))
	var output entities.Community
	err := s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &output) },
		func() ([]byte, error) {
			if _, exists, err := s.Communities.GetCommunityByAuthorityName(ctx, input.AuthorityID, input.Name); err != nil {
				return nil, err
			} else if exists {
				return nil, domainerrors.ErrCommunityAlreadyExists
			}

			communityID, err := s.newID(ctx)
			if err != nil {
				return nil, err
			}
			now := s.now()
			community := entities.Community{
				CommunityID:           communityID,
				Authority:             input.AuthorityID,
				Name:                  input.Name,
				Description:           input.Description,
				Category:              input.Category,
				QuorumPercentage:      input.QuorumPercentage,
				RequiresApproval:      input.RequiresApproval,
				WeightedVotingDefault: input.WeightedVotingDefault,
				TotalMembers:          1,
				IsActive:              true,
				CreatedAt:             now,
				UpdatedAt:             now,
			}
			if err := s.Communities.SaveCommunity(ctx, community); err != nil {
				return nil, err
			}
			if s.AdminEnroller != nil {
				if err := s.AdminEnroller.EnrollAdmin(ctx, community.CommunityID, input.AuthorityID); err != nil {
					return nil, err
				}
			}
			resolveLogger(s.Logger).Info("community created",
				"event", "community_created",
				"module", "governance-core/community-service",
				"layer", "application",
				"community_id", community.CommunityID,
				"authority", community.Authority,
			)
			return json.Marshal(community)
		},
	)
	return output, err
}

func (s Service) UpdateCommunitySettings(ctx context.Context, idempotencyKey string, input UpdateCommunityInput) (entities.Community, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	input.CommunityID = strings.TrimSpace(input.CommunityID)
	input.CallerID = strings.TrimSpace(input.CallerID)

	if idempotencyKey == "" {
		return entities.Community{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if input.CommunityID == "" || input.CallerID == "" {
		return entities.Community{}, domainerrors.ErrInvalidCommunityInput
	}
	if input.Description != nil && len(strings.TrimSpace(*input.Description)) > maxDescriptionLength {
		return entities.Community{}, domainerrors.ErrInvalidCommunityInput
	}
	if input.QuorumPercentage != nil && (*input.QuorumPercentage < 1 || *input.QuorumPercentage > 100) {
		return entities.Community{}, domainerrors.ErrInvalidCommunityInput
	}

	requestHash := hashStrings("update", input.CommunityID, input.CallerID, fmt.Sprintf("%v|%v|%v",
		deref(input.Description), derefInt(input.QuorumPercentage), derefBool(input.RequiresApproval)))
	var output entities.Community
	err := s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &output) },
		func() ([]byte, error) {
			community, err := s.Communities.GetCommunity(ctx, input.CommunityID)
			if err != nil {
				return nil, err
			}
			if community.Authority != input.CallerID {
				return nil, domainerrors.ErrInsufficientPermissions
			}
			if input.Description != nil {
				community.Description = strings.TrimSpace(*input.Description)
			}
			if input.QuorumPercentage != nil {
				community.QuorumPercentage = *input.QuorumPercentage
			}
			if input.RequiresApproval != nil {
				community.RequiresApproval = *input.RequiresApproval
			}
			community.UpdatedAt = s.now()
			if err := s.Communities.SaveCommunity(ctx, community); err != nil {
				return nil, err
			}
			return json.Marshal(community)
		},
	)
	return output, err
}

func (s Service) DeactivateCommunity(ctx context.Context, communityID string, callerID string) (entities.Community, error) {
	communityID = strings.TrimSpace(communityID)
	callerID = strings.TrimSpace(callerID)
	if communityID == "" || callerID == "" {
		return entities.Community{}, domainerrors.ErrInvalidCommunityInput
	}
	community, err := s.Communities.GetCommunity(ctx, communityID)
	if err != nil {
		return entities.Community{}, err
	}
	if community.Authority != callerID {
		return entities.Community{}, domainerrors.ErrInsufficientPermissions
	}
	if !community.IsActive {
		return community, nil
	}
	community.IsActive = false
	community.UpdatedAt = s.now()
	if err := s.Communities.SaveCommunity(ctx, community); err != nil {
		return entities.Community{}, err
	}
	resolveLogger(s.Logger).Info("community deactivated",
		"event", "community_deactivated",
		"module", "governance-core/community-service",
		"layer", "application",
		"community_id", community.CommunityID,
	)
	return community, nil
}

func (s Service) GetCommunity(ctx context.Context, communityID string) (entities.Community, error) {
	communityID = strings.TrimSpace(communityID)
	if communityID == "" {
		return entities.Community{}, domainerrors.ErrInvalidCommunityInput
	}
	return s.Communities.GetCommunity(ctx, communityID)
}

func (s Service) ListCommunities(ctx context.Context, category string, limit int, offset int) ([]entities.Community, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		return nil, domainerrors.ErrInvalidCommunityInput
	}
	return s.Communities.ListCommunities(ctx, category, limit, offset)
}

func (s Service) CreateCustomCategory(ctx context.Context, idempotencyKey string, input CreateCustomCategoryInput) (entities.CustomCategory, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	input.CommunityID = strings.TrimSpace(input.CommunityID)
	input.CallerID = strings.TrimSpace(input.CallerID)
	input.Name = strings.TrimSpace(input.Name)
	input.Color = strings.TrimSpace(input.Color)
	input.Icon = strings.TrimSpace(input.Icon)

	if idempotencyKey == "" {
		return entities.CustomCategory{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if input.CommunityID == "" || input.CallerID == "" ||
		input.Name == "" || len(input.Name) > maxNameLength ||
		len(input.Color) > maxColorLength || len(input.Icon) > maxIconLength {
		return entities.CustomCategory{}, domainerrors.ErrInvalidCommunityInput
	}

	requestHash := hashStrings("custom-category", input.CommunityID, input.CallerID, input.Name, input.Color, input.Icon)
	var output entities.CustomCategory
	err := s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &output) },
		func() ([]byte, error) {
			community, err := s.Communities.GetCommunity(ctx, input.CommunityID)
			if err != nil {
				return nil, err
			}
			if !community.IsActive {
				return nil, domainerrors.ErrCommunityNotActive
			}
			if community.Authority != input.CallerID {
				allowed := false
				if s.Moderation != nil {
					allowed, err = s.Moderation.CanModerate(ctx, input.CommunityID, input.CallerID)
					if err != nil {
						return nil, err
					}
				}
				if !allowed {
					return nil, domainerrors.ErrInsufficientPermissions
				}
			}
			if _, exists, err := s.Categories.GetCustomCategoryByName(ctx, input.CommunityID, input.Name); err != nil {
				return nil, err
			} else if exists {
				return nil, domainerrors.ErrCategoryAlreadyExists
			}

			categoryID, err := s.newID(ctx)
			if err != nil {
				return nil, err
			}
			category := entities.CustomCategory{
				CategoryID:  categoryID,
				CommunityID: input.CommunityID,
				Name:        input.Name,
				Color:       input.Color,
				Icon:        input.Icon,
				CreatedBy:   input.CallerID,
				CreatedAt:   s.now(),
			}
			if err := s.Categories.SaveCustomCategory(ctx, category); err != nil {
				return nil, err
			}
			return json.Marshal(category)
		},
	)
	return output, err
}

func (s Service) ListCustomCategories(ctx context.Context, communityID string) ([]entities.CustomCategory, error) {
	communityID = strings.TrimSpace(communityID)
	if communityID == "" {
		return nil, domainerrors.ErrInvalidCommunityInput
	}
	return s.Categories.ListCustomCategories(ctx, communityID)
}

func (s Service) SubscribeToCategory(ctx context.Context, userID string, category string) (entities.CategorySubscription, error) {
	userID = strings.TrimSpace(userID)
	category = strings.ToLower(strings.TrimSpace(category))
	if userID == "" || category == "" || len(category) > maxNameLength {
		return entities.CategorySubscription{}, domainerrors.ErrInvalidCommunityInput
	}

	if _, exists, err := s.Subscriptions.GetSubscription(ctx, userID, category); err != nil {
		return entities.CategorySubscription{}, err
	} else if exists {
		return entities.CategorySubscription{}, domainerrors.ErrAlreadySubscribed
	}

	subscriptionID, err := s.newID(ctx)
	if err != nil {
		return entities.CategorySubscription{}, err
	}
	subscription := entities.CategorySubscription{
		SubscriptionID: subscriptionID,
		UserID:         userID,
		Category:       category,
		CreatedAt:      s.now(),
	}
	if err := s.Subscriptions.SaveSubscription(ctx, subscription); err != nil {
		return entities.CategorySubscription{}, err
	}
	return subscription, nil
}

func (s Service) UnsubscribeFromCategory(ctx context.Context, userID string, category string) error {
	userID = strings.TrimSpace(userID)
	category = strings.ToLower(strings.TrimSpace(category))
	if userID == "" || category == "" {
		return domainerrors.ErrInvalidCommunityInput
	}
	if _, exists, err := s.Subscriptions.GetSubscription(ctx, userID, category); err != nil {
		return err
	} else if !exists {
		return domainerrors.ErrSubscriptionNotFound
	}
	return s.Subscriptions.DeleteSubscription(ctx, userID, category)
}

func (s Service) ListSubscriptions(ctx context.Context, userID string) ([]entities.CategorySubscription, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidCommunityInput
	}
	return s.Subscriptions.ListSubscriptions(ctx, userID)
}

// Counter mutations invoked synchronously by membership, poll, and fee flows.

func (s Service) MemberJoined(ctx context.Context, communityID string) error {
	return s.adjustCounters(ctx, communityID, func(c *entities.Community) { c.TotalMembers++ })
}

func (s Service) MemberLeft(ctx context.Context, communityID string) error {
	return s.adjustCounters(ctx, communityID, func(c *entities.Community) {
		if c.TotalMembers > 0 {
			c.TotalMembers--
		}
	})
}

func (s Service) VoteCreated(ctx context.Context, communityID string) error {
	return s.adjustCounters(ctx, communityID, func(c *entities.Community) { c.TotalVotes++ })
}

func (s Service) FeeAccrued(ctx context.Context, communityID string, lamports int64) error {
	if lamports < 0 {
		return domainerrors.ErrInvalidCommunityInput
	}
	return s.adjustCounters(ctx, communityID, func(c *entities.Community) { c.FeeCollected += lamports })
}

func (s Service) adjustCounters(ctx context.Context, communityID string, mutate func(*entities.Community)) error {
	communityID = strings.TrimSpace(communityID)
	if communityID == "" {
		return domainerrors.ErrInvalidCommunityInput
	}
	community, err := s.Communities.GetCommunity(ctx, communityID)
	if err != nil {
		return err
	}
	mutate(&community)
	community.UpdatedAt = s.now()
	return s.Communities.SaveCommunity(ctx, community)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) newID(ctx context.Context) (string, error) {
	if s.IDGen != nil {
		return s.IDGen.NewID(ctx)
	}
	return uuid.NewString(), nil
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return err
	}
	if found {
		if record.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return decode(record.Payload)
	}
	payload, err := exec()
	if err != nil {
		return err
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		return err
	}
	return decode(payload)
}

func deref(value *string) string {
	if value == nil {
		return "<nil>"
	}
	return *value
}

func derefInt(value *int) string {
	if value == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%d", *value)
}

func derefBool(value *bool) string {
	if value == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%t", *value)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
