package ports

import (
	"context"
	"time"

	"agora/contexts/governance-core/community-service/domain/entities"
)

type CommunityRepository interface {
	SaveCommunity(ctx context.Context, community entities.Community) error
	GetCommunity(ctx context.Context, communityID string) (entities.Community, error)
	GetCommunityByAuthorityName(ctx context.Context, authority string, name string) (entities.Community, bool, error)
	ListCommunities(ctx context.Context, category string, limit int, offset int) ([]entities.Community, error)
}

type CategoryRepository interface {
	SaveCustomCategory(ctx context.Context, category entities.CustomCategory) error
	GetCustomCategoryByName(ctx context.Context, communityID string, name string) (entities.CustomCategory, bool, error)
	ListCustomCategories(ctx context.Context, communityID string) ([]entities.CustomCategory, error)
}

type SubscriptionRepository interface {
	SaveSubscription(ctx context.Context, subscription entities.CategorySubscription) error
	GetSubscription(ctx context.Context, userID string, category string) (entities.CategorySubscription, bool, error)
	DeleteSubscription(ctx context.Context, userID string, category string) error
	ListSubscriptions(ctx context.Context, userID string) ([]entities.CategorySubscription, error)
}

// AdminEnroller seats the community authority as the first Admin member.
// Implemented by the membership module; nil wiring skips enrollment.
type AdminEnroller interface {
	EnrollAdmin(ctx context.Context, communityID string, userID string) error
}

// ModerationGuard answers role questions owned by the membership module.
type ModerationGuard interface {
	CanModerate(ctx context.Context, communityID string, userID string) (bool, error)
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
