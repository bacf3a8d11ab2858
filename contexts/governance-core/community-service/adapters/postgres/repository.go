package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/community-service/domain/entities"
	domainerrors "agora/contexts/governance-core/community-service/domain/errors"
	"agora/contexts/governance-core/community-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) SaveCommunity(ctx context.Context, community entities.Community) error {
	row := communityModelFromEntity(community)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"description":       row.Description,
			"quorum_percentage": row.QuorumPercentage,
			"requires_approval": row.RequiresApproval,
			"total_members":     row.TotalMembers,
			"total_votes":       row.TotalVotes,
			"fee_collected":     row.FeeCollected,
			"is_active":         row.IsActive,
			"updated_at":        row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrCommunityAlreadyExists
		}
		return r.logError("community_repo_save_failed", create.Error, "community_id", row.ID)
	}
	return nil
}

func (r *Repository) GetCommunity(ctx context.Context, communityID string) (entities.Community, error) {
	var row communityModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(communityID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Community{}, domainerrors.ErrCommunityNotFound
		}
		return entities.Community{}, r.logError("community_repo_get_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetCommunityByAuthorityName(ctx context.Context, authority string, name string) (entities.Community, bool, error) {
	var row communityModel
	err := r.db.WithContext(ctx).
		Where("authority = ?", strings.TrimSpace(authority)).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Community{}, false, nil
		}
		return entities.Community{}, false, r.logError("community_repo_get_by_authority_name_failed", err,
			"authority", strings.TrimSpace(authority),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListCommunities(ctx context.Context, category string, limit int, offset int) ([]entities.Community, error) {
	tx := r.db.WithContext(ctx).Model(&communityModel{})
	if category = strings.TrimSpace(category); category != "" {
		tx = tx.Where("category = ?", strings.ToLower(category))
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	var rows []communityModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("community_repo_list_failed", err, "category", category)
	}
	items := make([]entities.Community, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveCustomCategory(ctx context.Context, category entities.CustomCategory) error {
	row := categoryModelFromEntity(category)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrCategoryAlreadyExists
		}
		return r.logError("community_repo_save_category_failed", create.Error,
			"community_id", row.CommunityID,
			"name", row.Name,
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrCategoryAlreadyExists
	}
	return nil
}

func (r *Repository) GetCustomCategoryByName(ctx context.Context, communityID string, name string) (entities.CustomCategory, bool, error) {
	var row categoryModel
	err := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CustomCategory{}, false, nil
		}
		return entities.CustomCategory{}, false, r.logError("community_repo_get_category_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	return row.toCategoryEntity(), true, nil
}

func (r *Repository) ListCustomCategories(ctx context.Context, communityID string) ([]entities.CustomCategory, error) {
	var rows []categoryModel
	if err := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("community_repo_list_categories_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	items := make([]entities.CustomCategory, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toCategoryEntity())
	}
	return items, nil
}

func (r *Repository) SaveSubscription(ctx context.Context, subscription entities.CategorySubscription) error {
	row := subscriptionModelFromEntity(subscription)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "category"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrAlreadySubscribed
		}
		return r.logError("community_repo_save_subscription_failed", create.Error,
			"user_id", row.UserID,
			"category", row.Category,
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrAlreadySubscribed
	}
	return nil
}

func (r *Repository) GetSubscription(ctx context.Context, userID string, category string) (entities.CategorySubscription, bool, error) {
	var row subscriptionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("category = ?", strings.ToLower(strings.TrimSpace(category))).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CategorySubscription{}, false, nil
		}
		return entities.CategorySubscription{}, false, r.logError("community_repo_get_subscription_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toSubscriptionEntity(), true, nil
}

func (r *Repository) DeleteSubscription(ctx context.Context, userID string, category string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("category = ?", strings.ToLower(strings.TrimSpace(category))).
		Delete(&subscriptionModel{})
	if result.Error != nil {
		return r.logError("community_repo_delete_subscription_failed", result.Error,
			"user_id", strings.TrimSpace(userID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSubscriptionNotFound
	}
	return nil
}

func (r *Repository) ListSubscriptions(ctx context.Context, userID string) ([]entities.CategorySubscription, error) {
	var rows []subscriptionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("community_repo_list_subscriptions_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	items := make([]entities.CategorySubscription, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toSubscriptionEntity())
	}
	return items, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("community_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("community_repo_idempotency_expire_delete_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Payload:     append([]byte(nil), row.Payload...),
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		Payload:     record.Payload,
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("community_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("community_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance-core/community-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("community repository operation failed", fields...)
	return err
}

type communityModel struct {
	ID                    string    `gorm:"column:id;primaryKey"`
	Authority             string    `gorm:"column:authority"`
	Name                  string    `gorm:"column:name"`
	Description           string    `gorm:"column:description"`
	Category              string    `gorm:"column:category"`
	QuorumPercentage      int       `gorm:"column:quorum_percentage"`
	RequiresApproval      bool      `gorm:"column:requires_approval"`
	WeightedVotingDefault bool      `gorm:"column:weighted_voting_default"`
	TotalMembers          int64     `gorm:"column:total_members"`
	TotalVotes            int64     `gorm:"column:total_votes"`
	FeeCollected          int64     `gorm:"column:fee_collected"`
	IsActive              bool      `gorm:"column:is_active"`
	CreatedAt             time.Time `gorm:"column:created_at"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (communityModel) TableName() string {
	return "communities"
}

func communityModelFromEntity(community entities.Community) communityModel {
	row := communityModel{
		ID:                    strings.TrimSpace(community.CommunityID),
		Authority:             strings.TrimSpace(community.Authority),
		Name:                  community.Name,
		Description:           community.Description,
		Category:              community.Category,
		QuorumPercentage:      community.QuorumPercentage,
		RequiresApproval:      community.RequiresApproval,
		WeightedVotingDefault: community.WeightedVotingDefault,
		TotalMembers:          community.TotalMembers,
		TotalVotes:            community.TotalVotes,
		FeeCollected:          community.FeeCollected,
		IsActive:              community.IsActive,
		CreatedAt:             community.CreatedAt.UTC(),
		UpdatedAt:             community.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m communityModel) toEntity() entities.Community {
	return entities.Community{
		CommunityID:           m.ID,
		Authority:             m.Authority,
		Name:                  m.Name,
		Description:           m.Description,
		Category:              m.Category,
		QuorumPercentage:      m.QuorumPercentage,
		RequiresApproval:      m.RequiresApproval,
		WeightedVotingDefault: m.WeightedVotingDefault,
		TotalMembers:          m.TotalMembers,
		TotalVotes:            m.TotalVotes,
		FeeCollected:          m.FeeCollected,
		IsActive:              m.IsActive,
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
}

type categoryModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	CommunityID string    `gorm:"column:community_id"`
	Name        string    `gorm:"column:name"`
	Color       string    `gorm:"column:color"`
	Icon        string    `gorm:"column:icon"`
	CreatedBy   string    `gorm:"column:created_by"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (categoryModel) TableName() string {
	return "community_custom_categories"
}

func categoryModelFromEntity(category entities.CustomCategory) categoryModel {
	return categoryModel{
		ID:          strings.TrimSpace(category.CategoryID),
		CommunityID: strings.TrimSpace(category.CommunityID),
		Name:        category.Name,
		Color:       category.Color,
		Icon:        category.Icon,
		CreatedBy:   strings.TrimSpace(category.CreatedBy),
		CreatedAt:   category.CreatedAt.UTC(),
	}
}

func (m categoryModel) toCategoryEntity() entities.CustomCategory {
	return entities.CustomCategory{
		CategoryID:  m.ID,
		CommunityID: m.CommunityID,
		Name:        m.Name,
		Color:       m.Color,
		Icon:        m.Icon,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

type subscriptionModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id"`
	Category  string    `gorm:"column:category"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (subscriptionModel) TableName() string {
	return "category_subscriptions"
}

func subscriptionModelFromEntity(subscription entities.CategorySubscription) subscriptionModel {
	return subscriptionModel{
		ID:        strings.TrimSpace(subscription.SubscriptionID),
		UserID:    strings.TrimSpace(subscription.UserID),
		Category:  strings.ToLower(strings.TrimSpace(subscription.Category)),
		CreatedAt: subscription.CreatedAt.UTC(),
	}
}

func (m subscriptionModel) toSubscriptionEntity() entities.CategorySubscription {
	return entities.CategorySubscription{
		SubscriptionID: m.ID,
		UserID:         m.UserID,
		Category:       m.Category,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "community_service_idempotency"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.CommunityRepository = (*Repository)(nil)
var _ ports.CategoryRepository = (*Repository)(nil)
var _ ports.SubscriptionRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
