package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/finance-core/fee-engine/domain/entities"
	domainerrors "agora/contexts/finance-core/fee-engine/domain/errors"
	"agora/contexts/finance-core/fee-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	// singletonKey pins the fee pool to a single row.
	singletonKey = "fee-pool"
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

func (r *Repository) SavePool(ctx context.Context, pool entities.FeePool) error {
	row := poolModelFromEntity(pool)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "singleton_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"authority":          row.Authority,
			"total_collected":    row.TotalCollected,
			"balance":            row.Balance,
			"daily_distribution": row.DailyDistribution,
			"last_distribution":  row.LastDistribution,
			"updated_at":         row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("fee_repo_save_pool_failed", create.Error, "pool_id", row.ID)
	}
	return nil
}

func (r *Repository) DebitBalance(ctx context.Context, amount uint64, updatedAt time.Time) (entities.FeePool, error) {
	result := r.db.WithContext(ctx).
		Model(&poolModel{}).
		Where("singleton_key = ? AND balance >= ?", singletonKey, amount).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return entities.FeePool{}, r.logError("fee_repo_debit_balance_failed", result.Error, "amount", amount)
	}
	if result.RowsAffected == 0 {
		_, exists, err := r.GetPool(ctx)
		if err != nil {
			return entities.FeePool{}, err
		}
		if !exists {
			return entities.FeePool{}, domainerrors.ErrPoolNotInitialized
		}
		return entities.FeePool{}, domainerrors.ErrInsufficientFunds
	}
	pool, exists, err := r.GetPool(ctx)
	if err != nil {
		return entities.FeePool{}, err
	}
	if !exists {
		return entities.FeePool{}, domainerrors.ErrPoolNotInitialized
	}
	return pool, nil
}

func (r *Repository) GetPool(ctx context.Context) (entities.FeePool, bool, error) {
	var row poolModel
	err := r.db.WithContext(ctx).
		Where("singleton_key = ?", singletonKey).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.FeePool{}, false, nil
		}
		return entities.FeePool{}, false, r.logError("fee_repo_get_pool_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) SaveReward(ctx context.Context, record entities.RewardRecord) error {
	row := rewardModelFromEntity(record)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_claimed": row.TotalClaimed,
			"last_claimed":  row.LastClaimed,
			"updated_at":    row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("fee_repo_save_reward_failed", create.Error, "user_id", row.UserID)
	}
	return nil
}

func (r *Repository) GetReward(ctx context.Context, userID string) (entities.RewardRecord, bool, error) {
	var row rewardModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RewardRecord{}, false, nil
		}
		return entities.RewardRecord{}, false, r.logError("fee_repo_get_reward_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
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
		return ports.IdempotencyRecord{}, false, r.logError("fee_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("fee_repo_idempotency_expire_delete_failed", err,
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
		return r.logError("fee_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("fee_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("fee_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("fee_repo_append_outbox_insert_failed", create.Error, "outbox_id", row.OutboxID)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("fee_repo_append_outbox_load_existing_failed", err, "outbox_id", row.OutboxID)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("fee_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("fee_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "finance-core/fee-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("fee repository operation failed", fields...)
	return err
}

type poolModel struct {
	ID                string     `gorm:"column:id;primaryKey"`
	SingletonKey      string     `gorm:"column:singleton_key"`
	Authority         string     `gorm:"column:authority"`
	TotalCollected    uint64     `gorm:"column:total_collected"`
	Balance           uint64     `gorm:"column:balance"`
	DailyDistribution uint64     `gorm:"column:daily_distribution"`
	LastDistribution  *time.Time `gorm:"column:last_distribution"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (poolModel) TableName() string {
	return "fee_pool"
}

func poolModelFromEntity(pool entities.FeePool) poolModel {
	row := poolModel{
		ID:                strings.TrimSpace(pool.PoolID),
		SingletonKey:      singletonKey,
		Authority:         strings.TrimSpace(pool.Authority),
		TotalCollected:    pool.TotalCollected,
		Balance:           pool.Balance,
		DailyDistribution: pool.DailyDistribution,
		LastDistribution:  normalizeOptionalTime(pool.LastDistribution),
		CreatedAt:         pool.CreatedAt.UTC(),
		UpdatedAt:         pool.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m poolModel) toEntity() entities.FeePool {
	return entities.FeePool{
		PoolID:            m.ID,
		Authority:         m.Authority,
		TotalCollected:    m.TotalCollected,
		Balance:           m.Balance,
		DailyDistribution: m.DailyDistribution,
		LastDistribution:  normalizeOptionalTime(m.LastDistribution),
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

type rewardModel struct {
	UserID       string     `gorm:"column:user_id;primaryKey"`
	TotalClaimed uint64     `gorm:"column:total_claimed"`
	LastClaimed  *time.Time `gorm:"column:last_claimed"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (rewardModel) TableName() string {
	return "reward_records"
}

func rewardModelFromEntity(record entities.RewardRecord) rewardModel {
	row := rewardModel{
		UserID:       strings.TrimSpace(record.UserID),
		TotalClaimed: record.TotalClaimed,
		LastClaimed:  normalizeOptionalTime(record.LastClaimed),
		CreatedAt:    record.CreatedAt.UTC(),
		UpdatedAt:    record.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m rewardModel) toEntity() entities.RewardRecord {
	return entities.RewardRecord{
		UserID:       m.UserID,
		TotalClaimed: m.TotalClaimed,
		LastClaimed:  normalizeOptionalTime(m.LastClaimed),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "fee_engine_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "fee_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.FeePoolRepository = (*Repository)(nil)
var _ ports.RewardRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
