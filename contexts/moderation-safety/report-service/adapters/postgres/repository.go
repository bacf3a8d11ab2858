package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/moderation-safety/report-service/domain/entities"
	domainerrors "agora/contexts/moderation-safety/report-service/domain/errors"
	"agora/contexts/moderation-safety/report-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
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

func (r *Repository) SaveReport(ctx context.Context, report entities.Report) error {
	row := reportModelFromEntity(report)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":       row.Status,
			"reviewed_by":  row.ReviewedBy,
			"review_notes": row.ReviewNotes,
			"updated_at":   row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrAlreadyReported
		}
		return r.logError("report_repo_save_failed", create.Error,
			"report_id", row.ID,
			"poll_id", row.PollID,
		)
	}
	return nil
}

func (r *Repository) GetReport(ctx context.Context, reportID string) (entities.Report, error) {
	var row reportModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(reportID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Report{}, domainerrors.ErrReportNotFound
		}
		return entities.Report{}, r.logError("report_repo_get_failed", err,
			"report_id", strings.TrimSpace(reportID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetReportByReporter(ctx context.Context, pollID string, reporterID string) (entities.Report, bool, error) {
	var row reportModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("reporter_id = ?", strings.TrimSpace(reporterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Report{}, false, nil
		}
		return entities.Report{}, false, r.logError("report_repo_get_by_reporter_failed", err,
			"poll_id", strings.TrimSpace(pollID),
			"reporter_id", strings.TrimSpace(reporterID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListReportsByPoll(ctx context.Context, pollID string, limit int) ([]entities.Report, error) {
	tx := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID))
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []reportModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("report_repo_list_by_poll_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	items := make([]entities.Report, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveCounter(ctx context.Context, counter entities.ReportCounter) error {
	row, err := counterModelFromEntity(counter)
	if err != nil {
		return r.logError("report_repo_counter_marshal_failed", err, "poll_id", counter.PollID)
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "poll_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total":       row.Total,
			"by_category": row.ByCategory,
			"escalated":   row.Escalated,
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("report_repo_save_counter_failed", create.Error, "poll_id", row.PollID)
	}
	return nil
}

func (r *Repository) GetCounter(ctx context.Context, pollID string) (entities.ReportCounter, bool, error) {
	var row counterModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ReportCounter{}, false, nil
		}
		return entities.ReportCounter{}, false, r.logError("report_repo_get_counter_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	counter, err := row.toEntity()
	if err != nil {
		return entities.ReportCounter{}, false, r.logError("report_repo_counter_unmarshal_failed", err,
			"poll_id", row.PollID,
		)
	}
	return counter, true, nil
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
		return ports.IdempotencyRecord{}, false, r.logError("report_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("report_repo_idempotency_expire_delete_failed", err,
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
		return r.logError("report_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("report_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("report_repo_append_outbox_marshal_failed", err,
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
		return r.logError("report_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("report_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
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
		return nil, r.logError("report_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("report_repo_mark_outbox_published_failed", result.Error,
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
		"module", "moderation-safety/report-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("report repository operation failed", fields...)
	return err
}

type reportModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	PollID      string    `gorm:"column:poll_id"`
	CommunityID string    `gorm:"column:community_id"`
	ReporterID  string    `gorm:"column:reporter_id"`
	Category    string    `gorm:"column:category"`
	Reason      string    `gorm:"column:reason"`
	Status      string    `gorm:"column:status"`
	ReviewedBy  string    `gorm:"column:reviewed_by"`
	ReviewNotes string    `gorm:"column:review_notes"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (reportModel) TableName() string {
	return "poll_reports"
}

func reportModelFromEntity(report entities.Report) reportModel {
	row := reportModel{
		ID:          strings.TrimSpace(report.ReportID),
		PollID:      strings.TrimSpace(report.PollID),
		CommunityID: strings.TrimSpace(report.CommunityID),
		ReporterID:  strings.TrimSpace(report.ReporterID),
		Category:    string(report.Category),
		Reason:      report.Reason,
		Status:      string(report.Status),
		ReviewedBy:  strings.TrimSpace(report.ReviewedBy),
		ReviewNotes: report.ReviewNotes,
		CreatedAt:   report.CreatedAt.UTC(),
		UpdatedAt:   report.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m reportModel) toEntity() entities.Report {
	return entities.Report{
		ReportID:    m.ID,
		PollID:      m.PollID,
		CommunityID: m.CommunityID,
		ReporterID:  m.ReporterID,
		Category:    entities.ReportCategory(m.Category),
		Reason:      m.Reason,
		Status:      entities.ReportStatus(m.Status),
		ReviewedBy:  m.ReviewedBy,
		ReviewNotes: m.ReviewNotes,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type counterModel struct {
	PollID      string    `gorm:"column:poll_id;primaryKey"`
	CommunityID string    `gorm:"column:community_id"`
	Total       int       `gorm:"column:total"`
	ByCategory  []byte    `gorm:"column:by_category"`
	Escalated   bool      `gorm:"column:escalated"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (counterModel) TableName() string {
	return "poll_report_counters"
}

func counterModelFromEntity(counter entities.ReportCounter) (counterModel, error) {
	byCategory, err := json.Marshal(counter.ByCategory)
	if err != nil {
		return counterModel{}, err
	}
	row := counterModel{
		PollID:      strings.TrimSpace(counter.PollID),
		CommunityID: strings.TrimSpace(counter.CommunityID),
		Total:       counter.Total,
		ByCategory:  byCategory,
		Escalated:   counter.Escalated,
		UpdatedAt:   counter.UpdatedAt.UTC(),
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	return row, nil
}

func (m counterModel) toEntity() (entities.ReportCounter, error) {
	byCategory := map[entities.ReportCategory]int{}
	if len(m.ByCategory) > 0 {
		if err := json.Unmarshal(m.ByCategory, &byCategory); err != nil {
			return entities.ReportCounter{}, err
		}
	}
	return entities.ReportCounter{
		PollID:      m.PollID,
		CommunityID: m.CommunityID,
		Total:       m.Total,
		ByCategory:  byCategory,
		Escalated:   m.Escalated,
		UpdatedAt:   m.UpdatedAt.UTC(),
	}, nil
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "report_service_idempotency"
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
	return "report_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ReportRepository = (*Repository)(nil)
var _ ports.CounterRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
