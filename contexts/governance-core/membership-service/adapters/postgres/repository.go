package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/membership-service/domain/entities"
	domainerrors "agora/contexts/governance-core/membership-service/domain/errors"
	"agora/contexts/governance-core/membership-service/ports"

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

func (r *Repository) SaveMembership(ctx context.Context, membership entities.Membership) error {
	row := membershipModelFromEntity(membership)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"role":       row.Role,
			"is_active":  row.IsActive,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrAlreadyMember
		}
		return r.logError("membership_repo_save_failed", create.Error,
			"community_id", row.CommunityID,
			"user_id", row.UserID,
		)
	}
	return nil
}

func (r *Repository) GetMembership(ctx context.Context, communityID string, userID string) (entities.Membership, bool, error) {
	var row membershipModel
	err := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Membership{}, false, nil
		}
		return entities.Membership{}, false, r.logError("membership_repo_get_failed", err,
			"community_id", strings.TrimSpace(communityID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListMembers(ctx context.Context, communityID string, limit int, offset int) ([]entities.Membership, error) {
	tx := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("is_active = ?", true)
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	var rows []membershipModel
	if err := tx.Order("joined_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("membership_repo_list_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	items := make([]entities.Membership, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountActiveMembers(ctx context.Context, communityID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&membershipModel{}).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("is_active = ?", true).
		Where("role <> ?", string(entities.RoleBanned)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("membership_repo_count_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	return count, nil
}

func (r *Repository) SaveRequest(ctx context.Context, request entities.MembershipRequest) error {
	row := requestModelFromEntity(request)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":       row.Status,
			"reviewed_by":  row.ReviewedBy,
			"review_notes": row.ReviewNotes,
			"reviewed_at":  row.ReviewedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrRequestAlreadyExists
		}
		return r.logError("membership_repo_save_request_failed", create.Error, "request_id", row.ID)
	}
	return nil
}

func (r *Repository) GetRequest(ctx context.Context, requestID string) (entities.MembershipRequest, error) {
	var row requestModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(requestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.MembershipRequest{}, domainerrors.ErrRequestNotFound
		}
		return entities.MembershipRequest{}, r.logError("membership_repo_get_request_failed", err,
			"request_id", strings.TrimSpace(requestID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetPendingRequest(ctx context.Context, communityID string, requesterID string) (entities.MembershipRequest, bool, error) {
	var row requestModel
	err := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("requester_id = ?", strings.TrimSpace(requesterID)).
		Where("status = ?", string(entities.RequestPending)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.MembershipRequest{}, false, nil
		}
		return entities.MembershipRequest{}, false, r.logError("membership_repo_get_pending_request_failed", err,
			"community_id", strings.TrimSpace(communityID),
			"requester_id", strings.TrimSpace(requesterID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListPendingRequests(ctx context.Context, communityID string, limit int) ([]entities.MembershipRequest, error) {
	tx := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("status = ?", string(entities.RequestPending))
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []requestModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("membership_repo_list_pending_requests_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	items := make([]entities.MembershipRequest, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveBan(ctx context.Context, ban entities.BanRecord) error {
	row := banModelFromEntity(ban)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"is_active": row.IsActive,
			"lifted_at": row.LiftedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("membership_repo_save_ban_failed", create.Error, "ban_id", row.ID)
	}
	return nil
}

func (r *Repository) GetBan(ctx context.Context, banID string) (entities.BanRecord, error) {
	var row banModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(banID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.BanRecord{}, domainerrors.ErrBanNotFound
		}
		return entities.BanRecord{}, r.logError("membership_repo_get_ban_failed", err,
			"ban_id", strings.TrimSpace(banID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetActiveBan(ctx context.Context, communityID string, userID string) (entities.BanRecord, bool, error) {
	var row banModel
	err := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.BanRecord{}, false, nil
		}
		return entities.BanRecord{}, false, r.logError("membership_repo_get_active_ban_failed", err,
			"community_id", strings.TrimSpace(communityID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListActiveBans(ctx context.Context, communityID string, limit int) ([]entities.BanRecord, error) {
	tx := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("is_active = ?", true)
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []banModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, r.logError("membership_repo_list_active_bans_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	items := make([]entities.BanRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListExpiredBans(ctx context.Context, now time.Time, limit int) ([]entities.BanRecord, error) {
	tx := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("ban_type = ?", string(entities.BanTemporary)).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now.UTC())
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []banModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("membership_repo_list_expired_bans_failed", err)
	}
	items := make([]entities.BanRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveAppeal(ctx context.Context, appeal entities.Appeal) error {
	row := appealModelFromEntity(appeal)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":       row.Status,
			"reviewed_by":  row.ReviewedBy,
			"review_notes": row.ReviewNotes,
			"reviewed_at":  row.ReviewedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrAppealAlreadyExists
		}
		return r.logError("membership_repo_save_appeal_failed", create.Error, "appeal_id", row.ID)
	}
	return nil
}

func (r *Repository) GetAppeal(ctx context.Context, appealID string) (entities.Appeal, error) {
	var row appealModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(appealID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Appeal{}, domainerrors.ErrAppealNotFound
		}
		return entities.Appeal{}, r.logError("membership_repo_get_appeal_failed", err,
			"appeal_id", strings.TrimSpace(appealID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetAppealByBan(ctx context.Context, banID string) (entities.Appeal, bool, error) {
	var row appealModel
	err := r.db.WithContext(ctx).
		Where("ban_id = ?", strings.TrimSpace(banID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Appeal{}, false, nil
		}
		return entities.Appeal{}, false, r.logError("membership_repo_get_appeal_by_ban_failed", err,
			"ban_id", strings.TrimSpace(banID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListPendingAppeals(ctx context.Context, communityID string, limit int) ([]entities.Appeal, error) {
	tx := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("status = ?", string(entities.AppealPending))
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []appealModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("membership_repo_list_pending_appeals_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	items := make([]entities.Appeal, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendLogEntry(ctx context.Context, entry entities.ModerationLogEntry) error {
	row := logModelFromEntity(entry)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("membership_repo_append_log_failed", err,
			"community_id", row.CommunityID,
			"action", row.Action,
		)
	}
	return nil
}

func (r *Repository) ListLogEntries(ctx context.Context, communityID string, limit int, offset int) ([]entities.ModerationLogEntry, error) {
	tx := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID))
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	var rows []logModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, r.logError("membership_repo_list_log_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	items := make([]entities.ModerationLogEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
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
		return ports.IdempotencyRecord{}, false, r.logError("membership_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("membership_repo_idempotency_expire_delete_failed", err,
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
		return r.logError("membership_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("membership_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
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
		"module", "governance-core/membership-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("membership repository operation failed", fields...)
	return err
}

type membershipModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	CommunityID string    `gorm:"column:community_id"`
	UserID      string    `gorm:"column:user_id"`
	Role        string    `gorm:"column:role"`
	IsActive    bool      `gorm:"column:is_active"`
	JoinedAt    time.Time `gorm:"column:joined_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (membershipModel) TableName() string {
	return "memberships"
}

func membershipModelFromEntity(membership entities.Membership) membershipModel {
	row := membershipModel{
		ID:          strings.TrimSpace(membership.MembershipID),
		CommunityID: strings.TrimSpace(membership.CommunityID),
		UserID:      strings.TrimSpace(membership.UserID),
		Role:        string(membership.Role),
		IsActive:    membership.IsActive,
		JoinedAt:    membership.JoinedAt.UTC(),
		UpdatedAt:   membership.UpdatedAt.UTC(),
	}
	if row.JoinedAt.IsZero() {
		row.JoinedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.JoinedAt
	}
	return row
}

func (m membershipModel) toEntity() entities.Membership {
	return entities.Membership{
		MembershipID: m.ID,
		CommunityID:  m.CommunityID,
		UserID:       m.UserID,
		Role:         entities.Role(m.Role),
		IsActive:     m.IsActive,
		JoinedAt:     m.JoinedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type requestModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	CommunityID string     `gorm:"column:community_id"`
	RequesterID string     `gorm:"column:requester_id"`
	Message     string     `gorm:"column:message"`
	Status      string     `gorm:"column:status"`
	ReviewedBy  string     `gorm:"column:reviewed_by"`
	ReviewNotes string     `gorm:"column:review_notes"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at"`
}

func (requestModel) TableName() string {
	return "membership_requests"
}

func requestModelFromEntity(request entities.MembershipRequest) requestModel {
	return requestModel{
		ID:          strings.TrimSpace(request.RequestID),
		CommunityID: strings.TrimSpace(request.CommunityID),
		RequesterID: strings.TrimSpace(request.RequesterID),
		Message:     request.Message,
		Status:      string(request.Status),
		ReviewedBy:  strings.TrimSpace(request.ReviewedBy),
		ReviewNotes: request.ReviewNotes,
		CreatedAt:   request.CreatedAt.UTC(),
		ReviewedAt:  utcTimePtr(request.ReviewedAt),
	}
}

func (m requestModel) toEntity() entities.MembershipRequest {
	return entities.MembershipRequest{
		RequestID:   m.ID,
		CommunityID: m.CommunityID,
		RequesterID: m.RequesterID,
		Message:     m.Message,
		Status:      entities.RequestStatus(m.Status),
		ReviewedBy:  m.ReviewedBy,
		ReviewNotes: m.ReviewNotes,
		CreatedAt:   m.CreatedAt.UTC(),
		ReviewedAt:  utcTimePtr(m.ReviewedAt),
	}
}

type banModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	CommunityID string     `gorm:"column:community_id"`
	UserID      string     `gorm:"column:user_id"`
	BanType     string     `gorm:"column:ban_type"`
	Reason      string     `gorm:"column:reason"`
	BannedBy    string     `gorm:"column:banned_by"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	IsActive    bool       `gorm:"column:is_active"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	LiftedAt    *time.Time `gorm:"column:lifted_at"`
}

func (banModel) TableName() string {
	return "ban_records"
}

func banModelFromEntity(ban entities.BanRecord) banModel {
	return banModel{
		ID:          strings.TrimSpace(ban.BanID),
		CommunityID: strings.TrimSpace(ban.CommunityID),
		UserID:      strings.TrimSpace(ban.UserID),
		BanType:     string(ban.BanType),
		Reason:      ban.Reason,
		BannedBy:    strings.TrimSpace(ban.BannedBy),
		ExpiresAt:   utcTimePtr(ban.ExpiresAt),
		IsActive:    ban.IsActive,
		CreatedAt:   ban.CreatedAt.UTC(),
		LiftedAt:    utcTimePtr(ban.LiftedAt),
	}
}

func (m banModel) toEntity() entities.BanRecord {
	return entities.BanRecord{
		BanID:       m.ID,
		CommunityID: m.CommunityID,
		UserID:      m.UserID,
		BanType:     entities.BanType(m.BanType),
		Reason:      m.Reason,
		BannedBy:    m.BannedBy,
		ExpiresAt:   utcTimePtr(m.ExpiresAt),
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt.UTC(),
		LiftedAt:    utcTimePtr(m.LiftedAt),
	}
}

type appealModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	BanID       string     `gorm:"column:ban_id"`
	CommunityID string     `gorm:"column:community_id"`
	UserID      string     `gorm:"column:user_id"`
	Reason      string     `gorm:"column:reason"`
	Status      string     `gorm:"column:status"`
	ReviewedBy  string     `gorm:"column:reviewed_by"`
	ReviewNotes string     `gorm:"column:review_notes"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at"`
}

func (appealModel) TableName() string {
	return "ban_appeals"
}

func appealModelFromEntity(appeal entities.Appeal) appealModel {
	return appealModel{
		ID:          strings.TrimSpace(appeal.AppealID),
		BanID:       strings.TrimSpace(appeal.BanID),
		CommunityID: strings.TrimSpace(appeal.CommunityID),
		UserID:      strings.TrimSpace(appeal.UserID),
		Reason:      appeal.Reason,
		Status:      string(appeal.Status),
		ReviewedBy:  strings.TrimSpace(appeal.ReviewedBy),
		ReviewNotes: appeal.ReviewNotes,
		CreatedAt:   appeal.CreatedAt.UTC(),
		ReviewedAt:  utcTimePtr(appeal.ReviewedAt),
	}
}

func (m appealModel) toEntity() entities.Appeal {
	return entities.Appeal{
		AppealID:    m.ID,
		BanID:       m.BanID,
		CommunityID: m.CommunityID,
		UserID:      m.UserID,
		Reason:      m.Reason,
		Status:      entities.AppealStatus(m.Status),
		ReviewedBy:  m.ReviewedBy,
		ReviewNotes: m.ReviewNotes,
		CreatedAt:   m.CreatedAt.UTC(),
		ReviewedAt:  utcTimePtr(m.ReviewedAt),
	}
}

type logModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	CommunityID  string    `gorm:"column:community_id"`
	ModeratorID  string    `gorm:"column:moderator_id"`
	TargetUserID string    `gorm:"column:target_user_id"`
	TargetPollID string    `gorm:"column:target_poll_id"`
	Action       string    `gorm:"column:action"`
	Reason       string    `gorm:"column:reason"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (logModel) TableName() string {
	return "moderation_log"
}

func logModelFromEntity(entry entities.ModerationLogEntry) logModel {
	return logModel{
		ID:           strings.TrimSpace(entry.EntryID),
		CommunityID:  strings.TrimSpace(entry.CommunityID),
		ModeratorID:  strings.TrimSpace(entry.ModeratorID),
		TargetUserID: strings.TrimSpace(entry.TargetUserID),
		TargetPollID: strings.TrimSpace(entry.TargetPollID),
		Action:       string(entry.Action),
		Reason:       entry.Reason,
		CreatedAt:    entry.CreatedAt.UTC(),
	}
}

func (m logModel) toEntity() entities.ModerationLogEntry {
	return entities.ModerationLogEntry{
		EntryID:      m.ID,
		CommunityID:  m.CommunityID,
		ModeratorID:  m.ModeratorID,
		TargetUserID: m.TargetUserID,
		TargetPollID: m.TargetPollID,
		Action:       entities.ModerationAction(m.Action),
		Reason:       m.Reason,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "membership_service_idempotency"
}

func utcTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.MembershipRepository = (*Repository)(nil)
var _ ports.RequestRepository = (*Repository)(nil)
var _ ports.BanRepository = (*Repository)(nil)
var _ ports.AppealRepository = (*Repository)(nil)
var _ ports.ModerationLogRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
