package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/poll-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/poll-engine/domain/errors"
	"agora/contexts/governance-core/poll-engine/ports"

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

func (r *Repository) SavePoll(ctx context.Context, poll entities.Poll) error {
	row, err := pollModelFromEntity(poll)
	if err != nil {
		return r.logError("poll_repo_save_marshal_failed", err, "poll_id", strings.TrimSpace(poll.PollID))
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"correct_answer":      row.CorrectAnswer,
			"revealed_text":       row.RevealedText,
			"results":             row.Results,
			"weighted_results":    row.WeightedResults,
			"total_votes":         row.TotalVotes,
			"status":              row.Status,
			"reveal_deadline":     row.RevealDeadline,
			"confidence_deadline": row.ConfidenceDeadline,
			"confidence_for":      row.ConfidenceFor,
			"confidence_against":  row.ConfidenceAgainst,
			"updated_at":          row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("poll_repo_save_failed", create.Error,
			"poll_id", strings.TrimSpace(poll.PollID),
			"community_id", strings.TrimSpace(poll.CommunityID),
		)
	}
	return nil
}

func (r *Repository) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	var row pollModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(pollID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, domainerrors.ErrPollNotFound
		}
		return entities.Poll{}, r.logError("poll_repo_get_failed", err, "poll_id", strings.TrimSpace(pollID))
	}
	return row.toEntity()
}

func (r *Repository) ListPollsByCommunity(
	ctx context.Context,
	communityID string,
	status entities.PollStatus,
	limit int,
	offset int,
) ([]entities.Poll, error) {
	tx := r.db.WithContext(ctx).Model(&pollModel{}).
		Where("community_id = ?", strings.TrimSpace(communityID))
	if status != "" {
		tx = tx.Where("status = ?", string(status))
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	var rows []pollModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_by_community_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	return toPollEntities(rows)
}

func (r *Repository) ListOpenPolls(ctx context.Context, limit int) ([]entities.Poll, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []pollModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			string(entities.StatusActive),
			string(entities.StatusAwaitingReveal),
			string(entities.StatusConfidenceVoting),
		}).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_open_failed", err, "limit", limit)
	}
	return toPollEntities(rows)
}

func (r *Repository) SaveParticipation(ctx context.Context, participation entities.Participation) error {
	row := participationModelFromEntity(participation)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}, {Name: "voter_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrAlreadyVoted
		}
		return r.logError("poll_repo_save_participation_failed", create.Error,
			"poll_id", strings.TrimSpace(participation.PollID),
			"voter_id", strings.TrimSpace(participation.VoterID),
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrAlreadyVoted
	}
	return nil
}

func (r *Repository) GetParticipation(ctx context.Context, pollID string, voterID string) (entities.Participation, bool, error) {
	var row participationModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Participation{}, false, nil
		}
		return entities.Participation{}, false, r.logError("poll_repo_get_participation_failed", err,
			"poll_id", strings.TrimSpace(pollID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListParticipants(ctx context.Context, pollID string) ([]entities.Participation, error) {
	var rows []participationModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Order("voted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_participants_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	items := make([]entities.Participation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveConfidenceBallot(ctx context.Context, ballot entities.ConfidenceBallot) error {
	row := ballotModelFromEntity(ballot)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}, {Name: "voter_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrAlreadyVotedConfidence
		}
		return r.logError("poll_repo_save_ballot_failed", create.Error,
			"poll_id", strings.TrimSpace(ballot.PollID),
			"voter_id", strings.TrimSpace(ballot.VoterID),
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrAlreadyVotedConfidence
	}
	return nil
}

func (r *Repository) GetConfidenceBallot(ctx context.Context, pollID string, voterID string) (entities.ConfidenceBallot, bool, error) {
	var row ballotModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ConfidenceBallot{}, false, nil
		}
		return entities.ConfidenceBallot{}, false, r.logError("poll_repo_get_ballot_failed", err,
			"poll_id", strings.TrimSpace(pollID),
			"voter_id", strings.TrimSpace(voterID),
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
		return ports.IdempotencyRecord{}, false, r.logError("poll_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("poll_repo_idempotency_expire_delete_failed", err,
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
		return r.logError("poll_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("poll_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("poll_repo_append_outbox_marshal_failed", err,
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
		return r.logError("poll_repo_append_outbox_insert_failed", create.Error,
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
		return r.logError("poll_repo_append_outbox_load_existing_failed", err,
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
		return nil, r.logError("poll_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("poll_repo_mark_outbox_published_failed", result.Error,
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
		"module", "governance-core/poll-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("poll repository operation failed", fields...)
	return err
}

type pollModel struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	CommunityID        string     `gorm:"column:community_id"`
	CreatorID          string     `gorm:"column:creator_id"`
	Question           string     `gorm:"column:question"`
	Options            []byte     `gorm:"column:options"`
	VoteType           string     `gorm:"column:vote_type"`
	CorrectAnswer      int        `gorm:"column:correct_answer"`
	AnswerHash         []byte     `gorm:"column:answer_hash"`
	RevealedText       string     `gorm:"column:revealed_text"`
	Results            []byte     `gorm:"column:results"`
	WeightedResults    []byte     `gorm:"column:weighted_results"`
	TotalVotes         int64      `gorm:"column:total_votes"`
	QuorumVotes        int64      `gorm:"column:quorum_votes"`
	QuorumPercentage   int        `gorm:"column:quorum_percentage"`
	WeightedVoting     bool       `gorm:"column:weighted_voting"`
	FeePaid            uint64     `gorm:"column:fee_paid"`
	Status             string     `gorm:"column:status"`
	Deadline           time.Time  `gorm:"column:deadline"`
	RevealDeadline     *time.Time `gorm:"column:reveal_deadline"`
	ConfidenceDeadline *time.Time `gorm:"column:confidence_deadline"`
	ConfidenceFor      int64      `gorm:"column:confidence_for"`
	ConfidenceAgainst  int64      `gorm:"column:confidence_against"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (pollModel) TableName() string {
	return "polls"
}

func pollModelFromEntity(poll entities.Poll) (pollModel, error) {
	options, err := json.Marshal(poll.Options)
	if err != nil {
		return pollModel{}, err
	}
	results, err := json.Marshal(poll.Results)
	if err != nil {
		return pollModel{}, err
	}
	weighted, err := json.Marshal(poll.WeightedResults)
	if err != nil {
		return pollModel{}, err
	}
	row := pollModel{
		ID:                 strings.TrimSpace(poll.PollID),
		CommunityID:        strings.TrimSpace(poll.CommunityID),
		CreatorID:          strings.TrimSpace(poll.CreatorID),
		Question:           poll.Question,
		Options:            options,
		VoteType:           string(poll.VoteType),
		CorrectAnswer:      poll.CorrectAnswer,
		AnswerHash:         poll.AnswerHash,
		RevealedText:       poll.RevealedText,
		Results:            results,
		WeightedResults:    weighted,
		TotalVotes:         poll.TotalVotes,
		QuorumVotes:        poll.QuorumVotes,
		QuorumPercentage:   poll.QuorumPercentage,
		WeightedVoting:     poll.WeightedVoting,
		FeePaid:            poll.FeePaid,
		Status:             string(poll.Status),
		Deadline:           poll.Deadline.UTC(),
		RevealDeadline:     normalizeOptionalTime(poll.RevealDeadline),
		ConfidenceDeadline: normalizeOptionalTime(poll.ConfidenceDeadline),
		ConfidenceFor:      poll.ConfidenceFor,
		ConfidenceAgainst:  poll.ConfidenceAgainst,
		CreatedAt:          poll.CreatedAt.UTC(),
		UpdatedAt:          poll.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row, nil
}

func (m pollModel) toEntity() (entities.Poll, error) {
	var options []string
	if len(m.Options) > 0 {
		if err := json.Unmarshal(m.Options, &options); err != nil {
			return entities.Poll{}, err
		}
	}
	var results []int64
	if len(m.Results) > 0 {
		if err := json.Unmarshal(m.Results, &results); err != nil {
			return entities.Poll{}, err
		}
	}
	var weighted []float64
	if len(m.WeightedResults) > 0 {
		if err := json.Unmarshal(m.WeightedResults, &weighted); err != nil {
			return entities.Poll{}, err
		}
	}
	return entities.Poll{
		PollID:             m.ID,
		CommunityID:        m.CommunityID,
		CreatorID:          m.CreatorID,
		Question:           m.Question,
		Options:            options,
		VoteType:           entities.VoteType(m.VoteType),
		CorrectAnswer:      m.CorrectAnswer,
		AnswerHash:         m.AnswerHash,
		RevealedText:       m.RevealedText,
		Results:            results,
		WeightedResults:    weighted,
		TotalVotes:         m.TotalVotes,
		QuorumVotes:        m.QuorumVotes,
		QuorumPercentage:   m.QuorumPercentage,
		WeightedVoting:     m.WeightedVoting,
		FeePaid:            m.FeePaid,
		Status:             entities.PollStatus(m.Status),
		Deadline:           m.Deadline.UTC(),
		RevealDeadline:     normalizeOptionalTime(m.RevealDeadline),
		ConfidenceDeadline: normalizeOptionalTime(m.ConfidenceDeadline),
		ConfidenceFor:      m.ConfidenceFor,
		ConfidenceAgainst:  m.ConfidenceAgainst,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}, nil
}

type participationModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	PollID             string    `gorm:"column:poll_id"`
	VoterID            string    `gorm:"column:voter_id"`
	OptionIndex        int       `gorm:"column:option_index"`
	WeightApplied      float64   `gorm:"column:weight_applied"`
	ReputationSnapshot int64     `gorm:"column:reputation_snapshot"`
	VotedAt            time.Time `gorm:"column:voted_at"`
}

func (participationModel) TableName() string {
	return "poll_participations"
}

func participationModelFromEntity(participation entities.Participation) participationModel {
	return participationModel{
		ID:                 strings.TrimSpace(participation.ParticipationID),
		PollID:             strings.TrimSpace(participation.PollID),
		VoterID:            strings.TrimSpace(participation.VoterID),
		OptionIndex:        participation.OptionIndex,
		WeightApplied:      participation.WeightApplied,
		ReputationSnapshot: participation.ReputationSnapshot,
		VotedAt:            participation.VotedAt.UTC(),
	}
}

func (m participationModel) toEntity() entities.Participation {
	return entities.Participation{
		ParticipationID:    m.ID,
		PollID:             m.PollID,
		VoterID:            m.VoterID,
		OptionIndex:        m.OptionIndex,
		WeightApplied:      m.WeightApplied,
		ReputationSnapshot: m.ReputationSnapshot,
		VotedAt:            m.VotedAt.UTC(),
	}
}

type ballotModel struct {
	ID      string    `gorm:"column:id;primaryKey"`
	PollID  string    `gorm:"column:poll_id"`
	VoterID string    `gorm:"column:voter_id"`
	Approve bool      `gorm:"column:approve"`
	CastAt  time.Time `gorm:"column:cast_at"`
}

func (ballotModel) TableName() string {
	return "poll_confidence_ballots"
}

func ballotModelFromEntity(ballot entities.ConfidenceBallot) ballotModel {
	return ballotModel{
		ID:      strings.TrimSpace(ballot.BallotID),
		PollID:  strings.TrimSpace(ballot.PollID),
		VoterID: strings.TrimSpace(ballot.VoterID),
		Approve: ballot.Approve,
		CastAt:  ballot.CastAt.UTC(),
	}
}

func (m ballotModel) toEntity() entities.ConfidenceBallot {
	return entities.ConfidenceBallot{
		BallotID: m.ID,
		PollID:   m.PollID,
		VoterID:  m.VoterID,
		Approve:  m.Approve,
		CastAt:   m.CastAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "poll_engine_idempotency"
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
	return "poll_outbox"
}

func toPollEntities(rows []pollModel) ([]entities.Poll, error) {
	items := make([]entities.Poll, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
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

var _ ports.PollRepository = (*Repository)(nil)
var _ ports.ParticipationRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
