package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "agora/contexts/governance-core/poll-engine/application"
	"agora/contexts/governance-core/poll-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/poll-engine/domain/errors"
	"agora/contexts/governance-core/poll-engine/ports"
	contractsv1 "agora/contracts/gen/events/v1"
)

// PollUseCase orchestrates the poll lifecycle: creation with fee collection,
// vote casting with quorum evaluation, the commit-reveal workflow, and
// expiry sweeps.
type PollUseCase struct {
	Polls          ports.PollRepository
	Participations ports.ParticipationRepository
	Memberships    ports.MembershipGuard
	Users          ports.UserDirectory
	Fees           ports.FeeCollector
	Communities    ports.CommunityCounter
	Moderation     ports.ModerationLogger
	Weights        ports.WeightStrategy
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// CreatePollCommand is the write-model input for poll creation.
type CreatePollCommand struct {
	IdempotencyKey   string
	CommunityID      string
	CreatorID        string
	Question         string
	Options          []string
	VoteType         entities.VoteType
	CorrectAnswer    *int
	AnswerHash       []byte
	QuorumVotes      int64
	QuorumPercentage int
	DeadlineHours    int
	WeightedVoting   bool
}

// CreatePoll validates the poll shape, charges the creation fee according to
// the creator's tier (free for community moderators), and opens the poll.
func (uc PollUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)

	cmd.CommunityID = strings.TrimSpace(cmd.CommunityID)
	cmd.CreatorID = strings.TrimSpace(cmd.CreatorID)
	cmd.Question = strings.TrimSpace(cmd.Question)
	if cmd.CommunityID == "" || cmd.CreatorID == "" {
		return entities.Poll{}, domainerrors.ErrInvalidPollInput
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return entities.Poll{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if err := validatePollShape(cmd); err != nil {
		logger.Warn("poll create validation failed",
			"event", "poll_create_validation_failed",
			"module", "governance-core/poll-engine",
			"layer", "application",
			"community_id", cmd.CommunityID,
			"creator_id", cmd.CreatorID,
		)
		return entities.Poll{}, err
	}

	active, err := uc.Memberships.ActiveMember(ctx, cmd.CommunityID, cmd.CreatorID)
	if err != nil {
		return entities.Poll{}, err
	}
	if !active {
		return entities.Poll{}, domainerrors.ErrNotCommunityMember
	}

	options := make([]string, 0, len(cmd.Options))
	for _, option := range cmd.Options {
		options = append(options, strings.TrimSpace(option))
	}

	requestHash := hashStrings("create_poll", cmd.CommunityID, cmd.CreatorID, cmd.Question,
		strings.Join(options, "|"), string(cmd.VoteType), strconv.Itoa(cmd.DeadlineHours))

	var created entities.Poll
	err = uc.runIdempotent(ctx, cmd.IdempotencyKey, requestHash,
		func(payload []byte) error {
			return json.Unmarshal(payload, &created)
		},
		func() ([]byte, error) {
			now := uc.now()
			pollID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return nil, err
			}

			fee, err := uc.creationFee(ctx, cmd.CommunityID, cmd.CreatorID)
			if err != nil {
				return nil, err
			}

			poll := entities.Poll{
				PollID:           pollID,
				CommunityID:      cmd.CommunityID,
				CreatorID:        cmd.CreatorID,
				Question:         cmd.Question,
				Options:          options,
				VoteType:         cmd.VoteType,
				CorrectAnswer:    -1,
				AnswerHash:       cmd.AnswerHash,
				Results:          make([]int64, len(options)),
				WeightedResults:  make([]float64, len(options)),
				QuorumVotes:      cmd.QuorumVotes,
				QuorumPercentage: cmd.QuorumPercentage,
				WeightedVoting:   cmd.WeightedVoting,
				FeePaid:          fee,
				Status:           entities.StatusActive,
				Deadline:         now.Add(time.Duration(cmd.DeadlineHours) * time.Hour),
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if cmd.VoteType == entities.VoteTypeKnowledge && cmd.CorrectAnswer != nil {
				poll.CorrectAnswer = *cmd.CorrectAnswer
			}

			if fee > 0 {
				if err := uc.Fees.CollectFee(ctx, cmd.CreatorID, cmd.CommunityID, pollID, fee); err != nil {
					return nil, err
				}
			}
			if err := uc.Polls.SavePoll(ctx, poll); err != nil {
				return nil, err
			}
			if err := uc.Communities.VoteCreated(ctx, cmd.CommunityID, fee); err != nil {
				return nil, err
			}
			if err := uc.Users.RecordVoteCreated(ctx, cmd.CreatorID); err != nil {
				return nil, err
			}
			if err := uc.appendPollEvent(ctx, poll, contractsv1.EventTypePollCreated, map[string]any{
				"poll_id":      poll.PollID,
				"community_id": poll.CommunityID,
				"creator_id":   poll.CreatorID,
				"vote_type":    string(poll.VoteType),
				"fee_paid":     fee,
			}); err != nil {
				return nil, err
			}

			logger.Info("poll created",
				"event", "poll_created",
				"module", "governance-core/poll-engine",
				"layer", "application",
				"poll_id", poll.PollID,
				"community_id", poll.CommunityID,
				"creator_id", poll.CreatorID,
				"fee_paid", fee,
			)
			return json.Marshal(poll)
		},
	)
	if err != nil {
		return entities.Poll{}, err
	}
	return created, nil
}

// CancelPoll closes an active poll. The creator may cancel their own poll;
// a community moderator may force the close, which is recorded in the
// moderation log.
func (uc PollUseCase) CancelPoll(ctx context.Context, pollID string, callerID string, reason string) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)

	pollID = strings.TrimSpace(pollID)
	callerID = strings.TrimSpace(callerID)
	reason = strings.TrimSpace(reason)
	if pollID == "" || callerID == "" {
		return entities.Poll{}, domainerrors.ErrInvalidPollInput
	}

	poll, err := uc.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return entities.Poll{}, err
	}
	if poll.Status != entities.StatusActive {
		return entities.Poll{}, domainerrors.ErrPollNotActive
	}

	moderated := false
	if callerID != poll.CreatorID {
		canModerate, err := uc.Memberships.CanModerate(ctx, poll.CommunityID, callerID)
		if err != nil {
			return entities.Poll{}, err
		}
		if !canModerate {
			return entities.Poll{}, domainerrors.ErrInsufficientPermissions
		}
		moderated = true
	}

	now := uc.now()
	poll.Status = entities.StatusCancelled
	poll.UpdatedAt = now
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}
	if moderated {
		if err := uc.Moderation.RecordPollModeration(ctx, poll.CommunityID, callerID, poll.PollID, "poll_cancelled", reason); err != nil {
			return entities.Poll{}, err
		}
	}
	if err := uc.appendPollEvent(ctx, poll, contractsv1.EventTypePollResolved, map[string]any{
		"poll_id":      poll.PollID,
		"community_id": poll.CommunityID,
		"status":       string(poll.Status),
	}); err != nil {
		return entities.Poll{}, err
	}

	logger.Info("poll cancelled",
		"event", "poll_cancelled",
		"module", "governance-core/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"caller_id", callerID,
		"moderated", moderated,
	)
	return poll, nil
}

func validatePollShape(cmd CreatePollCommand) error {
	if cmd.Question == "" || len(cmd.Question) > entities.MaxQuestionLength {
		return domainerrors.ErrInvalidPollInput
	}
	if len(cmd.Options) < entities.MinOptions || len(cmd.Options) > entities.MaxOptions {
		return domainerrors.ErrInvalidPollInput
	}
	for _, option := range cmd.Options {
		option = strings.TrimSpace(option)
		if option == "" || len(option) > entities.MaxOptionLength {
			return domainerrors.ErrInvalidPollInput
		}
	}
	if cmd.DeadlineHours < entities.MinDeadlineHours || cmd.DeadlineHours > entities.MaxDeadlineHours {
		return domainerrors.ErrInvalidPollInput
	}

	hasAbsolute := cmd.QuorumVotes > 0
	hasPercentage := cmd.QuorumPercentage > 0
	if hasAbsolute == hasPercentage {
		return domainerrors.ErrInvalidPollInput
	}
	if hasPercentage && cmd.QuorumPercentage > 100 {
		return domainerrors.ErrInvalidPollInput
	}

	switch cmd.VoteType {
	case entities.VoteTypeOpinion:
		if cmd.CorrectAnswer != nil || len(cmd.AnswerHash) > 0 {
			return domainerrors.ErrInvalidPollInput
		}
	case entities.VoteTypeKnowledge:
		hasAnswer := cmd.CorrectAnswer != nil && *cmd.CorrectAnswer >= 0 && *cmd.CorrectAnswer < len(cmd.Options)
		hasHash := len(cmd.AnswerHash) == entities.AnswerHashLength
		if !hasAnswer && !hasHash {
			return domainerrors.ErrCorrectAnswerRequired
		}
		if len(cmd.AnswerHash) > 0 && !hasHash {
			return domainerrors.ErrInvalidPollInput
		}
	default:
		return domainerrors.ErrInvalidPollInput
	}
	return nil
}

// creationFee resolves the fee owed for opening a poll. Moderators post for
// free; everyone else pays their reputation tier's rate.
func (uc PollUseCase) creationFee(ctx context.Context, communityID string, creatorID string) (uint64, error) {
	canModerate, err := uc.Memberships.CanModerate(ctx, communityID, creatorID)
	if err != nil {
		return 0, err
	}
	if canModerate {
		return 0, nil
	}
	profile, err := uc.Users.GetProfile(ctx, creatorID)
	if err != nil {
		return 0, err
	}
	return profile.FeeAmount, nil
}

func (uc PollUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func (uc PollUseCase) idempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func (uc PollUseCase) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := uc.now()
	record, found, err := uc.Idempotency.Get(ctx, key, now)
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
	if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(uc.idempotencyTTL()),
	}); err != nil {
		return err
	}
	return decode(payload)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}

func hashAnswer(text string) []byte {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return sum[:]
}

func (uc PollUseCase) appendPollEvent(ctx context.Context, poll entities.Poll, eventType string, data map[string]any) error {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       uc.now(),
		SourceService:    "poll-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "poll_id",
		PartitionKey:     poll.PollID,
		Data:             payload,
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
