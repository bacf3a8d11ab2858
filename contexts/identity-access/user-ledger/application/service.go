package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	contractsv1 "agora/contracts/gen/events/v1"
	"agora/contexts/identity-access/user-ledger/domain/entities"
	domainerrors "agora/contexts/identity-access/user-ledger/domain/errors"
	"agora/contexts/identity-access/user-ledger/ports"

	"github.com/google/uuid"
)

const maxDisplayNameLength = 50

// Service owns the user ledger: registration, reputation, and the derived
// level and voting weight values every other module reads.
type Service struct {
	Users          ports.UserRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type RegisterUserInput struct {
	Wallet      string
	DisplayName string
}

type GrantReputationInput struct {
	UserID string
	Delta  int64
	Reason string
}

func (s Service) RegisterUser(ctx context.Context, idempotencyKey string, input RegisterUserInput) (entities.User, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	input.Wallet = strings.TrimSpace(input.Wallet)
	input.DisplayName = strings.TrimSpace(input.DisplayName)

	if idempotencyKey == "" {
		return entities.User{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if input.Wallet == "" || len(input.DisplayName) > maxDisplayNameLength {
		return entities.User{}, domainerrors.ErrInvalidUserInput
	}

	requestHash := hashStrings("register", input.Wallet, input.DisplayName)
	var output entities.User
	err := s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &output) },
		func() ([]byte, error) {
			if _, exists, err := s.Users.GetUserByWallet(ctx, input.Wallet); err != nil {
				return nil, err
			} else if exists {
				return nil, domainerrors.ErrUserAlreadyExists
			}

			userID, err := s.newID(ctx)
			if err != nil {
				return nil, err
			}
			now := s.now()
			user := entities.User{
				UserID:       userID,
				Wallet:       input.Wallet,
				DisplayName:  input.DisplayName,
				Level:        entities.LevelForPoints(0),
				VotingWeight: entities.WeightForPoints(0),
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := s.Users.SaveUser(ctx, user); err != nil {
				return nil, err
			}
			resolveLogger(s.Logger).Info("user registered",
				"event", "user_ledger_registered",
				"module", "identity-access/user-ledger",
				"layer", "application",
				"user_id", user.UserID,
			)
			return json.Marshal(user)
		},
	)
	return output, err
}

func (s Service) GetUser(ctx context.Context, userID string) (entities.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.User{}, domainerrors.ErrInvalidUserInput
	}
	return s.Users.GetUser(ctx, userID)
}

func (s Service) GetUserByWallet(ctx context.Context, wallet string) (entities.User, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return entities.User{}, domainerrors.ErrInvalidUserInput
	}
	user, exists, err := s.Users.GetUserByWallet(ctx, wallet)
	if err != nil {
		return entities.User{}, err
	}
	if !exists {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

// GrantReputation applies a signed reputation delta and rederives level and
// voting weight in the same save. Used in-process by poll resolution and
// moderation outcomes, so it takes no idempotency key; the caller's own
// transaction provides replay safety.
func (s Service) GrantReputation(ctx context.Context, input GrantReputationInput) (entities.User, error) {
	input.UserID = strings.TrimSpace(input.UserID)
	input.Reason = strings.TrimSpace(input.Reason)
	if input.UserID == "" {
		return entities.User{}, domainerrors.ErrInvalidUserInput
	}

	user, err := s.Users.GetUser(ctx, input.UserID)
	if err != nil {
		return entities.User{}, err
	}

	user.ApplyReputationDelta(input.Delta, s.now())
	if err := s.Users.SaveUser(ctx, user); err != nil {
		return entities.User{}, err
	}

	if err := s.appendReputationEvent(ctx, user, input.Delta, input.Reason); err != nil {
		return entities.User{}, err
	}
	resolveLogger(s.Logger).Info("reputation granted",
		"event", "user_ledger_reputation_granted",
		"module", "identity-access/user-ledger",
		"layer", "application",
		"user_id", user.UserID,
		"delta", input.Delta,
		"reputation", user.ReputationPoints,
		"reason", input.Reason,
	)
	return user, nil
}

func (s Service) RecordVoteCast(ctx context.Context, userID string) error {
	return s.bumpCounter(ctx, userID, func(user *entities.User) {
		user.TotalVotesCast++
	})
}

func (s Service) RecordVoteCreated(ctx context.Context, userID string) error {
	return s.bumpCounter(ctx, userID, func(user *entities.User) {
		user.TotalVotesCreated++
	})
}

// FeeTierFor resolves the paid creation fee tier for a user from current
// reputation. Moderator-gated free creation is decided by the caller, which
// knows the community role.
func (s Service) FeeTierFor(ctx context.Context, userID string) (entities.FeeTier, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return entities.TierForReputation(user.ReputationPoints), nil
}

func (s Service) bumpCounter(ctx context.Context, userID string, mutate func(*entities.User)) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domainerrors.ErrInvalidUserInput
	}
	user, err := s.Users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	mutate(&user)
	user.UpdatedAt = s.now()
	return s.Users.SaveUser(ctx, user)
}

type reputationChangedPayload struct {
	UserID           string  `json:"user_id"`
	Delta            int64   `json:"delta"`
	ReputationPoints int64   `json:"reputation_points"`
	Level            int     `json:"level"`
	VotingWeight     float64 `json:"voting_weight"`
	Reason           string  `json:"reason"`
}

func (s Service) appendReputationEvent(ctx context.Context, user entities.User, delta int64, reason string) error {
	if s.Outbox == nil {
		return nil
	}
	data, err := json.Marshal(reputationChangedPayload{
		UserID:           user.UserID,
		Delta:            delta,
		ReputationPoints: user.ReputationPoints,
		Level:            user.Level,
		VotingWeight:     user.VotingWeight,
		Reason:           reason,
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     contractsv1.EventTypeReputationChanged,
		OccurredAt:    s.now(),
		SourceService: "identity-access/user-ledger",
		SchemaVersion: 1,
		PartitionKey:  user.UserID,
		Data:          data,
	})
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
