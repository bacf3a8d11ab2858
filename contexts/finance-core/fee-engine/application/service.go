package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"agora/contexts/finance-core/fee-engine/domain/entities"
	domainerrors "agora/contexts/finance-core/fee-engine/domain/errors"
	"agora/contexts/finance-core/fee-engine/ports"
	contractsv1 "agora/contracts/gen/events/v1"
)

// Service owns the fee pool treasury: collection, the daily distribution
// cycle, reward claims, and authority-gated withdrawals.
type Service struct {
	Pool           ports.FeePoolRepository
	Rewards        ports.RewardRepository
	Users          ports.ReputationReader
	Communities    ports.CommunityFeeRecorder
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// InitializeFeePool creates the singleton pool. A second initialization
// fails regardless of caller.
func (s Service) InitializeFeePool(ctx context.Context, authority string) (entities.FeePool, error) {
	logger := resolveLogger(s.Logger)

	authority = strings.TrimSpace(authority)
	if authority == "" {
		return entities.FeePool{}, domainerrors.ErrInvalidFeeInput
	}
	if _, exists, err := s.Pool.GetPool(ctx); err != nil {
		return entities.FeePool{}, err
	} else if exists {
		return entities.FeePool{}, domainerrors.ErrPoolAlreadyInitialized
	}

	now := s.now()
	poolID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.FeePool{}, err
	}
	pool := entities.FeePool{
		PoolID:    poolID,
		Authority: authority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Pool.SavePool(ctx, pool); err != nil {
		return entities.FeePool{}, err
	}

	logger.Info("fee pool initialized",
		"event", "fee_pool_initialized",
		"module", "finance-core/fee-engine",
		"layer", "application",
		"pool_id", pool.PoolID,
		"authority", authority,
	)
	return pool, nil
}

// CollectFee credits a poll creation fee to the pool and accrues it on the
// community's counters.
func (s Service) CollectFee(ctx context.Context, payerID string, communityID string, pollID string, amount uint64) error {
	logger := resolveLogger(s.Logger)

	payerID = strings.TrimSpace(payerID)
	communityID = strings.TrimSpace(communityID)
	pollID = strings.TrimSpace(pollID)
	if payerID == "" || communityID == "" || pollID == "" || amount == 0 {
		return domainerrors.ErrInvalidFeeInput
	}

	pool, exists, err := s.Pool.GetPool(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return domainerrors.ErrPoolNotInitialized
	}

	pool.TotalCollected += amount
	pool.Balance += amount
	pool.UpdatedAt = s.now()
	if err := s.Pool.SavePool(ctx, pool); err != nil {
		return err
	}
	if err := s.Communities.FeeAccrued(ctx, communityID, amount); err != nil {
		return err
	}

	logger.Info("fee collected",
		"event", "fee_collected",
		"module", "finance-core/fee-engine",
		"layer", "application",
		"payer_id", payerID,
		"community_id", communityID,
		"poll_id", pollID,
		"amount", amount,
	)
	return nil
}

// DistributeDailyFees opens a new reward epoch. It is gated on the 24 hour
// interval and a non-empty balance; the released tranche is five percent of
// the balance at distribution time.
func (s Service) DistributeDailyFees(ctx context.Context) (entities.FeePool, error) {
	logger := resolveLogger(s.Logger)

	pool, exists, err := s.Pool.GetPool(ctx)
	if err != nil {
		return entities.FeePool{}, err
	}
	if !exists {
		return entities.FeePool{}, domainerrors.ErrPoolNotInitialized
	}

	now := s.now()
	if pool.LastDistribution != nil && now.Before(pool.LastDistribution.Add(entities.DistributionInterval)) {
		return entities.FeePool{}, domainerrors.ErrDistributionNotReady
	}
	if pool.Balance == 0 {
		return entities.FeePool{}, domainerrors.ErrNoFundsToDistribute
	}

	pool.DailyDistribution = pool.Balance * entities.DistributionPercent / 100
	pool.LastDistribution = &now
	pool.UpdatedAt = now
	if err := s.Pool.SavePool(ctx, pool); err != nil {
		return entities.FeePool{}, err
	}

	logger.Info("daily fees distributed",
		"event", "fee_distribution_opened",
		"module", "finance-core/fee-engine",
		"layer", "application",
		"daily_distribution", pool.DailyDistribution,
		"balance", pool.Balance,
	)
	return pool, nil
}

// ClaimReward pays a claimant their reputation band's share of the current
// epoch. The epoch gate is last_claimed < last_distribution; the balance is
// re-validated and debited in the same step as the record update.
func (s Service) ClaimReward(ctx context.Context, idempotencyKey string, userID string) (entities.RewardRecord, error) {
	logger := resolveLogger(s.Logger)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.RewardRecord{}, domainerrors.ErrInvalidFeeInput
	}
	if strings.TrimSpace(idempotencyKey) == "" {
		return entities.RewardRecord{}, domainerrors.ErrIdempotencyKeyRequired
	}

	reputation, err := s.Users.Reputation(ctx, userID)
	if err != nil {
		return entities.RewardRecord{}, err
	}
	percent := entities.RewardPercentFor(reputation)
	if percent == 0 {
		return entities.RewardRecord{}, domainerrors.ErrNotEligibleForReward
	}

	requestHash := hashStrings("claim_reward", userID, strconv.FormatInt(reputation, 10))
	var claimed entities.RewardRecord
	err = s.runIdempotent(ctx, idempotencyKey, requestHash,
		func(payload []byte) error {
			return json.Unmarshal(payload, &claimed)
		},
		func() ([]byte, error) {
			pool, exists, err := s.Pool.GetPool(ctx)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, domainerrors.ErrPoolNotInitialized
			}
			if pool.LastDistribution == nil {
				return nil, domainerrors.ErrNoDistributionYet
			}

			now := s.now()
			record, found, err := s.Rewards.GetReward(ctx, userID)
			if err != nil {
				return nil, err
			}
			if !found {
				record = entities.RewardRecord{UserID: userID, CreatedAt: now}
			}
			if record.LastClaimed != nil && !record.LastClaimed.Before(*pool.LastDistribution) {
				return nil, domainerrors.ErrAlreadyClaimedToday
			}

			payout := pool.DailyDistribution * percent / 100
			if payout == 0 {
				return nil, domainerrors.ErrInsufficientFunds
			}
			if _, err := s.Pool.DebitBalance(ctx, payout, now); err != nil {
				return nil, err
			}

			record.TotalClaimed += payout
			record.LastClaimed = &now
			record.UpdatedAt = now
			if err := s.Rewards.SaveReward(ctx, record); err != nil {
				return nil, err
			}

			if err := s.appendRewardEvent(ctx, userID, payout); err != nil {
				return nil, err
			}

			logger.Info("reward claimed",
				"event", "reward_claimed",
				"module", "finance-core/fee-engine",
				"layer", "application",
				"user_id", userID,
				"payout", payout,
				"percent", percent,
			)
			return json.Marshal(record)
		},
	)
	if err != nil {
		return entities.RewardRecord{}, err
	}
	return claimed, nil
}

// WithdrawFees moves funds out of the pool. Authority only; the amount is
// validated against the balance and debited in one step.
func (s Service) WithdrawFees(ctx context.Context, callerID string, amount uint64) (entities.FeePool, error) {
	logger := resolveLogger(s.Logger)

	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return entities.FeePool{}, domainerrors.ErrInvalidFeeInput
	}

	pool, exists, err := s.Pool.GetPool(ctx)
	if err != nil {
		return entities.FeePool{}, err
	}
	if !exists {
		return entities.FeePool{}, domainerrors.ErrPoolNotInitialized
	}
	if pool.Authority != callerID {
		return entities.FeePool{}, domainerrors.ErrUnauthorized
	}
	if amount == 0 {
		return entities.FeePool{}, domainerrors.ErrInvalidWithdrawalAmount
	}

	pool, err = s.Pool.DebitBalance(ctx, amount, s.now())
	if err != nil {
		return entities.FeePool{}, err
	}

	logger.Info("fees withdrawn",
		"event", "fees_withdrawn",
		"module", "finance-core/fee-engine",
		"layer", "application",
		"authority", callerID,
		"amount", amount,
	)
	return pool, nil
}

// UpdateFeePoolAuthority hands the pool to a new authority. Current
// authority only.
func (s Service) UpdateFeePoolAuthority(ctx context.Context, callerID string, newAuthority string) (entities.FeePool, error) {
	logger := resolveLogger(s.Logger)

	callerID = strings.TrimSpace(callerID)
	newAuthority = strings.TrimSpace(newAuthority)
	if callerID == "" || newAuthority == "" {
		return entities.FeePool{}, domainerrors.ErrInvalidFeeInput
	}

	pool, exists, err := s.Pool.GetPool(ctx)
	if err != nil {
		return entities.FeePool{}, err
	}
	if !exists {
		return entities.FeePool{}, domainerrors.ErrPoolNotInitialized
	}
	if pool.Authority != callerID {
		return entities.FeePool{}, domainerrors.ErrUnauthorized
	}

	pool.Authority = newAuthority
	pool.UpdatedAt = s.now()
	if err := s.Pool.SavePool(ctx, pool); err != nil {
		return entities.FeePool{}, err
	}

	logger.Info("fee pool authority updated",
		"event", "fee_pool_authority_updated",
		"module", "finance-core/fee-engine",
		"layer", "application",
		"previous_authority", callerID,
		"new_authority", newAuthority,
	)
	return pool, nil
}

func (s Service) GetPool(ctx context.Context) (entities.FeePool, error) {
	pool, exists, err := s.Pool.GetPool(ctx)
	if err != nil {
		return entities.FeePool{}, err
	}
	if !exists {
		return entities.FeePool{}, domainerrors.ErrPoolNotInitialized
	}
	return pool, nil
}

func (s Service) GetReward(ctx context.Context, userID string) (entities.RewardRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.RewardRecord{}, domainerrors.ErrInvalidFeeInput
	}
	record, found, err := s.Rewards.GetReward(ctx, userID)
	if err != nil {
		return entities.RewardRecord{}, err
	}
	if !found {
		return entities.RewardRecord{UserID: userID}, nil
	}
	return record, nil
}

func (s Service) GetFeeSchedule(_ context.Context) []entities.FeeScheduleEntry {
	return entities.FeeSchedule()
}

func (s Service) appendRewardEvent(ctx context.Context, userID string, payout uint64) error {
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"user_id": userID,
		"payout":  payout,
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        contractsv1.EventTypeRewardClaimed,
		OccurredAt:       s.now(),
		SourceService:    "fee-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "user_id",
		PartitionKey:     userID,
		Data:             payload,
	})
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 24 * time.Hour
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
