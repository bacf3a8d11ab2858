package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/community-experience/leaderboard-service/ports"
	contractsv1 "agora/contracts/gen/events/v1"
)

const defaultDedupTTL = 7 * 24 * time.Hour

// ScoreConsumer projects reputation and vote events into the scoreboards.
// Reputation changes drive the global board; cast votes drive the
// per-community boards.
type ScoreConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Scores        ports.ScoreRepository
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

type reputationChangedPayload struct {
	UserID           string `json:"user_id"`
	Delta            int64  `json:"delta"`
	ReputationPoints int64  `json:"reputation_points"`
	Level            int    `json:"level"`
	Reason           string `json:"reason"`
}

type voteCastPayload struct {
	PollID      string  `json:"poll_id"`
	CommunityID string  `json:"community_id"`
	VoterID     string  `json:"voter_id"`
	OptionIndex int     `json:"option_index"`
	Weight      float64 `json:"weight"`
}

func (c ScoreConsumer) Start(ctx context.Context) error {
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = "leaderboard-service"
	}
	if err := c.Subscriber.Subscribe(ctx, contractsv1.TopicReputationChanged, group, c.handleReputationChanged); err != nil {
		return fmt.Errorf("subscribe %s: %w", contractsv1.TopicReputationChanged, err)
	}
	if err := c.Subscriber.Subscribe(ctx, contractsv1.TopicPollVoteCast, group, c.handleVoteCast); err != nil {
		return fmt.Errorf("subscribe %s: %w", contractsv1.TopicPollVoteCast, err)
	}
	return nil
}

func (c ScoreConsumer) handleReputationChanged(ctx context.Context, event ports.EventEnvelope) error {
	var payload reputationChangedPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode reputation event %s: %w", event.EventID, err)
	}

	// Reserve only after a clean decode so a malformed event can be
	// retried once the payload is repaired.
	alreadyProcessed, err := c.reserveEvent(ctx, event)
	if err != nil {
		return err
	}
	if alreadyProcessed {
		return nil
	}
	if strings.TrimSpace(payload.UserID) == "" || payload.Delta == 0 {
		return nil
	}
	if err := c.Scores.IncrementGlobal(ctx, payload.UserID, float64(payload.Delta)); err != nil {
		return fmt.Errorf("apply reputation event %s: %w", event.EventID, err)
	}
	return nil
}

func (c ScoreConsumer) handleVoteCast(ctx context.Context, event ports.EventEnvelope) error {
	var payload voteCastPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode vote event %s: %w", event.EventID, err)
	}

	alreadyProcessed, err := c.reserveEvent(ctx, event)
	if err != nil {
		return err
	}
	if alreadyProcessed {
		return nil
	}
	if strings.TrimSpace(payload.CommunityID) == "" || strings.TrimSpace(payload.VoterID) == "" {
		return nil
	}
	if err := c.Scores.IncrementCommunity(ctx, payload.CommunityID, payload.VoterID, 1); err != nil {
		return fmt.Errorf("apply vote event %s: %w", event.EventID, err)
	}
	return nil
}

func (c ScoreConsumer) reserveEvent(ctx context.Context, event ports.EventEnvelope) (bool, error) {
	ttl := c.DedupTTL
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), now.Add(ttl))
	if err != nil {
		return false, fmt.Errorf("reserve event %s: %w", event.EventID, err)
	}
	return alreadyProcessed, nil
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
