package unit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	leaderboardservice "agora/contexts/community-experience/leaderboard-service"
	domainerrors "agora/contexts/community-experience/leaderboard-service/domain/errors"
	userledger "agora/contexts/identity-access/user-ledger"
	userledgerapp "agora/contexts/identity-access/user-ledger/application"
	contractsv1 "agora/contracts/gen/events/v1"
)

func reputationEvent(eventID string, userID string, delta int64) contractsv1.Envelope {
	data, _ := json.Marshal(map[string]any{
		"user_id": userID,
		"delta":   delta,
	})
	return contractsv1.Envelope{
		EventID:       eventID,
		EventType:     contractsv1.EventTypeReputationChanged,
		OccurredAt:    time.Now().UTC(),
		SourceService: "identity-access/user-ledger",
		SchemaVersion: 1,
		PartitionKey:  userID,
		Data:          data,
	}
}

func voteCastEvent(eventID string, communityID string, voterID string) contractsv1.Envelope {
	data, _ := json.Marshal(map[string]any{
		"poll_id":      "poll-1",
		"community_id": communityID,
		"voter_id":     voterID,
	})
	return contractsv1.Envelope{
		EventID:       eventID,
		EventType:     contractsv1.EventTypePollVoteCast,
		OccurredAt:    time.Now().UTC(),
		SourceService: "governance-core/poll-engine",
		SchemaVersion: 1,
		PartitionKey:  communityID,
		Data:          data,
	}
}

func TestScoreConsumerProjectsEvents(t *testing.T) {
	module := leaderboardservice.NewInMemoryModule(nil)
	ctx := context.Background()
	if err := module.Consumer.Start(ctx); err != nil {
		t.Fatalf("start consumer: %v", err)
	}

	if err := module.Store.Publish(ctx, contractsv1.TopicReputationChanged, reputationEvent("evt-1", "user-1", 10)); err != nil {
		t.Fatalf("publish reputation: %v", err)
	}
	if err := module.Store.Publish(ctx, contractsv1.TopicReputationChanged, reputationEvent("evt-2", "user-2", 25)); err != nil {
		t.Fatalf("publish reputation: %v", err)
	}
	if err := module.Store.Publish(ctx, contractsv1.TopicPollVoteCast, voteCastEvent("evt-3", "community-1", "user-1")); err != nil {
		t.Fatalf("publish vote: %v", err)
	}

	global, err := module.Queries.GetGlobalLeaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("global board: %v", err)
	}
	if len(global) != 2 || global[0].UserID != "user-2" || global[0].Score != 25 || global[0].Rank != 1 {
		t.Fatalf("unexpected global board: %+v", global)
	}

	community, err := module.Queries.GetCommunityLeaderboard(ctx, "community-1", 10)
	if err != nil {
		t.Fatalf("community board: %v", err)
	}
	if len(community) != 1 || community[0].UserID != "user-1" || community[0].Score != 1 {
		t.Fatalf("unexpected community board: %+v", community)
	}
}

func TestScoreConsumerAcceptsLedgerOutboxEvents(t *testing.T) {
	ledger := userledger.NewInMemoryModule(nil, nil)
	board := leaderboardservice.NewInMemoryModule(nil)
	ctx := context.Background()
	if err := board.Consumer.Start(ctx); err != nil {
		t.Fatalf("start consumer: %v", err)
	}

	user, err := ledger.Service.RegisterUser(ctx, "reg-contract", userledgerapp.RegisterUserInput{
		Wallet:      "wallet-contract",
		DisplayName: "Grace",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := ledger.Service.GrantReputation(ctx, userledgerapp.GrantReputationInput{
		UserID: user.UserID,
		Delta:  10,
		Reason: "vote_cast",
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	// Relay the ledger's own outbox rows instead of hand-built payloads so
	// a producer and consumer schema drift fails here.
	pending, err := ledger.Store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	relayed := 0
	for _, message := range pending {
		if message.EventType != contractsv1.EventTypeReputationChanged {
			continue
		}
		var envelope contractsv1.Envelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			t.Fatalf("decode outbox row: %v", err)
		}
		if err := board.Store.Publish(ctx, contractsv1.TopicReputationChanged, envelope); err != nil {
			t.Fatalf("publish: %v", err)
		}
		relayed++
	}
	if relayed == 0 {
		t.Fatalf("expected at least one reputation event in the ledger outbox")
	}

	entry, err := board.Queries.GetUserRank(ctx, "", user.UserID)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if entry.Score != 10 {
		t.Fatalf("expected projected score 10, got %v", entry.Score)
	}
}

func TestScoreConsumerDeduplicatesReplays(t *testing.T) {
	module := leaderboardservice.NewInMemoryModule(nil)
	ctx := context.Background()
	if err := module.Consumer.Start(ctx); err != nil {
		t.Fatalf("start consumer: %v", err)
	}

	event := reputationEvent("evt-dup", "user-1", 10)
	for i := 0; i < 3; i++ {
		if err := module.Store.Publish(ctx, contractsv1.TopicReputationChanged, event); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	entry, err := module.Queries.GetUserRank(ctx, "", "user-1")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if entry.Score != 10 {
		t.Fatalf("expected score 10 after replays, got %v", entry.Score)
	}
}

func TestScoreConsumerRetriesAfterDecodeFailure(t *testing.T) {
	module := leaderboardservice.NewInMemoryModule(nil)
	ctx := context.Background()
	if err := module.Consumer.Start(ctx); err != nil {
		t.Fatalf("start consumer: %v", err)
	}

	broken := reputationEvent("evt-retry", "user-1", 10)
	broken.Data = []byte("not-json")
	if err := module.Store.Publish(ctx, contractsv1.TopicReputationChanged, broken); err == nil {
		t.Fatalf("expected decode failure for malformed payload")
	}

	// The failed delivery must not burn the dedup slot for the event ID.
	if err := module.Store.Publish(ctx, contractsv1.TopicReputationChanged, reputationEvent("evt-retry", "user-1", 10)); err != nil {
		t.Fatalf("publish repaired event: %v", err)
	}
	entry, err := module.Queries.GetUserRank(ctx, "", "user-1")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if entry.Score != 10 {
		t.Fatalf("expected repaired event to apply, got score %v", entry.Score)
	}
}

func TestGetUserRankMissingUser(t *testing.T) {
	module := leaderboardservice.NewInMemoryModule(nil)
	module.Store.SetScore("", "user-1", 42)

	entry, err := module.Queries.GetUserRank(context.Background(), "", "user-1")
	if err != nil || entry.Rank != 1 {
		t.Fatalf("expected rank 1, got %+v err %v", entry, err)
	}

	if _, err := module.Queries.GetUserRank(context.Background(), "", "ghost"); !errors.Is(err, domainerrors.ErrUserNotRanked) {
		t.Fatalf("expected unranked rejection, got %v", err)
	}
}
