package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	userledger "agora/contexts/identity-access/user-ledger"
	"agora/contexts/identity-access/user-ledger/application"
	"agora/contexts/identity-access/user-ledger/domain/entities"
	domainerrors "agora/contexts/identity-access/user-ledger/domain/errors"
)

func TestRegisterUserIsIdempotent(t *testing.T) {
	module := userledger.NewInMemoryModule(nil, nil)

	first, err := module.Service.RegisterUser(context.Background(), "reg-1", application.RegisterUserInput{
		Wallet:      "wallet-abc",
		DisplayName: "Ada",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.Level != 1 || first.VotingWeight != 1.0 {
		t.Fatalf("expected starting level 1 weight 1.0, got %d/%v", first.Level, first.VotingWeight)
	}

	replay, err := module.Service.RegisterUser(context.Background(), "reg-1", application.RegisterUserInput{
		Wallet:      "wallet-abc",
		DisplayName: "Ada",
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.UserID != first.UserID {
		t.Fatalf("replay produced a different user: %s vs %s", replay.UserID, first.UserID)
	}

	_, err = module.Service.RegisterUser(context.Background(), "reg-1", application.RegisterUserInput{
		Wallet:      "wallet-other",
		DisplayName: "Ada",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}

	_, err = module.Service.RegisterUser(context.Background(), "reg-2", application.RegisterUserInput{
		Wallet:      "wallet-abc",
		DisplayName: "Someone Else",
	})
	if !errors.Is(err, domainerrors.ErrUserAlreadyExists) {
		t.Fatalf("expected duplicate wallet rejection, got %v", err)
	}
}

func TestGrantReputationDerivesLevelAndWeight(t *testing.T) {
	module := userledger.NewInMemoryModule([]entities.User{{
		UserID:       "user-1",
		Wallet:       "wallet-1",
		Level:        1,
		VotingWeight: 1.0,
		CreatedAt:    time.Now(),
	}}, nil)

	user, err := module.Service.GrantReputation(context.Background(), application.GrantReputationInput{
		UserID: "user-1",
		Delta:  1200,
		Reason: "confidence_approved",
	})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if user.ReputationPoints != 1200 || user.Level != 121 || user.VotingWeight != 2.5 {
		t.Fatalf("unexpected derived state: %+v", user)
	}

	user, err = module.Service.GrantReputation(context.Background(), application.GrantReputationInput{
		UserID: "user-1",
		Delta:  -5000,
		Reason: "reveal_missed",
	})
	if err != nil {
		t.Fatalf("penalty: %v", err)
	}
	if user.ReputationPoints != 0 || user.VotingWeight != 1.0 {
		t.Fatalf("expected floor at zero, got %+v", user)
	}
}

func TestFeeTierBands(t *testing.T) {
	module := userledger.NewInMemoryModule([]entities.User{
		{UserID: "basic", ReputationPoints: 999},
		{UserID: "premium", ReputationPoints: 1000},
		{UserID: "vip", ReputationPoints: 5000},
	}, nil)

	cases := []struct {
		userID string
		want   entities.FeeTier
	}{
		{"basic", entities.FeeTierBasic},
		{"premium", entities.FeeTierPremium},
		{"vip", entities.FeeTierVIP},
	}
	for _, tc := range cases {
		tier, err := module.Service.FeeTierFor(context.Background(), tc.userID)
		if err != nil {
			t.Fatalf("tier %s: %v", tc.userID, err)
		}
		if tier != tc.want {
			t.Fatalf("user %s: expected tier %s, got %s", tc.userID, tc.want, tier)
		}
	}
	if entities.FeeTierVIP.Lamports() >= entities.FeeTierPremium.Lamports() {
		t.Fatalf("vip tier should be cheaper than premium")
	}
}

func TestVoteCountersTrackActivity(t *testing.T) {
	module := userledger.NewInMemoryModule([]entities.User{{UserID: "user-1"}}, nil)

	if err := module.Service.RecordVoteCast(context.Background(), "user-1"); err != nil {
		t.Fatalf("record cast: %v", err)
	}
	if err := module.Service.RecordVoteCreated(context.Background(), "user-1"); err != nil {
		t.Fatalf("record created: %v", err)
	}
	if err := module.Service.RecordVoteCast(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatalf("expected unknown user rejection, got %v", err)
	}

	user, err := module.Service.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.TotalVotesCast != 1 || user.TotalVotesCreated != 1 {
		t.Fatalf("expected counters 1/1, got %d/%d", user.TotalVotesCast, user.TotalVotesCreated)
	}
}
