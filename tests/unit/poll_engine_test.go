package unit

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"testing"
	"time"

	pollengine "agora/contexts/governance-core/poll-engine"
	"agora/contexts/governance-core/poll-engine/application/commands"
	"agora/contexts/governance-core/poll-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/poll-engine/domain/errors"
	"agora/contexts/governance-core/poll-engine/ports"
)

func newPollModule(t *testing.T) pollengine.Module {
	t.Helper()
	return pollengine.NewInMemoryModule(nil, nil)
}

func seedVoters(module pollengine.Module, communityID string, count int) []string {
	voters := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		userID := fmt.Sprintf("user-%d", i)
		module.Store.SetMember(communityID, userID, true, false)
		module.Store.SetProfile(ports.UserProfile{UserID: userID})
		voters = append(voters, userID)
	}
	return voters
}

func TestCreatePollChargesCreatorTierFee(t *testing.T) {
	module := newPollModule(t)
	module.Store.SetMember("community-1", "creator", true, false)
	module.Store.SetProfile(ports.UserProfile{
		UserID:     "creator",
		Reputation: 200,
		FeeTier:    "standard",
		FeeAmount:  5000,
	})

	poll, err := module.UseCase.CreatePoll(context.Background(), commands.CreatePollCommand{
		IdempotencyKey: "create-1",
		CommunityID:    "community-1",
		CreatorID:      "creator",
		Question:       "Which option?",
		Options:        []string{"Option A", "Option B"},
		VoteType:       entities.VoteTypeOpinion,
		QuorumVotes:    3,
		DeadlineHours:  24,
	})
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}
	if poll.FeePaid != 5000 {
		t.Fatalf("expected fee 5000, got %d", poll.FeePaid)
	}
	if got := module.Store.FeesCollected("creator"); got != 5000 {
		t.Fatalf("expected 5000 collected, got %d", got)
	}
}

func TestCreatePollModeratorPostsFree(t *testing.T) {
	module := newPollModule(t)
	module.Store.SetMember("community-1", "mod", true, true)
	module.Store.SetProfile(ports.UserProfile{
		UserID:    "mod",
		FeeTier:   "standard",
		FeeAmount: 5000,
	})

	poll, err := module.UseCase.CreatePoll(context.Background(), commands.CreatePollCommand{
		IdempotencyKey: "create-mod",
		CommunityID:    "community-1",
		CreatorID:      "mod",
		Question:       "Free for moderators?",
		Options:        []string{"Yes", "No"},
		VoteType:       entities.VoteTypeOpinion,
		QuorumVotes:    2,
		DeadlineHours:  24,
	})
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}
	if poll.FeePaid != 0 {
		t.Fatalf("expected zero fee for moderator, got %d", poll.FeePaid)
	}
	if got := module.Store.FeesCollected("mod"); got != 0 {
		t.Fatalf("expected no fee collected, got %d", got)
	}
}

func TestCreatePollShapeValidation(t *testing.T) {
	module := newPollModule(t)
	module.Store.SetMember("community-1", "creator", true, false)
	module.Store.SetProfile(ports.UserProfile{UserID: "creator"})

	base := commands.CreatePollCommand{
		IdempotencyKey: "create-bad",
		CommunityID:    "community-1",
		CreatorID:      "creator",
		Question:       "Question?",
		Options:        []string{"A", "B"},
		VoteType:       entities.VoteTypeOpinion,
		QuorumVotes:    2,
		DeadlineHours:  24,
	}

	single := base
	single.Options = []string{"only"}
	if _, err := module.UseCase.CreatePoll(context.Background(), single); !errors.Is(err, domainerrors.ErrInvalidPollInput) {
		t.Fatalf("expected invalid input for single option, got %v", err)
	}

	bothQuorums := base
	bothQuorums.QuorumPercentage = 50
	if _, err := module.UseCase.CreatePoll(context.Background(), bothQuorums); !errors.Is(err, domainerrors.ErrInvalidPollInput) {
		t.Fatalf("expected invalid input for double quorum, got %v", err)
	}

	knowledge := base
	knowledge.VoteType = entities.VoteTypeKnowledge
	if _, err := module.UseCase.CreatePoll(context.Background(), knowledge); !errors.Is(err, domainerrors.ErrCorrectAnswerRequired) {
		t.Fatalf("expected missing answer error, got %v", err)
	}
}

func TestCastVoteTallyConservation(t *testing.T) {
	module := newPollModule(t)
	voters := seedVoters(module, "community-1", 10)
	module.Store.SetPoll(entities.Poll{
		PollID:          "poll-1",
		CommunityID:     "community-1",
		CreatorID:       "creator",
		Question:        "Pick one",
		Options:         []string{"A", "B"},
		VoteType:        entities.VoteTypeOpinion,
		CorrectAnswer:   -1,
		Results:         make([]int64, 2),
		WeightedResults: make([]float64, 2),
		QuorumVotes:     8,
		Status:          entities.StatusActive,
		Deadline:        time.Now().Add(24 * time.Hour),
	})

	for i, voter := range voters[:3] {
		if _, err := module.UseCase.CastVote(context.Background(), commands.CastVoteCommand{
			PollID:      "poll-1",
			VoterID:     voter,
			OptionIndex: i % 2,
		}); err != nil {
			t.Fatalf("vote %s: %v", voter, err)
		}
	}

	poll, err := module.Queries.GetPoll(context.Background(), "poll-1")
	if err != nil {
		t.Fatalf("get poll: %v", err)
	}
	var sum int64
	for _, count := range poll.Results {
		sum += count
	}
	if sum != poll.TotalVotes || poll.TotalVotes != 3 {
		t.Fatalf("tally mismatch: results sum %d, total %d", sum, poll.TotalVotes)
	}

	_, err = module.UseCase.CastVote(context.Background(), commands.CastVoteCommand{
		PollID:      "poll-1",
		VoterID:     voters[0],
		OptionIndex: 1,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected duplicate vote rejection, got %v", err)
	}
}

func TestQuorumCompletesPoll(t *testing.T) {
	module := newPollModule(t)
	voters := seedVoters(module, "community-1", 10)
	module.Store.SetPoll(entities.Poll{
		PollID:          "poll-quorum",
		CommunityID:     "community-1",
		CreatorID:       "creator",
		Question:        "Reach quorum?",
		Options:         []string{"Yes", "No"},
		VoteType:        entities.VoteTypeOpinion,
		CorrectAnswer:   -1,
		Results:         make([]int64, 2),
		WeightedResults: make([]float64, 2),
		QuorumVotes:     5,
		Status:          entities.StatusActive,
		Deadline:        time.Now().Add(24 * time.Hour),
	})

	var last commands.CastVoteResult
	for _, voter := range voters[:5] {
		result, err := module.UseCase.CastVote(context.Background(), commands.CastVoteCommand{
			PollID:      "poll-quorum",
			VoterID:     voter,
			OptionIndex: 0,
		})
		if err != nil {
			t.Fatalf("vote %s: %v", voter, err)
		}
		last = result
	}
	if !last.QuorumReached {
		t.Fatalf("expected quorum on fifth vote")
	}
	if last.PollState.Status != entities.StatusCompleted {
		t.Fatalf("expected completed, got %s", last.PollState.Status)
	}
}

func TestPercentageQuorumCompletesPoll(t *testing.T) {
	module := newPollModule(t)
	voters := seedVoters(module, "community-1", 10)
	module.Store.SetPoll(entities.Poll{
		PollID:           "poll-percentage",
		CommunityID:      "community-1",
		CreatorID:        "creator",
		Question:         "Half the community?",
		Options:          []string{"Yes", "No"},
		VoteType:         entities.VoteTypeOpinion,
		CorrectAnswer:    -1,
		Results:          make([]int64, 2),
		WeightedResults:  make([]float64, 2),
		QuorumPercentage: 50,
		Status:           entities.StatusActive,
		Deadline:         time.Now().Add(24 * time.Hour),
	})

	var last commands.CastVoteResult
	for i, voter := range voters[:5] {
		result, err := module.UseCase.CastVote(context.Background(), commands.CastVoteCommand{
			PollID:      "poll-percentage",
			VoterID:     voter,
			OptionIndex: 0,
		})
		if err != nil {
			t.Fatalf("vote %s: %v", voter, err)
		}
		if i < 4 && result.QuorumReached {
			t.Fatalf("quorum reached too early at vote %d", i+1)
		}
		last = result
	}
	if !last.QuorumReached {
		t.Fatalf("expected quorum at half of ten members")
	}
	if last.PollState.Status != entities.StatusCompleted {
		t.Fatalf("expected completed, got %s", last.PollState.Status)
	}
}

func TestDeadlineWithoutQuorumFailsPoll(t *testing.T) {
	module := newPollModule(t)
	voters := seedVoters(module, "community-1", 10)
	deadline := time.Now().Add(time.Hour)
	module.Store.SetPoll(entities.Poll{
		PollID:          "poll-fail",
		CommunityID:     "community-1",
		CreatorID:       "creator",
		Question:        "Will this fail?",
		Options:         []string{"Yes", "No"},
		VoteType:        entities.VoteTypeOpinion,
		CorrectAnswer:   -1,
		Results:         make([]int64, 2),
		WeightedResults: make([]float64, 2),
		QuorumVotes:     5,
		Status:          entities.StatusActive,
		Deadline:        deadline,
	})

	for _, voter := range voters[:4] {
		if _, err := module.UseCase.CastVote(context.Background(), commands.CastVoteCommand{
			PollID:      "poll-fail",
			VoterID:     voter,
			OptionIndex: 0,
		}); err != nil {
			t.Fatalf("vote %s: %v", voter, err)
		}
	}

	module.Store.NowFunc = func() time.Time { return deadline.Add(time.Minute) }
	poll, err := module.UseCase.CheckExpired(context.Background(), "poll-fail")
	if err != nil {
		t.Fatalf("check expired: %v", err)
	}
	if poll.Status != entities.StatusFailed {
		t.Fatalf("expected failed, got %s", poll.Status)
	}
}

func TestWeightedTallyDivergesFromRawCounts(t *testing.T) {
	module := newPollModule(t)
	module.Store.SetMember("community-1", "novice", true, false)
	module.Store.SetMember("community-1", "veteran", true, false)
	module.Store.SetProfile(ports.UserProfile{UserID: "novice", Reputation: 10})
	module.Store.SetProfile(ports.UserProfile{UserID: "veteran", Reputation: 600})
	module.Store.SetPoll(entities.Poll{
		PollID:          "poll-weighted",
		CommunityID:     "community-1",
		CreatorID:       "creator",
		Question:        "Weighted?",
		Options:         []string{"A", "B"},
		VoteType:        entities.VoteTypeOpinion,
		CorrectAnswer:   -1,
		Results:         make([]int64, 2),
		WeightedResults: make([]float64, 2),
		QuorumVotes:     10,
		WeightedVoting:  true,
		Status:          entities.StatusActive,
		Deadline:        time.Now().Add(24 * time.Hour),
	})

	if _, err := module.UseCase.CastVote(context.Background(), commands.CastVoteCommand{
		PollID: "poll-weighted", VoterID: "novice", OptionIndex: 0,
	}); err != nil {
		t.Fatalf("novice vote: %v", err)
	}
	if _, err := module.UseCase.CastVote(context.Background(), commands.CastVoteCommand{
		PollID: "poll-weighted", VoterID: "veteran", OptionIndex: 1,
	}); err != nil {
		t.Fatalf("veteran vote: %v", err)
	}

	poll, err := module.Queries.GetPoll(context.Background(), "poll-weighted")
	if err != nil {
		t.Fatalf("get poll: %v", err)
	}
	if poll.Results[0] != 1 || poll.Results[1] != 1 {
		t.Fatalf("expected raw tie, got %v", poll.Results)
	}
	if poll.WeightedResults[0] != 1.0 || poll.WeightedResults[1] != 2.0 {
		t.Fatalf("expected weighted 1.0 vs 2.0, got %v", poll.WeightedResults)
	}
}

func seedCommittedPoll(t *testing.T, module pollengine.Module, answerText string) []string {
	t.Helper()
	voters := seedVoters(module, "community-1", 5)
	module.Store.SetMember("community-1", "creator", true, false)
	module.Store.SetProfile(ports.UserProfile{UserID: "creator", Reputation: 50})

	hash := sha256.Sum256([]byte(answerText))
	module.Store.SetPoll(entities.Poll{
		PollID:          "poll-commit",
		CommunityID:     "community-1",
		CreatorID:       "creator",
		Question:        "Which option is right?",
		Options:         []string{"Option A", "Option B"},
		VoteType:        entities.VoteTypeKnowledge,
		CorrectAnswer:   -1,
		AnswerHash:      hash[:],
		Results:         make([]int64, 2),
		WeightedResults: make([]float64, 2),
		QuorumVotes:     5,
		Status:          entities.StatusActive,
		Deadline:        time.Now().Add(24 * time.Hour),
	})

	for _, voter := range voters {
		if _, err := module.UseCase.CastVote(context.Background(), commands.CastVoteCommand{
			PollID:      "poll-commit",
			VoterID:     voter,
			OptionIndex: 1,
		}); err != nil {
			t.Fatalf("vote %s: %v", voter, err)
		}
	}
	return voters
}

func TestCommitRevealFlow(t *testing.T) {
	module := newPollModule(t)
	seedCommittedPoll(t, module, "Option B")

	poll, err := module.Queries.GetPoll(context.Background(), "poll-commit")
	if err != nil {
		t.Fatalf("get poll: %v", err)
	}
	if poll.Status != entities.StatusAwaitingReveal {
		t.Fatalf("expected awaiting reveal after quorum, got %s", poll.Status)
	}

	if _, err := module.UseCase.RevealAnswer(context.Background(), "poll-commit", "user-1", "Option B"); !errors.Is(err, domainerrors.ErrInsufficientPermissions) {
		t.Fatalf("expected non-creator reveal rejection, got %v", err)
	}
	if _, err := module.UseCase.RevealAnswer(context.Background(), "poll-commit", "creator", "Option A"); !errors.Is(err, domainerrors.ErrInvalidAnswerHash) {
		t.Fatalf("expected hash mismatch, got %v", err)
	}

	revealed, err := module.UseCase.RevealAnswer(context.Background(), "poll-commit", "creator", "Option B")
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if revealed.Status != entities.StatusConfidenceVoting {
		t.Fatalf("expected confidence voting, got %s", revealed.Status)
	}
	if revealed.CorrectAnswer != 1 {
		t.Fatalf("expected correct answer index 1, got %d", revealed.CorrectAnswer)
	}
}

func TestConfidenceApprovalBoundary(t *testing.T) {
	module := newPollModule(t)
	voters := seedCommittedPoll(t, module, "Option B")

	if _, err := module.UseCase.RevealAnswer(context.Background(), "poll-commit", "creator", "Option B"); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	if _, err := module.UseCase.VoteConfidence(context.Background(), "poll-commit", "creator", true); !errors.Is(err, domainerrors.ErrNotPollParticipant) {
		t.Fatalf("expected non-participant rejection, got %v", err)
	}

	// Exactly 60 percent approval rewards the creator.
	for i, voter := range voters {
		if _, err := module.UseCase.VoteConfidence(context.Background(), "poll-commit", voter, i < 3); err != nil {
			t.Fatalf("confidence %s: %v", voter, err)
		}
	}

	if _, err := module.UseCase.FinalizeConfidenceVoting(context.Background(), "poll-commit"); !errors.Is(err, domainerrors.ErrConfidenceStillActive) {
		t.Fatalf("expected active window rejection, got %v", err)
	}

	module.Store.NowFunc = func() time.Time {
		return time.Now().Add(entities.ConfidenceWindow + time.Hour)
	}
	before := module.Store.Reputation("creator")
	poll, err := module.UseCase.FinalizeConfidenceVoting(context.Background(), "poll-commit")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if poll.Status != entities.StatusCompleted {
		t.Fatalf("expected completed, got %s", poll.Status)
	}
	if got := module.Store.Reputation("creator"); got != before+entities.ConfidenceRewardPoints {
		t.Fatalf("expected creator reward, got %d (was %d)", got, before)
	}
}

func TestConfidenceRejectionPenalizesCreator(t *testing.T) {
	module := newPollModule(t)
	voters := seedCommittedPoll(t, module, "Option B")

	if _, err := module.UseCase.RevealAnswer(context.Background(), "poll-commit", "creator", "Option B"); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := module.UseCase.VoteConfidence(context.Background(), "poll-commit", voters[0], true); err != nil {
		t.Fatalf("confidence approve: %v", err)
	}
	if _, err := module.UseCase.VoteConfidence(context.Background(), "poll-commit", voters[1], false); err != nil {
		t.Fatalf("confidence reject: %v", err)
	}

	module.Store.NowFunc = func() time.Time {
		return time.Now().Add(entities.ConfidenceWindow + time.Hour)
	}
	before := module.Store.Reputation("creator")
	if _, err := module.UseCase.FinalizeConfidenceVoting(context.Background(), "poll-commit"); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got := module.Store.Reputation("creator"); got != before-entities.ConfidencePenaltyPoints {
		t.Fatalf("expected creator penalty, got %d (was %d)", got, before)
	}
}

func TestRevealMissedFailsPollAndPenalizesCreator(t *testing.T) {
	module := newPollModule(t)
	seedCommittedPoll(t, module, "Option B")

	module.Store.NowFunc = func() time.Time {
		return time.Now().Add(entities.RevealWindow + time.Hour)
	}
	before := module.Store.Reputation("creator")
	poll, err := module.UseCase.CheckExpired(context.Background(), "poll-commit")
	if err != nil {
		t.Fatalf("check expired: %v", err)
	}
	if poll.Status != entities.StatusFailed {
		t.Fatalf("expected failed, got %s", poll.Status)
	}
	if got := module.Store.Reputation("creator"); got != before-entities.ConfidencePenaltyPoints {
		t.Fatalf("expected reveal penalty, got %d (was %d)", got, before)
	}
}

func TestCancelPollPermissions(t *testing.T) {
	module := newPollModule(t)
	module.Store.SetMember("community-1", "creator", true, false)
	module.Store.SetMember("community-1", "bystander", true, false)
	module.Store.SetMember("community-1", "mod", true, true)
	module.Store.SetPoll(entities.Poll{
		PollID:          "poll-cancel",
		CommunityID:     "community-1",
		CreatorID:       "creator",
		Question:        "Cancel me",
		Options:         []string{"A", "B"},
		VoteType:        entities.VoteTypeOpinion,
		CorrectAnswer:   -1,
		Results:         make([]int64, 2),
		WeightedResults: make([]float64, 2),
		QuorumVotes:     5,
		Status:          entities.StatusActive,
		Deadline:        time.Now().Add(24 * time.Hour),
	})

	if _, err := module.UseCase.CancelPoll(context.Background(), "poll-cancel", "bystander", "nope"); !errors.Is(err, domainerrors.ErrInsufficientPermissions) {
		t.Fatalf("expected bystander rejection, got %v", err)
	}

	poll, err := module.UseCase.CancelPoll(context.Background(), "poll-cancel", "mod", "off topic")
	if err != nil {
		t.Fatalf("moderator cancel: %v", err)
	}
	if poll.Status != entities.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", poll.Status)
	}

	entries := module.Store.ModerationEntries()
	if len(entries) != 1 || entries[0].Action != "poll_cancelled" || entries[0].PollID != "poll-cancel" {
		t.Fatalf("expected moderation log entry, got %+v", entries)
	}
}
