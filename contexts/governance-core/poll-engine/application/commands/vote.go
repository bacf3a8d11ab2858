package commands

import (
	"context"
	"strings"

	application "agora/contexts/governance-core/poll-engine/application"
	"agora/contexts/governance-core/poll-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/poll-engine/domain/errors"
	contractsv1 "agora/contracts/gen/events/v1"
)

// CastVoteCommand is the write-model input for casting a vote.
type CastVoteCommand struct {
	PollID      string
	VoterID     string
	OptionIndex int
}

// CastVoteResult carries the recorded participation together with the poll
// state after quorum evaluation.
type CastVoteResult struct {
	Poll          entities.Participation
	PollState     entities.Poll
	QuorumReached bool
}

// CastVote records a vote on an active poll. The participation row is the
// uniqueness claim for (poll, voter); saving a duplicate fails before any
// tally mutates. Quorum is evaluated against a live member count snapshot
// immediately after the tally updates.
func (uc PollUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	cmd.PollID = strings.TrimSpace(cmd.PollID)
	cmd.VoterID = strings.TrimSpace(cmd.VoterID)
	if cmd.PollID == "" || cmd.VoterID == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidPollInput
	}

	poll, err := uc.Polls.GetPoll(ctx, cmd.PollID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if poll.Status != entities.StatusActive {
		return CastVoteResult{}, domainerrors.ErrPollNotActive
	}
	now := uc.now()
	if poll.Expired(now) {
		return CastVoteResult{}, domainerrors.ErrPollExpired
	}
	if cmd.OptionIndex < 0 || cmd.OptionIndex >= len(poll.Options) {
		return CastVoteResult{}, domainerrors.ErrInvalidOption
	}

	active, err := uc.Memberships.ActiveMember(ctx, poll.CommunityID, cmd.VoterID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !active {
		return CastVoteResult{}, domainerrors.ErrNotCommunityMember
	}

	profile, err := uc.Users.GetProfile(ctx, cmd.VoterID)
	if err != nil {
		return CastVoteResult{}, err
	}

	weight := 1.0
	if poll.WeightedVoting && uc.Weights != nil {
		weight = uc.Weights.Weight(profile.Reputation)
	}

	participationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	participation := entities.Participation{
		ParticipationID:    participationID,
		PollID:             poll.PollID,
		VoterID:            cmd.VoterID,
		OptionIndex:        cmd.OptionIndex,
		WeightApplied:      weight,
		ReputationSnapshot: profile.Reputation,
		VotedAt:            now,
	}
	if err := uc.Participations.SaveParticipation(ctx, participation); err != nil {
		return CastVoteResult{}, err
	}

	poll.Results[cmd.OptionIndex]++
	poll.WeightedResults[cmd.OptionIndex] += weight
	poll.TotalVotes++
	poll.UpdatedAt = now

	members, err := uc.Memberships.CountActiveMembers(ctx, poll.CommunityID)
	if err != nil {
		return CastVoteResult{}, err
	}
	quorumReached := poll.ReachedQuorum(members)
	if quorumReached {
		if poll.HasAnswerCommitment() {
			poll.Status = entities.StatusAwaitingReveal
			deadline := now.Add(entities.RevealWindow)
			poll.RevealDeadline = &deadline
		} else {
			poll.Status = entities.StatusCompleted
		}
	}
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return CastVoteResult{}, err
	}

	if err := uc.Users.GrantReputation(ctx, cmd.VoterID, 1, "vote_cast"); err != nil {
		return CastVoteResult{}, err
	}
	if poll.VoteType == entities.VoteTypeKnowledge && poll.CorrectAnswer >= 0 && cmd.OptionIndex == poll.CorrectAnswer {
		if err := uc.Users.GrantReputation(ctx, cmd.VoterID, 3, "correct_answer"); err != nil {
			return CastVoteResult{}, err
		}
	}
	if err := uc.Users.RecordVoteCast(ctx, cmd.VoterID); err != nil {
		return CastVoteResult{}, err
	}

	if err := uc.appendPollEvent(ctx, poll, contractsv1.EventTypePollVoteCast, map[string]any{
		"poll_id":      poll.PollID,
		"community_id": poll.CommunityID,
		"voter_id":     cmd.VoterID,
		"option_index": cmd.OptionIndex,
		"weight":       weight,
		"total_votes":  poll.TotalVotes,
	}); err != nil {
		return CastVoteResult{}, err
	}
	if quorumReached && poll.Status == entities.StatusCompleted {
		if err := uc.appendResolvedEvent(ctx, poll); err != nil {
			return CastVoteResult{}, err
		}
	}

	logger.Info("poll vote cast",
		"event", "poll_vote_cast",
		"module", "governance-core/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"voter_id", cmd.VoterID,
		"option_index", cmd.OptionIndex,
		"weight", weight,
		"quorum_reached", quorumReached,
	)
	return CastVoteResult{Poll: participation, PollState: poll, QuorumReached: quorumReached}, nil
}

// CheckExpired applies every deadline-driven transition for one poll. The
// worker sweeps open polls through it; callers can also invoke it directly
// for a lazy check before reads.
func (uc PollUseCase) CheckExpired(ctx context.Context, pollID string) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)

	poll, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
	if err != nil {
		return entities.Poll{}, err
	}
	now := uc.now()

	switch poll.Status {
	case entities.StatusActive:
		if !poll.Expired(now) {
			return poll, nil
		}
		members, err := uc.Memberships.CountActiveMembers(ctx, poll.CommunityID)
		if err != nil {
			return entities.Poll{}, err
		}
		if poll.ReachedQuorum(members) {
			if poll.HasAnswerCommitment() {
				poll.Status = entities.StatusAwaitingReveal
				deadline := now.Add(entities.RevealWindow)
				poll.RevealDeadline = &deadline
			} else {
				poll.Status = entities.StatusCompleted
			}
		} else {
			poll.Status = entities.StatusFailed
		}
	case entities.StatusAwaitingReveal:
		if poll.RevealDeadline == nil || now.Before(*poll.RevealDeadline) {
			return poll, nil
		}
		poll.Status = entities.StatusFailed
		if err := uc.Users.GrantReputation(ctx, poll.CreatorID, -entities.ConfidencePenaltyPoints, "reveal_missed"); err != nil {
			return entities.Poll{}, err
		}
	case entities.StatusConfidenceVoting:
		if poll.ConfidenceDeadline == nil || now.Before(*poll.ConfidenceDeadline) {
			return poll, nil
		}
		return uc.FinalizeConfidenceVoting(ctx, poll.PollID)
	default:
		return poll, nil
	}

	poll.UpdatedAt = now
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}
	if poll.Status.Terminal() {
		if err := uc.appendResolvedEvent(ctx, poll); err != nil {
			return entities.Poll{}, err
		}
	}

	logger.Info("poll expiry transition applied",
		"event", "poll_expiry_applied",
		"module", "governance-core/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"status", string(poll.Status),
	)
	return poll, nil
}

func (uc PollUseCase) appendResolvedEvent(ctx context.Context, poll entities.Poll) error {
	return uc.appendPollEvent(ctx, poll, contractsv1.EventTypePollResolved, map[string]any{
		"poll_id":        poll.PollID,
		"community_id":   poll.CommunityID,
		"status":         string(poll.Status),
		"total_votes":    poll.TotalVotes,
		"winning_option": poll.WinningOption(),
	})
}
