package commands

import (
	"bytes"
	"context"
	"strings"

	application "agora/contexts/governance-core/poll-engine/application"
	"agora/contexts/governance-core/poll-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/poll-engine/domain/errors"
)

// RevealAnswer opens the confidence phase of a committed knowledge poll. Only
// the creator may reveal, the plaintext must hash to the stored commitment,
// and the reveal window must still be open.
func (uc PollUseCase) RevealAnswer(ctx context.Context, pollID string, creatorID string, answerText string) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)

	pollID = strings.TrimSpace(pollID)
	creatorID = strings.TrimSpace(creatorID)
	answerText = strings.TrimSpace(answerText)
	if pollID == "" || creatorID == "" || answerText == "" {
		return entities.Poll{}, domainerrors.ErrInvalidPollInput
	}

	poll, err := uc.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return entities.Poll{}, err
	}
	if poll.CreatorID != creatorID {
		return entities.Poll{}, domainerrors.ErrInsufficientPermissions
	}
	if poll.Status != entities.StatusAwaitingReveal {
		return entities.Poll{}, domainerrors.ErrNotAwaitingReveal
	}
	now := uc.now()
	if poll.RevealDeadline != nil && !now.Before(*poll.RevealDeadline) {
		return entities.Poll{}, domainerrors.ErrRevealDeadlinePassed
	}
	if !poll.HasAnswerCommitment() {
		return entities.Poll{}, domainerrors.ErrNoAnswerHashStored
	}
	if !bytes.Equal(hashAnswer(answerText), poll.AnswerHash) {
		logger.Warn("poll reveal hash mismatch",
			"event", "poll_reveal_hash_mismatch",
			"module", "governance-core/poll-engine",
			"layer", "application",
			"poll_id", poll.PollID,
		)
		return entities.Poll{}, domainerrors.ErrInvalidAnswerHash
	}

	poll.RevealedText = answerText
	poll.CorrectAnswer = poll.OptionIndex(answerText)
	poll.Status = entities.StatusConfidenceVoting
	deadline := now.Add(entities.ConfidenceWindow)
	poll.ConfidenceDeadline = &deadline
	poll.UpdatedAt = now
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}

	logger.Info("poll answer revealed",
		"event", "poll_answer_revealed",
		"module", "governance-core/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"correct_answer", poll.CorrectAnswer,
	)
	return poll, nil
}

// VoteConfidence records a participant's verdict on the revealed answer.
// One ballot per participant; non-participants are rejected.
func (uc PollUseCase) VoteConfidence(ctx context.Context, pollID string, voterID string, approve bool) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)

	pollID = strings.TrimSpace(pollID)
	voterID = strings.TrimSpace(voterID)
	if pollID == "" || voterID == "" {
		return entities.Poll{}, domainerrors.ErrInvalidPollInput
	}

	poll, err := uc.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return entities.Poll{}, err
	}
	if poll.Status != entities.StatusConfidenceVoting {
		return entities.Poll{}, domainerrors.ErrNotConfidenceVoting
	}
	now := uc.now()
	if poll.ConfidenceDeadline != nil && !now.Before(*poll.ConfidenceDeadline) {
		return entities.Poll{}, domainerrors.ErrConfidenceDeadlinePassed
	}

	if _, participated, err := uc.Participations.GetParticipation(ctx, pollID, voterID); err != nil {
		return entities.Poll{}, err
	} else if !participated {
		return entities.Poll{}, domainerrors.ErrNotPollParticipant
	}
	if _, voted, err := uc.Participations.GetConfidenceBallot(ctx, pollID, voterID); err != nil {
		return entities.Poll{}, err
	} else if voted {
		return entities.Poll{}, domainerrors.ErrAlreadyVotedConfidence
	}

	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Poll{}, err
	}
	if err := uc.Participations.SaveConfidenceBallot(ctx, entities.ConfidenceBallot{
		BallotID: ballotID,
		PollID:   pollID,
		VoterID:  voterID,
		Approve:  approve,
		CastAt:   now,
	}); err != nil {
		return entities.Poll{}, err
	}

	if approve {
		poll.ConfidenceFor++
	} else {
		poll.ConfidenceAgainst++
	}
	poll.UpdatedAt = now
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}

	logger.Info("poll confidence ballot cast",
		"event", "poll_confidence_ballot_cast",
		"module", "governance-core/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"voter_id", voterID,
		"approve", approve,
	)
	return poll, nil
}

// FinalizeConfidenceVoting settles a committed knowledge poll after the
// confidence window closes. Sixty percent approval of the cast ballots
// rewards the creator; anything less, including zero ballots, penalizes
// them with a floor at zero reputation.
func (uc PollUseCase) FinalizeConfidenceVoting(ctx context.Context, pollID string) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)

	poll, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
	if err != nil {
		return entities.Poll{}, err
	}
	if poll.Status != entities.StatusConfidenceVoting {
		return entities.Poll{}, domainerrors.ErrNotConfidenceVoting
	}
	now := uc.now()
	if poll.ConfidenceDeadline != nil && now.Before(*poll.ConfidenceDeadline) {
		return entities.Poll{}, domainerrors.ErrConfidenceStillActive
	}

	total := poll.ConfidenceFor + poll.ConfidenceAgainst
	approved := total > 0 && poll.ConfidenceFor*100 >= total*entities.ConfidenceApprovalPercent

	delta := int64(-entities.ConfidencePenaltyPoints)
	reason := "confidence_rejected"
	if approved {
		delta = entities.ConfidenceRewardPoints
		reason = "confidence_approved"
	}
	if err := uc.Users.GrantReputation(ctx, poll.CreatorID, delta, reason); err != nil {
		return entities.Poll{}, err
	}

	poll.Status = entities.StatusCompleted
	poll.UpdatedAt = now
	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}
	if err := uc.appendResolvedEvent(ctx, poll); err != nil {
		return entities.Poll{}, err
	}

	logger.Info("poll confidence voting finalized",
		"event", "poll_confidence_finalized",
		"module", "governance-core/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"approved", approved,
		"ballots", total,
	)
	return poll, nil
}
