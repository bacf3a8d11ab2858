package httpadapter

import (
	"context"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance-core/poll-engine/application/commands"
	"agora/contexts/governance-core/poll-engine/application/queries"
	"agora/contexts/governance-core/poll-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/poll-engine/domain/errors"
	httptransport "agora/contexts/governance-core/poll-engine/transport/http"
)

type Handler struct {
	Polls   commands.PollUseCase
	Queries queries.PollQueries
	Logger  *slog.Logger
}

func (h Handler) CreatePollHandler(
	ctx context.Context,
	communityID string,
	creatorID string,
	idempotencyKey string,
	req httptransport.CreatePollRequest,
) (httptransport.PollResponse, error) {
	var answerHash []byte
	if trimmed := strings.TrimSpace(req.AnswerHash); trimmed != "" {
		decoded, err := hex.DecodeString(trimmed)
		if err != nil {
			return httptransport.PollResponse{}, domainerrors.ErrInvalidPollInput
		}
		answerHash = decoded
	}
	poll, err := h.Polls.CreatePoll(ctx, commands.CreatePollCommand{
		IdempotencyKey:   idempotencyKey,
		CommunityID:      communityID,
		CreatorID:        creatorID,
		Question:         req.Question,
		Options:          req.Options,
		VoteType:         entities.VoteType(strings.ToLower(strings.TrimSpace(req.VoteType))),
		CorrectAnswer:    req.CorrectAnswer,
		AnswerHash:       answerHash,
		QuorumVotes:      req.QuorumVotes,
		QuorumPercentage: req.QuorumPercentage,
		DeadlineHours:    req.DeadlineHours,
		WeightedVoting:   req.WeightedVoting,
	})
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return toPollResponse(poll), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	pollID string,
	voterID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Polls.CastVote(ctx, commands.CastVoteCommand{
		PollID:      pollID,
		VoterID:     voterID,
		OptionIndex: req.OptionIndex,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		ParticipationID: result.Poll.ParticipationID,
		PollID:          result.Poll.PollID,
		VoterID:         result.Poll.VoterID,
		OptionIndex:     result.Poll.OptionIndex,
		WeightApplied:   result.Poll.WeightApplied,
		QuorumReached:   result.QuorumReached,
		PollStatus:      string(result.PollState.Status),
	}, nil
}

func (h Handler) RevealAnswerHandler(
	ctx context.Context,
	pollID string,
	creatorID string,
	req httptransport.RevealAnswerRequest,
) (httptransport.PollResponse, error) {
	poll, err := h.Polls.RevealAnswer(ctx, pollID, creatorID, req.AnswerText)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return toPollResponse(poll), nil
}

func (h Handler) VoteConfidenceHandler(
	ctx context.Context,
	pollID string,
	voterID string,
	req httptransport.ConfidenceVoteRequest,
) (httptransport.PollResponse, error) {
	poll, err := h.Polls.VoteConfidence(ctx, pollID, voterID, req.Approve)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return toPollResponse(poll), nil
}

func (h Handler) FinalizeConfidenceHandler(ctx context.Context, pollID string) (httptransport.PollResponse, error) {
	poll, err := h.Polls.FinalizeConfidenceVoting(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return toPollResponse(poll), nil
}

func (h Handler) CancelPollHandler(
	ctx context.Context,
	pollID string,
	callerID string,
	req httptransport.CancelPollRequest,
) (httptransport.PollResponse, error) {
	poll, err := h.Polls.CancelPoll(ctx, pollID, callerID, req.Reason)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return toPollResponse(poll), nil
}

func (h Handler) CheckExpiredHandler(ctx context.Context, pollID string) (httptransport.PollResponse, error) {
	poll, err := h.Polls.CheckExpired(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return toPollResponse(poll), nil
}

func (h Handler) GetPollHandler(ctx context.Context, pollID string) (httptransport.PollResponse, error) {
	poll, err := h.Queries.GetPoll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return toPollResponse(poll), nil
}

func (h Handler) GetResultsHandler(ctx context.Context, pollID string) (httptransport.PollResultsResponse, error) {
	results, err := h.Queries.GetResults(ctx, pollID)
	if err != nil {
		return httptransport.PollResultsResponse{}, err
	}
	return httptransport.PollResultsResponse{
		PollID:            results.PollID,
		Question:          results.Question,
		Options:           results.Options,
		Counts:            results.Counts,
		WeightedSums:      results.WeightedSums,
		TotalVotes:        results.TotalVotes,
		Status:            string(results.Status),
		WinningOption:     results.WinningOption,
		RevealedAnswer:    results.RevealedAnswer,
		ConfidenceFor:     results.ConfidenceFor,
		ConfidenceAgainst: results.ConfidenceAgainst,
	}, nil
}

func (h Handler) ListPollsHandler(
	ctx context.Context,
	communityID string,
	status string,
	limit int,
	offset int,
) (httptransport.PollListResponse, error) {
	polls, err := h.Queries.ListPollsByCommunity(ctx, communityID, status, limit, offset)
	if err != nil {
		return httptransport.PollListResponse{}, err
	}
	items := make([]httptransport.PollResponse, 0, len(polls))
	for _, poll := range polls {
		items = append(items, toPollResponse(poll))
	}
	return httptransport.PollListResponse{Items: items}, nil
}

func toPollResponse(poll entities.Poll) httptransport.PollResponse {
	resp := httptransport.PollResponse{
		PollID:            poll.PollID,
		CommunityID:       poll.CommunityID,
		CreatorID:         poll.CreatorID,
		Question:          poll.Question,
		Options:           poll.Options,
		VoteType:          string(poll.VoteType),
		Results:           poll.Results,
		WeightedResults:   poll.WeightedResults,
		TotalVotes:        poll.TotalVotes,
		QuorumVotes:       poll.QuorumVotes,
		QuorumPercentage:  poll.QuorumPercentage,
		WeightedVoting:    poll.WeightedVoting,
		FeePaid:           poll.FeePaid,
		Status:            string(poll.Status),
		Deadline:          poll.Deadline.Format(time.RFC3339),
		RevealedAnswer:    poll.RevealedText,
		ConfidenceFor:     poll.ConfidenceFor,
		ConfidenceAgainst: poll.ConfidenceAgainst,
	}
	if poll.RevealDeadline != nil {
		resp.RevealDeadline = poll.RevealDeadline.Format(time.RFC3339)
	}
	if poll.ConfidenceDeadline != nil {
		resp.ConfidenceDeadline = poll.ConfidenceDeadline.Format(time.RFC3339)
	}
	return resp
}
