package queries

import (
	"context"
	"strings"

	"agora/contexts/governance-core/poll-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/poll-engine/domain/errors"
	"agora/contexts/governance-core/poll-engine/ports"
)

type PollQueries struct {
	Polls          ports.PollRepository
	Participations ports.ParticipationRepository
}

// PollResults is the read model for a poll tally.
type PollResults struct {
	PollID            string
	Question          string
	Options           []string
	Counts            []int64
	WeightedSums      []float64
	TotalVotes        int64
	Status            entities.PollStatus
	WinningOption     int
	RevealedAnswer    string
	ConfidenceFor     int64
	ConfidenceAgainst int64
}

func (q PollQueries) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	return q.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
}

func (q PollQueries) GetResults(ctx context.Context, pollID string) (PollResults, error) {
	poll, err := q.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
	if err != nil {
		return PollResults{}, err
	}
	return PollResults{
		PollID:            poll.PollID,
		Question:          poll.Question,
		Options:           poll.Options,
		Counts:            poll.Results,
		WeightedSums:      poll.WeightedResults,
		TotalVotes:        poll.TotalVotes,
		Status:            poll.Status,
		WinningOption:     poll.WinningOption(),
		RevealedAnswer:    poll.RevealedText,
		ConfidenceFor:     poll.ConfidenceFor,
		ConfidenceAgainst: poll.ConfidenceAgainst,
	}, nil
}

func (q PollQueries) ListPollsByCommunity(ctx context.Context, communityID string, status string, limit int, offset int) ([]entities.Poll, error) {
	communityID = strings.TrimSpace(communityID)
	if communityID == "" {
		return nil, domainerrors.ErrInvalidPollInput
	}
	var filter entities.PollStatus
	if trimmed := strings.TrimSpace(status); trimmed != "" {
		filter = entities.PollStatus(strings.ToLower(trimmed))
	}
	return q.Polls.ListPollsByCommunity(ctx, communityID, filter, limit, offset)
}

func (q PollQueries) ListParticipants(ctx context.Context, pollID string) ([]entities.Participation, error) {
	return q.Participations.ListParticipants(ctx, strings.TrimSpace(pollID))
}
