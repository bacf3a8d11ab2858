package entities

import (
	"strings"
	"time"
)

type PollStatus string

const (
	StatusActive           PollStatus = "active"
	StatusCompleted        PollStatus = "completed"
	StatusCancelled        PollStatus = "cancelled"
	StatusFailed           PollStatus = "failed"
	StatusAwaitingReveal   PollStatus = "awaiting_reveal"
	StatusConfidenceVoting PollStatus = "confidence_voting"
)

// Terminal reports whether the status admits no further transitions.
func (s PollStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

type VoteType string

const (
	VoteTypeOpinion   VoteType = "opinion"
	VoteTypeKnowledge VoteType = "knowledge"
)

const (
	MinOptions        = 2
	MaxOptions        = 4
	MaxQuestionLength = 200
	MaxOptionLength   = 50
	MinDeadlineHours  = 1
	MaxDeadlineHours  = 168
	AnswerHashLength  = 32

	RevealWindow     = 24 * time.Hour
	ConfidenceWindow = 24 * time.Hour

	ConfidenceApprovalPercent = 60
	ConfidenceRewardPoints    = 10
	ConfidencePenaltyPoints   = 5
)

// Poll is the aggregate for a community question, tracking the vote tally,
// the quorum rule, and the optional commit-reveal lifecycle for knowledge
// polls created with a hashed answer.
type Poll struct {
	PollID      string
	CommunityID string
	CreatorID   string

	Question string
	Options  []string
	VoteType VoteType

	// CorrectAnswer is the option index for knowledge polls, -1 when unset
	// or still hidden behind AnswerHash.
	CorrectAnswer int
	AnswerHash    []byte
	RevealedText  string

	Results         []int64
	WeightedResults []float64
	TotalVotes      int64

	// Exactly one of QuorumVotes / QuorumPercentage is set.
	QuorumVotes      int64
	QuorumPercentage int

	WeightedVoting bool
	FeePaid        uint64

	Status             PollStatus
	Deadline           time.Time
	RevealDeadline     *time.Time
	ConfidenceDeadline *time.Time

	ConfidenceFor     int64
	ConfidenceAgainst int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasAnswerCommitment reports whether the poll carries a hashed answer and
// therefore runs the reveal plus confidence workflow after quorum.
func (p Poll) HasAnswerCommitment() bool {
	return len(p.AnswerHash) == AnswerHashLength
}

// RequiredQuorum resolves the vote count needed to complete the poll. A
// percentage quorum is evaluated against the member count snapshot taken at
// evaluation time and never rounds below one.
func (p Poll) RequiredQuorum(totalMembers int64) int64 {
	if p.QuorumPercentage > 0 {
		required := totalMembers * int64(p.QuorumPercentage) / 100
		if required < 1 {
			required = 1
		}
		return required
	}
	return p.QuorumVotes
}

func (p Poll) ReachedQuorum(totalMembers int64) bool {
	return p.TotalVotes >= p.RequiredQuorum(totalMembers)
}

func (p Poll) Expired(now time.Time) bool {
	return !now.Before(p.Deadline)
}

// WinningOption returns the index with the highest raw count, or -1 when the
// poll has no votes. Ties resolve to the lowest index.
func (p Poll) WinningOption() int {
	winner := -1
	var best int64
	for i, count := range p.Results {
		if count > best {
			best = count
			winner = i
		}
	}
	return winner
}

// OptionIndex matches revealed answer text against the options, trimmed and
// case-insensitive. Returns -1 when no option matches.
func (p Poll) OptionIndex(text string) int {
	text = strings.TrimSpace(text)
	for i, option := range p.Options {
		if strings.EqualFold(option, text) {
			return i
		}
	}
	return -1
}

// Participation is the immutable record of a single cast vote. Its creation
// is the uniqueness claim for (poll, voter).
type Participation struct {
	ParticipationID    string
	PollID             string
	VoterID            string
	OptionIndex        int
	WeightApplied      float64
	ReputationSnapshot int64
	VotedAt            time.Time
}

// ConfidenceBallot records a participant's approval or rejection of a
// revealed answer. One per (poll, voter).
type ConfidenceBallot struct {
	BallotID string
	PollID   string
	VoterID  string
	Approve  bool
	CastAt   time.Time
}
