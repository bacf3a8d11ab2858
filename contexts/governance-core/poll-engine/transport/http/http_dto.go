package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePollRequest struct {
	Question         string   `json:"question"`
	Options          []string `json:"options"`
	VoteType         string   `json:"vote_type"`
	CorrectAnswer    *int     `json:"correct_answer,omitempty"`
	AnswerHash       string   `json:"answer_hash,omitempty"`
	QuorumVotes      int64    `json:"quorum_votes,omitempty"`
	QuorumPercentage int      `json:"quorum_percentage,omitempty"`
	DeadlineHours    int      `json:"deadline_hours"`
	WeightedVoting   bool     `json:"weighted_voting,omitempty"`
}

type PollResponse struct {
	PollID             string    `json:"poll_id"`
	CommunityID        string    `json:"community_id"`
	CreatorID          string    `json:"creator_id"`
	Question           string    `json:"question"`
	Options            []string  `json:"options"`
	VoteType           string    `json:"vote_type"`
	Results            []int64   `json:"results"`
	WeightedResults    []float64 `json:"weighted_results"`
	TotalVotes         int64     `json:"total_votes"`
	QuorumVotes        int64     `json:"quorum_votes,omitempty"`
	QuorumPercentage   int       `json:"quorum_percentage,omitempty"`
	WeightedVoting     bool      `json:"weighted_voting"`
	FeePaid            uint64    `json:"fee_paid"`
	Status             string    `json:"status"`
	Deadline           string    `json:"deadline"`
	RevealDeadline     string    `json:"reveal_deadline,omitempty"`
	ConfidenceDeadline string    `json:"confidence_deadline,omitempty"`
	RevealedAnswer     string    `json:"revealed_answer,omitempty"`
	ConfidenceFor      int64     `json:"confidence_for"`
	ConfidenceAgainst  int64     `json:"confidence_against"`
}

type PollListResponse struct {
	Items []PollResponse `json:"items"`
}

type CastVoteRequest struct {
	OptionIndex int `json:"option_index"`
}

type CastVoteResponse struct {
	ParticipationID string  `json:"participation_id"`
	PollID          string  `json:"poll_id"`
	VoterID         string  `json:"voter_id"`
	OptionIndex     int     `json:"option_index"`
	WeightApplied   float64 `json:"weight_applied"`
	QuorumReached   bool    `json:"quorum_reached"`
	PollStatus      string  `json:"poll_status"`
}

type RevealAnswerRequest struct {
	AnswerText string `json:"answer_text"`
}

type ConfidenceVoteRequest struct {
	Approve bool `json:"approve"`
}

type CancelPollRequest struct {
	Reason string `json:"reason,omitempty"`
}

type PollResultsResponse struct {
	PollID            string    `json:"poll_id"`
	Question          string    `json:"question"`
	Options           []string  `json:"options"`
	Counts            []int64   `json:"counts"`
	WeightedSums      []float64 `json:"weighted_sums"`
	TotalVotes        int64     `json:"total_votes"`
	Status            string    `json:"status"`
	WinningOption     int       `json:"winning_option"`
	RevealedAnswer    string    `json:"revealed_answer,omitempty"`
	ConfidenceFor     int64     `json:"confidence_for"`
	ConfidenceAgainst int64     `json:"confidence_against"`
}
