package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterUserRequest struct {
	Wallet      string `json:"wallet"`
	DisplayName string `json:"display_name,omitempty"`
}

type UserResponse struct {
	UserID            string  `json:"user_id"`
	Wallet            string  `json:"wallet"`
	DisplayName       string  `json:"display_name,omitempty"`
	ReputationPoints  int64   `json:"reputation_points"`
	Level             int     `json:"level"`
	VotingWeight      float64 `json:"voting_weight"`
	TotalVotesCast    int64   `json:"total_votes_cast"`
	TotalVotesCreated int64   `json:"total_votes_created"`
	FeeTier           string  `json:"fee_tier"`
	FeeLamports       int64   `json:"fee_lamports"`
}
