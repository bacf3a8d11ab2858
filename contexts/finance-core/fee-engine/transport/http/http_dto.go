package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type InitializePoolRequest struct {
	Authority string `json:"authority"`
}

type FeePoolResponse struct {
	PoolID            string `json:"pool_id"`
	Authority         string `json:"authority"`
	TotalCollected    uint64 `json:"total_collected"`
	Balance           uint64 `json:"balance"`
	DailyDistribution uint64 `json:"daily_distribution"`
	LastDistribution  string `json:"last_distribution,omitempty"`
}

type WithdrawFeesRequest struct {
	Amount uint64 `json:"amount"`
}

type UpdateAuthorityRequest struct {
	NewAuthority string `json:"new_authority"`
}

type RewardResponse struct {
	UserID       string `json:"user_id"`
	TotalClaimed uint64 `json:"total_claimed"`
	LastClaimed  string `json:"last_claimed,omitempty"`
}

type FeeScheduleEntryResponse struct {
	Tier          string `json:"tier"`
	MinReputation int64  `json:"min_reputation"`
	FeeLamports   uint64 `json:"fee_lamports"`
}

type FeeScheduleResponse struct {
	Items []FeeScheduleEntryResponse `json:"items"`
}
