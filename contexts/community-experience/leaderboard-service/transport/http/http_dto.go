package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type LeaderboardEntryResponse struct {
	Rank   int64   `json:"rank"`
	UserID string  `json:"user_id"`
	Score  float64 `json:"score"`
}

type LeaderboardResponse struct {
	Scope   string                     `json:"scope"`
	Entries []LeaderboardEntryResponse `json:"entries"`
}

type UserRankResponse struct {
	UserID string  `json:"user_id"`
	Scope  string  `json:"scope"`
	Rank   int64   `json:"rank"`
	Score  float64 `json:"score"`
}
