package entities

// Entry is one ranked row of a scoreboard. Rank is one-based.
type Entry struct {
	UserID string
	Score  float64
	Rank   int64
}
