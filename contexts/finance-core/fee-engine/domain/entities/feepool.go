package entities

import "time"

const (
	// DistributionInterval is the minimum gap between daily distributions.
	DistributionInterval = 24 * time.Hour

	// DistributionPercent of the pool balance is released per cycle.
	DistributionPercent = 5

	// MinRewardReputation gates reward claims.
	MinRewardReputation = 100
)

// FeePool is the singleton treasury fed by poll creation fees.
type FeePool struct {
	PoolID            string
	Authority         string
	TotalCollected    uint64
	Balance           uint64
	DailyDistribution uint64
	LastDistribution  *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RewardRecord tracks a user's cumulative claims, one record per user.
type RewardRecord struct {
	UserID       string
	TotalClaimed uint64
	LastClaimed  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RewardPercentFor maps reputation to the share of the daily distribution a
// claimant receives. Zero means not eligible.
func RewardPercentFor(reputation int64) uint64 {
	switch {
	case reputation < MinRewardReputation:
		return 0
	case reputation < 500:
		return 1
	case reputation < 1000:
		return 3
	case reputation < 5000:
		return 5
	default:
		return 10
	}
}

// FeeScheduleEntry is one row of the published fee schedule.
type FeeScheduleEntry struct {
	Tier          string
	MinReputation int64
	FeeLamports   uint64
}

// FeeSchedule lists the poll creation fee per reputation tier. Moderators
// post for free regardless of tier.
func FeeSchedule() []FeeScheduleEntry {
	return []FeeScheduleEntry{
		{Tier: "basic", MinReputation: 0, FeeLamports: 10_000_000},
		{Tier: "premium", MinReputation: 1000, FeeLamports: 5_000_000},
		{Tier: "vip", MinReputation: 5000, FeeLamports: 2_000_000},
	}
}
