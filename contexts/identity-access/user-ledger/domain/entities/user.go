package entities

import "time"

// FeeTier is the reputation-banded poll creation fee schedule.
// Free is reserved for moderators and admins creating polls in communities
// they moderate.
type FeeTier string

const (
	FeeTierFree    FeeTier = "free"
	FeeTierBasic   FeeTier = "basic"
	FeeTierPremium FeeTier = "premium"
	FeeTierVIP     FeeTier = "vip"
)

const (
	feeBasicLamports   int64 = 10_000_000
	feePremiumLamports int64 = 5_000_000
	feeVIPLamports     int64 = 2_000_000
)

func (t FeeTier) Lamports() int64 {
	switch t {
	case FeeTierFree:
		return 0
	case FeeTierVIP:
		return feeVIPLamports
	case FeeTierPremium:
		return feePremiumLamports
	default:
		return feeBasicLamports
	}
}

// TierForReputation maps reputation to the paid tier bands.
func TierForReputation(points int64) FeeTier {
	switch {
	case points >= 5000:
		return FeeTierVIP
	case points >= 1000:
		return FeeTierPremium
	default:
		return FeeTierBasic
	}
}

type User struct {
	UserID            string
	Wallet            string
	DisplayName       string
	ReputationPoints  int64
	Level             int
	VotingWeight      float64
	TotalVotesCast    int64
	TotalVotesCreated int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func LevelForPoints(points int64) int {
	return int(points/10) + 1
}

// WeightForPoints maps reputation to the vote influence multiplier.
// Bands align with the fee/reward reputation thresholds.
func WeightForPoints(points int64) float64 {
	switch {
	case points >= 5000:
		return 3.0
	case points >= 1000:
		return 2.5
	case points >= 500:
		return 2.0
	case points >= 100:
		return 1.5
	default:
		return 1.0
	}
}

// ApplyReputationDelta mutates reputation and keeps level and voting weight
// derived from the new value. Reputation never drops below zero.
func (u *User) ApplyReputationDelta(delta int64, at time.Time) {
	u.ReputationPoints += delta
	if u.ReputationPoints < 0 {
		u.ReputationPoints = 0
	}
	u.Level = LevelForPoints(u.ReputationPoints)
	u.VotingWeight = WeightForPoints(u.ReputationPoints)
	u.UpdatedAt = at
}
