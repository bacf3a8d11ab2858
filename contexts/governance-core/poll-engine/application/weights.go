package application

// StandardCount weighs every vote at one regardless of reputation.
type StandardCount struct{}

func (StandardCount) Weight(int64) float64 { return 1.0 }

// ReputationWeighted maps reputation bands to vote weights. The bands mirror
// the user ledger's tiering so weighted tallies stay consistent with the fee
// schedule.
type ReputationWeighted struct{}

func (ReputationWeighted) Weight(reputation int64) float64 {
	switch {
	case reputation < 100:
		return 1.0
	case reputation < 500:
		return 1.5
	case reputation < 1000:
		return 2.0
	case reputation < 5000:
		return 2.5
	default:
		return 3.0
	}
}
