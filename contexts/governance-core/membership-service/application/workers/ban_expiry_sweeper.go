package workers

import (
	"context"
	"log/slog"

	"agora/contexts/governance-core/membership-service/application"
)

// BanExpirySweeper lifts lapsed temporary bans in the background. Bans are
// also checked lazily on access; this worker keeps long-idle records from
// lingering.
type BanExpirySweeper struct {
	Memberships application.Service
	BatchSize   int
	Logger      *slog.Logger
}

func (w BanExpirySweeper) RunOnce(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := w.BatchSize
	if limit <= 0 {
		limit = 100
	}

	lifted, err := w.Memberships.SweepExpiredBans(ctx, limit)
	if err != nil {
		logger.Error("ban expiry sweep failed",
			"event", "membership_ban_sweep_failed",
			"module", "governance-core/membership-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if lifted > 0 {
		logger.Info("ban expiry sweep finished",
			"event", "membership_ban_sweep_finished",
			"module", "governance-core/membership-service",
			"layer", "worker",
			"lifted", lifted,
		)
	}
	return nil
}
