package workers

import (
	"context"
	"log/slog"

	application "agora/contexts/governance-core/poll-engine/application"
	"agora/contexts/governance-core/poll-engine/application/commands"
	"agora/contexts/governance-core/poll-engine/ports"
)

// PollExpirer sweeps open polls and applies deadline transitions. Deadlines
// are enforced lazily; this worker is the only background driver.
type PollExpirer struct {
	Polls     ports.PollRepository
	UseCase   commands.PollUseCase
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce checks one batch of open polls. A failed transition is logged and
// skipped so one poisoned poll cannot stall the sweep.
func (w PollExpirer) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(w.Logger)
	limit := w.BatchSize
	if limit <= 0 {
		limit = 100
	}

	open, err := w.Polls.ListOpenPolls(ctx, limit)
	if err != nil {
		logger.Error("poll expiry sweep list failed",
			"event", "poll_expiry_list_failed",
			"module", "governance-core/poll-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	transitioned := 0
	for _, poll := range open {
		before := poll.Status
		updated, err := w.UseCase.CheckExpired(ctx, poll.PollID)
		if err != nil {
			logger.Error("poll expiry check failed",
				"event", "poll_expiry_check_failed",
				"module", "governance-core/poll-engine",
				"layer", "worker",
				"poll_id", poll.PollID,
				"error", err.Error(),
			)
			continue
		}
		if updated.Status != before {
			transitioned++
		}
	}

	if transitioned > 0 {
		logger.Info("poll expiry sweep finished",
			"event", "poll_expiry_sweep_finished",
			"module", "governance-core/poll-engine",
			"layer", "worker",
			"checked", len(open),
			"transitioned", transitioned,
		)
	}
	return nil
}
