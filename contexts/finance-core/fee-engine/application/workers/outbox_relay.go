package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"agora/contexts/finance-core/fee-engine/ports"
	contractsv1 "agora/contracts/gen/events/v1"
)

// OutboxRelay publishes persisted fee-engine outbox rows to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending rows, marking each published
// only after the broker accepted it. It stops at the first failure so the
// next cycle retries from the failed row.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := resolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("fee outbox list failed",
			"event", "fee_outbox_list_failed",
			"module", "finance-core/fee-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("fee outbox payload decode failed",
				"event", "fee_outbox_decode_failed",
				"module", "finance-core/fee-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Publisher.Publish(ctx, topicFor(event.EventType), event); err != nil {
			logger.Error("fee outbox publish failed",
				"event", "fee_outbox_publish_failed",
				"module", "finance-core/fee-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("fee outbox mark failed",
				"event", "fee_outbox_mark_failed",
				"module", "finance-core/fee-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("fee outbox relay cycle finished",
		"event", "fee_outbox_relay_finished",
		"module", "finance-core/fee-engine",
		"layer", "worker",
		"published", len(pending),
	)
	return nil
}

func topicFor(eventType string) string {
	if eventType == contractsv1.EventTypeRewardClaimed {
		return contractsv1.TopicRewardClaimed
	}
	return eventType
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
