package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "agora/contexts/governance-core/poll-engine/application"
	"agora/contexts/governance-core/poll-engine/ports"
	contractsv1 "agora/contracts/gen/events/v1"
)

// OutboxRelay publishes persisted poll-engine outbox rows to the event bus.
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
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("poll outbox list failed",
			"event", "poll_outbox_list_failed",
			"module", "governance-core/poll-engine",
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
			logger.Error("poll outbox payload decode failed",
				"event", "poll_outbox_decode_failed",
				"module", "governance-core/poll-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Publisher.Publish(ctx, topicFor(event.EventType), event); err != nil {
			logger.Error("poll outbox publish failed",
				"event", "poll_outbox_publish_failed",
				"module", "governance-core/poll-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("poll outbox mark failed",
				"event", "poll_outbox_mark_failed",
				"module", "governance-core/poll-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("poll outbox relay cycle finished",
		"event", "poll_outbox_relay_finished",
		"module", "governance-core/poll-engine",
		"layer", "worker",
		"published", len(pending),
	)
	return nil
}

func topicFor(eventType string) string {
	switch eventType {
	case contractsv1.EventTypePollCreated:
		return contractsv1.TopicPollCreated
	case contractsv1.EventTypePollVoteCast:
		return contractsv1.TopicPollVoteCast
	case contractsv1.EventTypePollResolved:
		return contractsv1.TopicPollResolved
	default:
		return eventType
	}
}
