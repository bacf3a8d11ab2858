package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/moderation-safety/report-service/domain/entities"
	domainerrors "agora/contexts/moderation-safety/report-service/domain/errors"
	"agora/contexts/moderation-safety/report-service/ports"
	contractsv1 "agora/contracts/gen/events/v1"
)

const (
	actionReportUpheld    = "report_upheld"
	actionReportDismissed = "report_dismissed"
)

// Service runs the reporting pipeline: submission with per-poll counters,
// automatic escalation, and moderator review.
type Service struct {
	Reports        ports.ReportRepository
	Counters       ports.CounterRepository
	Polls          ports.PollDirectory
	Memberships    ports.MembershipGuard
	Moderation     ports.ModerationLogger
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type SubmitReportInput struct {
	PollID     string
	ReporterID string
	Category   entities.ReportCategory
	Reason     string
}

// SubmitReport files a report against a poll. One report per (poll,
// reporter); reporters cannot target their own polls. Every submission
// re-evaluates the escalation predicate and raises the advisory event the
// first time it trips.
func (s Service) SubmitReport(ctx context.Context, input SubmitReportInput) (entities.Report, error) {
	logger := resolveLogger(s.Logger)

	input.PollID = strings.TrimSpace(input.PollID)
	input.ReporterID = strings.TrimSpace(input.ReporterID)
	input.Reason = strings.TrimSpace(input.Reason)
	if input.PollID == "" || input.ReporterID == "" || input.Reason == "" ||
		len(input.Reason) > entities.MaxReasonLength || !entities.ValidCategory(input.Category) {
		return entities.Report{}, domainerrors.ErrInvalidReportInput
	}

	poll, err := s.Polls.GetPollInfo(ctx, input.PollID)
	if err != nil {
		return entities.Report{}, err
	}
	if poll.CreatorID == input.ReporterID {
		return entities.Report{}, domainerrors.ErrCannotReportOwnPoll
	}

	active, err := s.Memberships.ActiveMember(ctx, poll.CommunityID, input.ReporterID)
	if err != nil {
		return entities.Report{}, err
	}
	if !active {
		return entities.Report{}, domainerrors.ErrNotCommunityMember
	}

	if _, exists, err := s.Reports.GetReportByReporter(ctx, input.PollID, input.ReporterID); err != nil {
		return entities.Report{}, err
	} else if exists {
		return entities.Report{}, domainerrors.ErrAlreadyReported
	}

	now := s.now()
	reportID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Report{}, err
	}
	report := entities.Report{
		ReportID:    reportID,
		PollID:      input.PollID,
		CommunityID: poll.CommunityID,
		ReporterID:  input.ReporterID,
		Category:    input.Category,
		Reason:      input.Reason,
		Status:      entities.ReportPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Reports.SaveReport(ctx, report); err != nil {
		return entities.Report{}, err
	}

	counter, found, err := s.Counters.GetCounter(ctx, input.PollID)
	if err != nil {
		return entities.Report{}, err
	}
	if !found {
		counter = entities.ReportCounter{
			PollID:      input.PollID,
			CommunityID: poll.CommunityID,
			ByCategory:  make(map[entities.ReportCategory]int),
		}
	}
	if counter.ByCategory == nil {
		counter.ByCategory = make(map[entities.ReportCategory]int)
	}
	counter.Total++
	counter.ByCategory[input.Category]++
	counter.UpdatedAt = now

	newlyEscalated := !counter.Escalated && counter.ShouldEscalate()
	if newlyEscalated {
		counter.Escalated = true
	}
	if err := s.Counters.SaveCounter(ctx, counter); err != nil {
		return entities.Report{}, err
	}
	if newlyEscalated {
		if err := s.appendThresholdEvent(ctx, counter); err != nil {
			return entities.Report{}, err
		}
		logger.Warn("report threshold reached",
			"event", "report_threshold_reached",
			"module", "moderation-safety/report-service",
			"layer", "application",
			"poll_id", input.PollID,
			"total_reports", counter.Total,
		)
	}

	logger.Info("report submitted",
		"event", "report_submitted",
		"module", "moderation-safety/report-service",
		"layer", "application",
		"report_id", report.ReportID,
		"poll_id", input.PollID,
		"category", string(input.Category),
	)
	return report, nil
}

type ReviewReportInput struct {
	ReportID   string
	ReviewerID string
	Uphold     bool
	Notes      string
}

// ReviewReport settles a pending report. Upholding cancels the reported
// poll through the poll port; both outcomes land in the moderation log.
func (s Service) ReviewReport(ctx context.Context, idempotencyKey string, input ReviewReportInput) (entities.Report, error) {
	logger := resolveLogger(s.Logger)

	input.ReportID = strings.TrimSpace(input.ReportID)
	input.ReviewerID = strings.TrimSpace(input.ReviewerID)
	input.Notes = strings.TrimSpace(input.Notes)
	if input.ReportID == "" || input.ReviewerID == "" || len(input.Notes) > entities.MaxNotesLength {
		return entities.Report{}, domainerrors.ErrInvalidReportInput
	}
	if strings.TrimSpace(idempotencyKey) == "" {
		return entities.Report{}, domainerrors.ErrIdempotencyKeyRequired
	}

	report, err := s.Reports.GetReport(ctx, input.ReportID)
	if err != nil {
		return entities.Report{}, err
	}

	canModerate, err := s.Memberships.CanModerate(ctx, report.CommunityID, input.ReviewerID)
	if err != nil {
		return entities.Report{}, err
	}
	if !canModerate {
		return entities.Report{}, domainerrors.ErrInsufficientPermissions
	}

	decision := "dismiss"
	if input.Uphold {
		decision = "uphold"
	}
	requestHash := hashStrings("review_report", input.ReportID, input.ReviewerID, decision)

	var reviewed entities.Report
	err = s.runIdempotent(ctx, idempotencyKey, requestHash,
		func(payload []byte) error {
			return json.Unmarshal(payload, &reviewed)
		},
		func() ([]byte, error) {
			if report.Status != entities.ReportPending {
				return nil, domainerrors.ErrReportNotPending
			}

			now := s.now()
			action := actionReportDismissed
			report.Status = entities.ReportDismissed
			if input.Uphold {
				action = actionReportUpheld
				report.Status = entities.ReportUpheld
				if err := s.Polls.CancelPoll(ctx, report.PollID, input.ReviewerID, report.Reason); err != nil {
					return nil, err
				}
			}
			report.ReviewedBy = input.ReviewerID
			report.ReviewNotes = input.Notes
			report.UpdatedAt = now
			if err := s.Reports.SaveReport(ctx, report); err != nil {
				return nil, err
			}
			if err := s.Moderation.RecordPollModeration(ctx, report.CommunityID, input.ReviewerID, report.PollID, action, input.Notes); err != nil {
				return nil, err
			}

			logger.Info("report reviewed",
				"event", "report_reviewed",
				"module", "moderation-safety/report-service",
				"layer", "application",
				"report_id", report.ReportID,
				"reviewer_id", input.ReviewerID,
				"decision", decision,
			)
			return json.Marshal(report)
		},
	)
	if err != nil {
		return entities.Report{}, err
	}
	return reviewed, nil
}

func (s Service) GetReportCounter(ctx context.Context, pollID string) (entities.ReportCounter, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.ReportCounter{}, domainerrors.ErrInvalidReportInput
	}
	counter, found, err := s.Counters.GetCounter(ctx, pollID)
	if err != nil {
		return entities.ReportCounter{}, err
	}
	if !found {
		return entities.ReportCounter{PollID: pollID, ByCategory: map[entities.ReportCategory]int{}}, nil
	}
	return counter, nil
}

func (s Service) ListReportsByPoll(ctx context.Context, pollID string, limit int) ([]entities.Report, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return nil, domainerrors.ErrInvalidReportInput
	}
	return s.Reports.ListReportsByPoll(ctx, pollID, limit)
}

func (s Service) appendThresholdEvent(ctx context.Context, counter entities.ReportCounter) error {
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"poll_id":       counter.PollID,
		"community_id":  counter.CommunityID,
		"total_reports": counter.Total,
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        contractsv1.EventTypeReportThreshold,
		OccurredAt:       s.now(),
		SourceService:    "report-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "poll_id",
		PartitionKey:     counter.PollID,
		Data:             payload,
	})
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return err
	}
	if found {
		if record.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return decode(record.Payload)
	}
	payload, err := exec()
	if err != nil {
		return err
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		return err
	}
	return decode(payload)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
