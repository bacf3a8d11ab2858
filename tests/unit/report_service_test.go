package unit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	reportservice "agora/contexts/moderation-safety/report-service"
	"agora/contexts/moderation-safety/report-service/application"
	"agora/contexts/moderation-safety/report-service/domain/entities"
	domainerrors "agora/contexts/moderation-safety/report-service/domain/errors"
	"agora/contexts/moderation-safety/report-service/ports"
)

func newReportModule(reporterCount int) reportservice.Module {
	module := reportservice.NewInMemoryModule(nil)
	module.Store.SetPollInfo(ports.PollInfo{
		PollID:      "poll-1",
		CommunityID: "community-1",
		CreatorID:   "creator",
		Status:      "active",
	})
	module.Store.SetMember("community-1", "creator", true, false)
	module.Store.SetMember("community-1", "mod", true, true)
	for i := 1; i <= reporterCount; i++ {
		module.Store.SetMember("community-1", fmt.Sprintf("reporter-%d", i), true, false)
	}
	return module
}

func TestSubmitReportGuards(t *testing.T) {
	module := newReportModule(1)

	if _, err := module.Service.SubmitReport(context.Background(), application.SubmitReportInput{
		PollID:     "poll-1",
		ReporterID: "creator",
		Category:   entities.CategorySpam,
		Reason:     "self report",
	}); !errors.Is(err, domainerrors.ErrCannotReportOwnPoll) {
		t.Fatalf("expected own poll rejection, got %v", err)
	}

	if _, err := module.Service.SubmitReport(context.Background(), application.SubmitReportInput{
		PollID:     "poll-1",
		ReporterID: "outsider",
		Category:   entities.CategorySpam,
		Reason:     "not a member",
	}); !errors.Is(err, domainerrors.ErrNotCommunityMember) {
		t.Fatalf("expected membership rejection, got %v", err)
	}

	if _, err := module.Service.SubmitReport(context.Background(), application.SubmitReportInput{
		PollID:     "poll-1",
		ReporterID: "reporter-1",
		Category:   entities.ReportCategory("nonsense"),
		Reason:     "bad category",
	}); !errors.Is(err, domainerrors.ErrInvalidReportInput) {
		t.Fatalf("expected category validation, got %v", err)
	}

	report, err := module.Service.SubmitReport(context.Background(), application.SubmitReportInput{
		PollID:     "poll-1",
		ReporterID: "reporter-1",
		Category:   entities.CategorySpam,
		Reason:     "link farming",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if report.Status != entities.ReportPending {
		t.Fatalf("expected pending report, got %s", report.Status)
	}

	if _, err := module.Service.SubmitReport(context.Background(), application.SubmitReportInput{
		PollID:     "poll-1",
		ReporterID: "reporter-1",
		Category:   entities.CategoryOffTopic,
		Reason:     "again",
	}); !errors.Is(err, domainerrors.ErrAlreadyReported) {
		t.Fatalf("expected duplicate report rejection, got %v", err)
	}
}

func TestEscalationOnTotalThreshold(t *testing.T) {
	module := newReportModule(entities.EscalationTotalThreshold)

	// Spread across categories so only the total threshold can trip.
	categories := []entities.ReportCategory{
		entities.CategorySpam,
		entities.CategoryMisinformation,
		entities.CategoryCopyright,
		entities.CategoryOffTopic,
		entities.CategorySpam,
	}
	for i := 1; i <= entities.EscalationTotalThreshold; i++ {
		if _, err := module.Service.SubmitReport(context.Background(), application.SubmitReportInput{
			PollID:     "poll-1",
			ReporterID: fmt.Sprintf("reporter-%d", i),
			Category:   categories[i-1],
			Reason:     "problem",
		}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		counter, err := module.Service.GetReportCounter(context.Background(), "poll-1")
		if err != nil {
			t.Fatalf("counter %d: %v", i, err)
		}
		if i < entities.EscalationTotalThreshold && counter.Escalated {
			t.Fatalf("escalated too early at %d reports", i)
		}
		if i == entities.EscalationTotalThreshold && !counter.Escalated {
			t.Fatalf("expected escalation at %d reports", i)
		}
	}

	if got := len(module.Store.PendingOutbox()); got != 1 {
		t.Fatalf("expected one threshold event, got %d", got)
	}
}

func TestEscalationOnHighSeverityPair(t *testing.T) {
	module := newReportModule(2)

	if _, err := module.Service.SubmitReport(context.Background(), application.SubmitReportInput{
		PollID:     "poll-1",
		ReporterID: "reporter-1",
		Category:   entities.CategoryHarassment,
		Reason:     "targeting a member",
	}); err != nil {
		t.Fatalf("submit first: %v", err)
	}
	if _, err := module.Service.SubmitReport(context.Background(), application.SubmitReportInput{
		PollID:     "poll-1",
		ReporterID: "reporter-2",
		Category:   entities.CategoryOffensive,
		Reason:     "slurs in question",
	}); err != nil {
		t.Fatalf("submit second: %v", err)
	}

	counter, err := module.Service.GetReportCounter(context.Background(), "poll-1")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	if !counter.Escalated {
		t.Fatalf("expected escalation after two high severity reports")
	}
}

func TestReviewReportUpholdCancelsPoll(t *testing.T) {
	module := newReportModule(1)

	report, err := module.Service.SubmitReport(context.Background(), application.SubmitReportInput{
		PollID:     "poll-1",
		ReporterID: "reporter-1",
		Category:   entities.CategorySpam,
		Reason:     "link farming",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := module.Service.ReviewReport(context.Background(), "review-1", application.ReviewReportInput{
		ReportID:   report.ReportID,
		ReviewerID: "reporter-1",
		Uphold:     true,
	}); !errors.Is(err, domainerrors.ErrInsufficientPermissions) {
		t.Fatalf("expected non-moderator rejection, got %v", err)
	}

	reviewed, err := module.Service.ReviewReport(context.Background(), "review-2", application.ReviewReportInput{
		ReportID:   report.ReportID,
		ReviewerID: "mod",
		Uphold:     true,
		Notes:      "confirmed",
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != entities.ReportUpheld {
		t.Fatalf("expected upheld, got %s", reviewed.Status)
	}

	cancels := module.Store.CancelledPolls()
	if len(cancels) != 1 || cancels[0].PollID != "poll-1" || cancels[0].ModeratorID != "mod" {
		t.Fatalf("expected poll cancellation, got %+v", cancels)
	}
	entries := module.Store.ModerationEntries()
	if len(entries) != 1 || entries[0].Action != "report_upheld" {
		t.Fatalf("expected moderation log entry, got %+v", entries)
	}

	if _, err := module.Service.ReviewReport(context.Background(), "review-3", application.ReviewReportInput{
		ReportID:   report.ReportID,
		ReviewerID: "mod",
		Uphold:     false,
	}); !errors.Is(err, domainerrors.ErrReportNotPending) {
		t.Fatalf("expected settled report rejection, got %v", err)
	}
}

func TestReviewReportDismissLeavesPollOpen(t *testing.T) {
	module := newReportModule(1)

	report, err := module.Service.SubmitReport(context.Background(), application.SubmitReportInput{
		PollID:     "poll-1",
		ReporterID: "reporter-1",
		Category:   entities.CategoryOffTopic,
		Reason:     "wrong community",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	reviewed, err := module.Service.ReviewReport(context.Background(), "review-1", application.ReviewReportInput{
		ReportID:   report.ReportID,
		ReviewerID: "mod",
		Uphold:     false,
		Notes:      "within the rules",
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != entities.ReportDismissed {
		t.Fatalf("expected dismissed, got %s", reviewed.Status)
	}
	if len(module.Store.CancelledPolls()) != 0 {
		t.Fatalf("dismiss must not cancel the poll")
	}
	entries := module.Store.ModerationEntries()
	if len(entries) != 1 || entries[0].Action != "report_dismissed" {
		t.Fatalf("expected dismissal log entry, got %+v", entries)
	}
}
