package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"agora/contexts/moderation-safety/report-service/application"
	"agora/contexts/moderation-safety/report-service/domain/entities"
	domainerrors "agora/contexts/moderation-safety/report-service/domain/errors"
	httptransport "agora/contexts/moderation-safety/report-service/transport/http"
)

type Handler struct {
	Reports application.Service
	Logger  *slog.Logger
}

func (h Handler) SubmitReportHandler(
	ctx context.Context,
	pollID string,
	reporterID string,
	req httptransport.SubmitReportRequest,
) (httptransport.ReportResponse, error) {
	report, err := h.Reports.SubmitReport(ctx, application.SubmitReportInput{
		PollID:     pollID,
		ReporterID: reporterID,
		Category:   entities.ReportCategory(strings.ToLower(strings.TrimSpace(req.Category))),
		Reason:     req.Reason,
	})
	if err != nil {
		return httptransport.ReportResponse{}, err
	}
	return toReportResponse(report), nil
}

func (h Handler) ReviewReportHandler(
	ctx context.Context,
	reportID string,
	reviewerID string,
	idempotencyKey string,
	req httptransport.ReviewReportRequest,
) (httptransport.ReportResponse, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action != "uphold" && action != "dismiss" {
		return httptransport.ReportResponse{}, domainerrors.ErrInvalidReportInput
	}
	report, err := h.Reports.ReviewReport(ctx, idempotencyKey, application.ReviewReportInput{
		ReportID:   reportID,
		ReviewerID: reviewerID,
		Uphold:     action == "uphold",
		Notes:      req.Notes,
	})
	if err != nil {
		return httptransport.ReportResponse{}, err
	}
	return toReportResponse(report), nil
}

func (h Handler) GetReportCounterHandler(ctx context.Context, pollID string) (httptransport.ReportCounterResponse, error) {
	counter, err := h.Reports.GetReportCounter(ctx, pollID)
	if err != nil {
		return httptransport.ReportCounterResponse{}, err
	}
	byCategory := make(map[string]int, len(counter.ByCategory))
	for category, count := range counter.ByCategory {
		byCategory[string(category)] = count
	}
	return httptransport.ReportCounterResponse{
		PollID:      counter.PollID,
		CommunityID: counter.CommunityID,
		Total:       counter.Total,
		ByCategory:  byCategory,
		Escalated:   counter.Escalated,
	}, nil
}

func (h Handler) ListReportsHandler(ctx context.Context, pollID string, limit int) (httptransport.ReportListResponse, error) {
	reports, err := h.Reports.ListReportsByPoll(ctx, pollID, limit)
	if err != nil {
		return httptransport.ReportListResponse{}, err
	}
	items := make([]httptransport.ReportResponse, 0, len(reports))
	for _, report := range reports {
		items = append(items, toReportResponse(report))
	}
	return httptransport.ReportListResponse{Items: items}, nil
}

func toReportResponse(report entities.Report) httptransport.ReportResponse {
	return httptransport.ReportResponse{
		ReportID:    report.ReportID,
		PollID:      report.PollID,
		CommunityID: report.CommunityID,
		ReporterID:  report.ReporterID,
		Category:    string(report.Category),
		Reason:      report.Reason,
		Status:      string(report.Status),
		ReviewedBy:  report.ReviewedBy,
		ReviewNotes: report.ReviewNotes,
	}
}
