package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	reportdomainerrors "agora/contexts/moderation-safety/report-service/domain/errors"
	reporthttp "agora/contexts/moderation-safety/report-service/transport/http"
)

func (s *Server) registerReportRoutes() {
	s.mux.HandleFunc("POST /v1/polls/{poll_id}/reports", s.handleSubmitReport)
	s.mux.HandleFunc("GET /v1/polls/{poll_id}/reports", s.handleListReports)
	s.mux.HandleFunc("GET /v1/polls/{poll_id}/report-counter", s.handleGetReportCounter)
	s.mux.HandleFunc("POST /v1/reports/{report_id}/review", s.handleReviewReport)
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	reporterID := r.Header.Get("X-User-Id")
	if reporterID == "" {
		writeReportError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req reporthttp.SubmitReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReportError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.reports.Handler.SubmitReportHandler(r.Context(), r.PathValue("poll_id"), reporterID, req)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeReportError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}

	resp, err := s.reports.Handler.ListReportsHandler(r.Context(), r.PathValue("poll_id"), limit)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetReportCounter(w http.ResponseWriter, r *http.Request) {
	resp, err := s.reports.Handler.GetReportCounterHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReviewReport(w http.ResponseWriter, r *http.Request) {
	reviewerID := r.Header.Get("X-User-Id")
	if reviewerID == "" {
		writeReportError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req reporthttp.ReviewReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReportError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.reports.Handler.ReviewReportHandler(
		r.Context(),
		r.PathValue("report_id"),
		reviewerID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeReportDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeReportDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reportdomainerrors.ErrInvalidReportInput):
		writeReportError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, reportdomainerrors.ErrReportNotFound),
		errors.Is(err, reportdomainerrors.ErrPollNotFound):
		writeReportError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, reportdomainerrors.ErrNotCommunityMember),
		errors.Is(err, reportdomainerrors.ErrInsufficientPermissions),
		errors.Is(err, reportdomainerrors.ErrCannotReportOwnPoll):
		writeReportError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, reportdomainerrors.ErrAlreadyReported),
		errors.Is(err, reportdomainerrors.ErrReportNotPending),
		errors.Is(err, reportdomainerrors.ErrConflict),
		errors.Is(err, reportdomainerrors.ErrIdempotencyConflict):
		writeReportError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, reportdomainerrors.ErrIdempotencyKeyRequired):
		writeReportError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	default:
		writeReportError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeReportError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, reporthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
