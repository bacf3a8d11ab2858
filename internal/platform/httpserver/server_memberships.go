package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	membershipdomainerrors "agora/contexts/governance-core/membership-service/domain/errors"
	membershiphttp "agora/contexts/governance-core/membership-service/transport/http"
)

func (s *Server) registerMembershipRoutes() {
	s.mux.HandleFunc("POST /v1/communities/{community_id}/members", s.handleJoinCommunity)
	s.mux.HandleFunc("DELETE /v1/communities/{community_id}/members", s.handleLeaveCommunity)
	s.mux.HandleFunc("GET /v1/communities/{community_id}/members", s.handleListMembers)
	s.mux.HandleFunc("GET /v1/communities/{community_id}/members/{user_id}", s.handleGetMembership)
	s.mux.HandleFunc("POST /v1/communities/{community_id}/members/remove", s.handleRemoveMember)
	s.mux.HandleFunc("POST /v1/communities/{community_id}/membership-requests", s.handleRequestMembership)
	s.mux.HandleFunc("GET /v1/communities/{community_id}/membership-requests", s.handleListPendingRequests)
	s.mux.HandleFunc("POST /v1/membership-requests/{request_id}/{decision}", s.handleReviewRequest)
	s.mux.HandleFunc("POST /v1/communities/{community_id}/moderators/{user_id}", s.handleAssignModerator)
	s.mux.HandleFunc("DELETE /v1/communities/{community_id}/moderators/{user_id}", s.handleRemoveModerator)
	s.mux.HandleFunc("POST /v1/communities/{community_id}/bans", s.handleBanUser)
	s.mux.HandleFunc("GET /v1/communities/{community_id}/bans", s.handleListActiveBans)
	s.mux.HandleFunc("DELETE /v1/communities/{community_id}/bans/{user_id}", s.handleUnbanUser)
	s.mux.HandleFunc("POST /v1/communities/{community_id}/bans/{user_id}/check-expiry", s.handleCheckBanExpiry)
	s.mux.HandleFunc("POST /v1/bans/{ban_id}/appeals", s.handleAppealBan)
	s.mux.HandleFunc("POST /v1/appeals/{appeal_id}/review", s.handleReviewAppeal)
	s.mux.HandleFunc("GET /v1/communities/{community_id}/appeals", s.handleListPendingAppeals)
	s.mux.HandleFunc("GET /v1/communities/{community_id}/moderation-log", s.handleModerationLog)
}

func (s *Server) handleJoinCommunity(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.memberships.Handler.JoinCommunityHandler(r.Context(), r.PathValue("community_id"), userID)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLeaveCommunity(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	if err := s.memberships.Handler.LeaveCommunityHandler(r.Context(), r.PathValue("community_id"), userID); err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeMembershipError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		writeMembershipError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
		return
	}

	resp, err := s.memberships.Handler.ListMembersHandler(r.Context(), r.PathValue("community_id"), limit, offset)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMembership(w http.ResponseWriter, r *http.Request) {
	resp, err := s.memberships.Handler.GetMembershipHandler(r.Context(), r.PathValue("community_id"), r.PathValue("user_id"))
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	moderatorID := r.Header.Get("X-User-Id")
	if moderatorID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req membershiphttp.RemoveMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	err := s.memberships.Handler.RemoveMemberHandler(
		r.Context(),
		r.PathValue("community_id"),
		moderatorID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRequestMembership(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req membershiphttp.RequestMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.memberships.Handler.RequestMembershipHandler(r.Context(), r.PathValue("community_id"), userID, req)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListPendingRequests(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeMembershipError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}

	resp, err := s.memberships.Handler.ListPendingRequestsHandler(r.Context(), r.PathValue("community_id"), limit)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReviewRequest(w http.ResponseWriter, r *http.Request) {
	reviewerID := r.Header.Get("X-User-Id")
	if reviewerID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req membershiphttp.ReviewRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.memberships.Handler.ReviewRequestHandler(
		r.Context(),
		r.PathValue("request_id"),
		reviewerID,
		r.Header.Get("Idempotency-Key"),
		r.PathValue("decision"),
		req,
	)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssignModerator(w http.ResponseWriter, r *http.Request) {
	adminID := r.Header.Get("X-User-Id")
	if adminID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.memberships.Handler.AssignModeratorHandler(
		r.Context(),
		r.PathValue("community_id"),
		adminID,
		r.PathValue("user_id"),
	)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveModerator(w http.ResponseWriter, r *http.Request) {
	adminID := r.Header.Get("X-User-Id")
	if adminID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.memberships.Handler.RemoveModeratorHandler(
		r.Context(),
		r.PathValue("community_id"),
		adminID,
		r.PathValue("user_id"),
	)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBanUser(w http.ResponseWriter, r *http.Request) {
	moderatorID := r.Header.Get("X-User-Id")
	if moderatorID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req membershiphttp.BanUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.memberships.Handler.BanUserHandler(
		r.Context(),
		r.PathValue("community_id"),
		moderatorID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListActiveBans(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeMembershipError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}

	resp, err := s.memberships.Handler.ListActiveBansHandler(r.Context(), r.PathValue("community_id"), limit)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnbanUser(w http.ResponseWriter, r *http.Request) {
	moderatorID := r.Header.Get("X-User-Id")
	if moderatorID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.memberships.Handler.UnbanUserHandler(
		r.Context(),
		r.PathValue("community_id"),
		moderatorID,
		r.PathValue("user_id"),
	)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckBanExpiry(w http.ResponseWriter, r *http.Request) {
	resp, err := s.memberships.Handler.CheckBanExpiryHandler(r.Context(), r.PathValue("community_id"), r.PathValue("user_id"))
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAppealBan(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req membershiphttp.AppealBanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.memberships.Handler.AppealBanHandler(r.Context(), r.PathValue("ban_id"), userID, req)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleReviewAppeal(w http.ResponseWriter, r *http.Request) {
	reviewerID := r.Header.Get("X-User-Id")
	if reviewerID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req membershiphttp.ReviewAppealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.memberships.Handler.ReviewAppealHandler(
		r.Context(),
		r.PathValue("appeal_id"),
		reviewerID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPendingAppeals(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeMembershipError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}

	resp, err := s.memberships.Handler.ListPendingAppealsHandler(r.Context(), r.PathValue("community_id"), limit)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModerationLog(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeMembershipError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		writeMembershipError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
		return
	}

	resp, err := s.memberships.Handler.ModerationLogHandler(r.Context(), r.PathValue("community_id"), limit, offset)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeMembershipDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, membershipdomainerrors.ErrInvalidMembershipInput),
		errors.Is(err, membershipdomainerrors.ErrInvalidBanDuration):
		writeMembershipError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, membershipdomainerrors.ErrMembershipNotFound),
		errors.Is(err, membershipdomainerrors.ErrRequestNotFound),
		errors.Is(err, membershipdomainerrors.ErrBanNotFound),
		errors.Is(err, membershipdomainerrors.ErrAppealNotFound):
		writeMembershipError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, membershipdomainerrors.ErrInsufficientPermissions),
		errors.Is(err, membershipdomainerrors.ErrAdminCannotLeave),
		errors.Is(err, membershipdomainerrors.ErrCannotRemoveAdmin),
		errors.Is(err, membershipdomainerrors.ErrCannotRemoveModerator),
		errors.Is(err, membershipdomainerrors.ErrCannotBanModerator):
		writeMembershipError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, membershipdomainerrors.ErrUserBanned):
		writeMembershipError(w, http.StatusForbidden, "user_banned", err.Error())
	case errors.Is(err, membershipdomainerrors.ErrNotCommunityMember):
		writeMembershipError(w, http.StatusForbidden, "not_community_member", err.Error())
	case errors.Is(err, membershipdomainerrors.ErrCommunityRequiresApproval):
		writeMembershipError(w, http.StatusConflict, "approval_required", err.Error())
	case errors.Is(err, membershipdomainerrors.ErrAlreadyMember),
		errors.Is(err, membershipdomainerrors.ErrRequestAlreadyExists),
		errors.Is(err, membershipdomainerrors.ErrRequestNotPending),
		errors.Is(err, membershipdomainerrors.ErrBanNotActive),
		errors.Is(err, membershipdomainerrors.ErrAppealAlreadyExists),
		errors.Is(err, membershipdomainerrors.ErrAppealNotPending),
		errors.Is(err, membershipdomainerrors.ErrConflict),
		errors.Is(err, membershipdomainerrors.ErrIdempotencyConflict):
		writeMembershipError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, membershipdomainerrors.ErrIdempotencyKeyRequired):
		writeMembershipError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	default:
		writeMembershipError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeMembershipError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, membershiphttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
