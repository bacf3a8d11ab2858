package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	communitydomainerrors "agora/contexts/governance-core/community-service/domain/errors"
	communityhttp "agora/contexts/governance-core/community-service/transport/http"
)

func (s *Server) registerCommunityRoutes() {
	s.mux.HandleFunc("POST /v1/communities", s.handleCreateCommunity)
	s.mux.HandleFunc("GET /v1/communities", s.handleListCommunities)
	s.mux.HandleFunc("GET /v1/communities/{community_id}", s.handleGetCommunity)
	s.mux.HandleFunc("PATCH /v1/communities/{community_id}", s.handleUpdateCommunity)
	s.mux.HandleFunc("POST /v1/communities/{community_id}/deactivate", s.handleDeactivateCommunity)
	s.mux.HandleFunc("POST /v1/communities/{community_id}/categories", s.handleCreateCustomCategory)
	s.mux.HandleFunc("GET /v1/communities/{community_id}/categories", s.handleListCustomCategories)
	s.mux.HandleFunc("POST /v1/categories/{category}/subscriptions", s.handleSubscribe)
	s.mux.HandleFunc("DELETE /v1/categories/{category}/subscriptions", s.handleUnsubscribe)
	s.mux.HandleFunc("GET /v1/subscriptions", s.handleListSubscriptions)
}

func (s *Server) handleCreateCommunity(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeCommunityError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req communityhttp.CreateCommunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommunityError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.communities.Handler.CreateCommunityHandler(r.Context(), callerID, r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		writeCommunityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCommunities(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeCommunityError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		writeCommunityError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
		return
	}

	resp, err := s.communities.Handler.ListCommunitiesHandler(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		writeCommunityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCommunity(w http.ResponseWriter, r *http.Request) {
	resp, err := s.communities.Handler.GetCommunityHandler(r.Context(), r.PathValue("community_id"))
	if err != nil {
		writeCommunityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateCommunity(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeCommunityError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req communityhttp.UpdateCommunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommunityError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.communities.Handler.UpdateCommunityHandler(
		r.Context(),
		r.PathValue("community_id"),
		callerID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeCommunityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeactivateCommunity(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeCommunityError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.communities.Handler.DeactivateCommunityHandler(r.Context(), r.PathValue("community_id"), callerID)
	if err != nil {
		writeCommunityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCustomCategory(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeCommunityError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req communityhttp.CreateCustomCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommunityError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.communities.Handler.CreateCustomCategoryHandler(
		r.Context(),
		r.PathValue("community_id"),
		callerID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeCommunityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCustomCategories(w http.ResponseWriter, r *http.Request) {
	resp, err := s.communities.Handler.ListCustomCategoriesHandler(r.Context(), r.PathValue("community_id"))
	if err != nil {
		writeCommunityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeCommunityError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.communities.Handler.SubscribeHandler(r.Context(), userID, r.PathValue("category"))
	if err != nil {
		writeCommunityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeCommunityError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	if err := s.communities.Handler.UnsubscribeHandler(r.Context(), userID, r.PathValue("category")); err != nil {
		writeCommunityDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeCommunityError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.communities.Handler.ListSubscriptionsHandler(r.Context(), userID)
	if err != nil {
		writeCommunityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeCommunityDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, communitydomainerrors.ErrInvalidCommunityInput),
		errors.Is(err, communitydomainerrors.ErrInvalidCategory):
		writeCommunityError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, communitydomainerrors.ErrCommunityNotFound),
		errors.Is(err, communitydomainerrors.ErrSubscriptionNotFound):
		writeCommunityError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, communitydomainerrors.ErrCommunityNotActive):
		writeCommunityError(w, http.StatusGone, "community_not_active", err.Error())
	case errors.Is(err, communitydomainerrors.ErrInsufficientPermissions):
		writeCommunityError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, communitydomainerrors.ErrCommunityAlreadyExists),
		errors.Is(err, communitydomainerrors.ErrCategoryAlreadyExists),
		errors.Is(err, communitydomainerrors.ErrAlreadySubscribed),
		errors.Is(err, communitydomainerrors.ErrConflict),
		errors.Is(err, communitydomainerrors.ErrIdempotencyConflict):
		writeCommunityError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, communitydomainerrors.ErrIdempotencyKeyRequired):
		writeCommunityError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	default:
		writeCommunityError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCommunityError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, communityhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
