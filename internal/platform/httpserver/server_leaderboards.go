package httpserver

import (
	"errors"
	"net/http"

	leaderboarddomainerrors "agora/contexts/community-experience/leaderboard-service/domain/errors"
	leaderboardhttp "agora/contexts/community-experience/leaderboard-service/transport/http"
)

func (s *Server) registerLeaderboardRoutes() {
	s.mux.HandleFunc("GET /v1/leaderboards/global", s.handleGlobalLeaderboard)
	s.mux.HandleFunc("GET /v1/leaderboards/communities/{community_id}", s.handleCommunityLeaderboard)
	s.mux.HandleFunc("GET /v1/leaderboards/rank/{user_id}", s.handleUserRank)
}

func (s *Server) handleGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeLeaderboardError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}

	resp, err := s.leaderboards.Handler.GetGlobalLeaderboardHandler(r.Context(), limit)
	if err != nil {
		writeLeaderboardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCommunityLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeLeaderboardError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}

	resp, err := s.leaderboards.Handler.GetCommunityLeaderboardHandler(r.Context(), r.PathValue("community_id"), limit)
	if err != nil {
		writeLeaderboardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserRank(w http.ResponseWriter, r *http.Request) {
	resp, err := s.leaderboards.Handler.GetUserRankHandler(
		r.Context(),
		r.URL.Query().Get("community_id"),
		r.PathValue("user_id"),
	)
	if err != nil {
		writeLeaderboardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLeaderboardDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leaderboarddomainerrors.ErrInvalidLeaderboardInput):
		writeLeaderboardError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, leaderboarddomainerrors.ErrUserNotRanked):
		writeLeaderboardError(w, http.StatusNotFound, "user_not_ranked", err.Error())
	default:
		writeLeaderboardError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLeaderboardError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, leaderboardhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
