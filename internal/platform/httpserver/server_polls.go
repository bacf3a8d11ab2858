package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	polldomainerrors "agora/contexts/governance-core/poll-engine/domain/errors"
	pollhttp "agora/contexts/governance-core/poll-engine/transport/http"
)

func (s *Server) registerPollRoutes() {
	s.mux.HandleFunc("POST /v1/communities/{community_id}/polls", s.handleCreatePoll)
	s.mux.HandleFunc("GET /v1/communities/{community_id}/polls", s.handleListPolls)
	s.mux.HandleFunc("GET /v1/polls/{poll_id}", s.handleGetPoll)
	s.mux.HandleFunc("GET /v1/polls/{poll_id}/results", s.handleGetPollResults)
	s.mux.HandleFunc("POST /v1/polls/{poll_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("POST /v1/polls/{poll_id}/reveal", s.handleRevealAnswer)
	s.mux.HandleFunc("POST /v1/polls/{poll_id}/confidence", s.handleVoteConfidence)
	s.mux.HandleFunc("POST /v1/polls/{poll_id}/confidence/finalize", s.handleFinalizeConfidence)
	s.mux.HandleFunc("POST /v1/polls/{poll_id}/cancel", s.handleCancelPoll)
	s.mux.HandleFunc("POST /v1/polls/{poll_id}/check-expired", s.handleCheckExpired)
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	creatorID := r.Header.Get("X-User-Id")
	if creatorID == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req pollhttp.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.CreatePollHandler(
		r.Context(),
		r.PathValue("community_id"),
		creatorID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writePollError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		writePollError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
		return
	}

	resp, err := s.polls.Handler.ListPollsHandler(
		r.Context(),
		r.PathValue("community_id"),
		r.URL.Query().Get("status"),
		limit,
		offset,
	)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.GetPollHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPollResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.GetResultsHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voterID := r.Header.Get("X-User-Id")
	if voterID == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req pollhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.CastVoteHandler(r.Context(), r.PathValue("poll_id"), voterID, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRevealAnswer(w http.ResponseWriter, r *http.Request) {
	creatorID := r.Header.Get("X-User-Id")
	if creatorID == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req pollhttp.RevealAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.RevealAnswerHandler(r.Context(), r.PathValue("poll_id"), creatorID, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoteConfidence(w http.ResponseWriter, r *http.Request) {
	voterID := r.Header.Get("X-User-Id")
	if voterID == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req pollhttp.ConfidenceVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.VoteConfidenceHandler(r.Context(), r.PathValue("poll_id"), voterID, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalizeConfidence(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.FinalizeConfidenceHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelPoll(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req pollhttp.CancelPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.CancelPollHandler(r.Context(), r.PathValue("poll_id"), callerID, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckExpired(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.CheckExpiredHandler(r.Context(), r.PathValue("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePollDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, polldomainerrors.ErrInvalidPollInput),
		errors.Is(err, polldomainerrors.ErrInvalidOption),
		errors.Is(err, polldomainerrors.ErrCorrectAnswerRequired):
		writePollError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, polldomainerrors.ErrPollNotFound):
		writePollError(w, http.StatusNotFound, "poll_not_found", err.Error())
	case errors.Is(err, polldomainerrors.ErrNotCommunityMember),
		errors.Is(err, polldomainerrors.ErrUserBanned),
		errors.Is(err, polldomainerrors.ErrInsufficientPermissions),
		errors.Is(err, polldomainerrors.ErrNotPollParticipant):
		writePollError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, polldomainerrors.ErrAlreadyVoted),
		errors.Is(err, polldomainerrors.ErrAlreadyVotedConfidence),
		errors.Is(err, polldomainerrors.ErrConflict),
		errors.Is(err, polldomainerrors.ErrIdempotencyConflict):
		writePollError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, polldomainerrors.ErrPollNotActive),
		errors.Is(err, polldomainerrors.ErrPollExpired),
		errors.Is(err, polldomainerrors.ErrPollNotExpired),
		errors.Is(err, polldomainerrors.ErrNotAwaitingReveal),
		errors.Is(err, polldomainerrors.ErrNotConfidenceVoting),
		errors.Is(err, polldomainerrors.ErrConfidenceStillActive),
		errors.Is(err, polldomainerrors.ErrRevealDeadlinePassed),
		errors.Is(err, polldomainerrors.ErrConfidenceDeadlinePassed):
		writePollError(w, http.StatusUnprocessableEntity, "invalid_poll_state", err.Error())
	case errors.Is(err, polldomainerrors.ErrNoAnswerHashStored),
		errors.Is(err, polldomainerrors.ErrInvalidAnswerHash):
		writePollError(w, http.StatusUnprocessableEntity, "invalid_answer", err.Error())
	case errors.Is(err, polldomainerrors.ErrIdempotencyKeyRequired):
		writePollError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	default:
		writePollError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePollError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, pollhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
