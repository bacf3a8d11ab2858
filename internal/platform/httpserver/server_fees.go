package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	feedomainerrors "agora/contexts/finance-core/fee-engine/domain/errors"
	feehttp "agora/contexts/finance-core/fee-engine/transport/http"
)

func (s *Server) registerFeeRoutes() {
	s.mux.HandleFunc("POST /v1/fees/pool", s.handleInitializePool)
	s.mux.HandleFunc("GET /v1/fees/pool", s.handleGetPool)
	s.mux.HandleFunc("POST /v1/fees/distribute", s.handleDistributeFees)
	s.mux.HandleFunc("POST /v1/fees/withdraw", s.handleWithdrawFees)
	s.mux.HandleFunc("POST /v1/fees/authority", s.handleUpdateAuthority)
	s.mux.HandleFunc("GET /v1/fees/schedule", s.handleFeeSchedule)
	s.mux.HandleFunc("POST /v1/rewards/claim", s.handleClaimReward)
	s.mux.HandleFunc("GET /v1/rewards/{user_id}", s.handleGetReward)
}

func (s *Server) handleInitializePool(w http.ResponseWriter, r *http.Request) {
	var req feehttp.InitializePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFeeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.fees.Handler.InitializePoolHandler(r.Context(), req)
	if err != nil {
		writeFeeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	resp, err := s.fees.Handler.GetPoolHandler(r.Context())
	if err != nil {
		writeFeeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDistributeFees(w http.ResponseWriter, r *http.Request) {
	resp, err := s.fees.Handler.DistributeHandler(r.Context())
	if err != nil {
		writeFeeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeFeeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req feehttp.WithdrawFeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFeeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.fees.Handler.WithdrawFeesHandler(r.Context(), callerID, req)
	if err != nil {
		writeFeeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateAuthority(w http.ResponseWriter, r *http.Request) {
	callerID := r.Header.Get("X-User-Id")
	if callerID == "" {
		writeFeeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req feehttp.UpdateAuthorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFeeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.fees.Handler.UpdateAuthorityHandler(r.Context(), callerID, req)
	if err != nil {
		writeFeeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeeSchedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fees.Handler.FeeScheduleHandler(r.Context()))
}

func (s *Server) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeFeeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.fees.Handler.ClaimRewardHandler(r.Context(), userID, r.Header.Get("Idempotency-Key"))
	if err != nil {
		writeFeeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetReward(w http.ResponseWriter, r *http.Request) {
	resp, err := s.fees.Handler.GetRewardHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeFeeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeFeeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feedomainerrors.ErrInvalidFeeInput),
		errors.Is(err, feedomainerrors.ErrInvalidWithdrawalAmount):
		writeFeeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, feedomainerrors.ErrPoolNotInitialized):
		writeFeeError(w, http.StatusNotFound, "pool_not_initialized", err.Error())
	case errors.Is(err, feedomainerrors.ErrPoolAlreadyInitialized),
		errors.Is(err, feedomainerrors.ErrAlreadyClaimedToday),
		errors.Is(err, feedomainerrors.ErrConflict),
		errors.Is(err, feedomainerrors.ErrIdempotencyConflict):
		writeFeeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, feedomainerrors.ErrUnauthorized):
		writeFeeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, feedomainerrors.ErrNotEligibleForReward):
		writeFeeError(w, http.StatusForbidden, "not_eligible", err.Error())
	case errors.Is(err, feedomainerrors.ErrDistributionNotReady),
		errors.Is(err, feedomainerrors.ErrNoFundsToDistribute),
		errors.Is(err, feedomainerrors.ErrNoDistributionYet),
		errors.Is(err, feedomainerrors.ErrInsufficientFunds):
		writeFeeError(w, http.StatusUnprocessableEntity, "not_processable", err.Error())
	case errors.Is(err, feedomainerrors.ErrIdempotencyKeyRequired):
		writeFeeError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	default:
		writeFeeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeFeeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, feehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
