package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	userdomainerrors "agora/contexts/identity-access/user-ledger/domain/errors"
	userhttp "agora/contexts/identity-access/user-ledger/transport/http"
)

func (s *Server) registerUserRoutes() {
	s.mux.HandleFunc("POST /v1/users", s.handleRegisterUser)
	s.mux.HandleFunc("GET /v1/users/{user_id}", s.handleGetUser)
	s.mux.HandleFunc("GET /v1/wallets/{wallet}/user", s.handleGetUserByWallet)
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req userhttp.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeUserError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.users.Handler.RegisterUserHandler(r.Context(), r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		writeUserDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	resp, err := s.users.Handler.GetUserHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeUserDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUserByWallet(w http.ResponseWriter, r *http.Request) {
	resp, err := s.users.Handler.GetUserByWalletHandler(r.Context(), r.PathValue("wallet"))
	if err != nil {
		writeUserDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeUserDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userdomainerrors.ErrInvalidUserInput):
		writeUserError(w, http.StatusBadRequest, "invalid_user_input", err.Error())
	case errors.Is(err, userdomainerrors.ErrUserNotFound):
		writeUserError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, userdomainerrors.ErrUserAlreadyExists),
		errors.Is(err, userdomainerrors.ErrConflict),
		errors.Is(err, userdomainerrors.ErrIdempotencyConflict):
		writeUserError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, userdomainerrors.ErrIdempotencyKeyRequired):
		writeUserError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	default:
		writeUserError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeUserError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, userhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
