package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	leaderboardservice "agora/contexts/community-experience/leaderboard-service"
	feeengine "agora/contexts/finance-core/fee-engine"
	communityservice "agora/contexts/governance-core/community-service"
	membershipservice "agora/contexts/governance-core/membership-service"
	pollengine "agora/contexts/governance-core/poll-engine"
	userledger "agora/contexts/identity-access/user-ledger"
	reportservice "agora/contexts/moderation-safety/report-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "agora/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	users        userledger.Module
	communities  communityservice.Module
	memberships  membershipservice.Module
	polls        pollengine.Module
	fees         feeengine.Module
	reports      reportservice.Module
	leaderboards leaderboardservice.Module
}

func New(
	users userledger.Module,
	communities communityservice.Module,
	memberships membershipservice.Module,
	polls pollengine.Module,
	fees feeengine.Module,
	reports reportservice.Module,
	leaderboards leaderboardservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		users:        users,
		communities:  communities,
		memberships:  memberships,
		polls:        polls,
		fees:         fees,
		reports:      reports,
		leaderboards: leaderboards,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.registerUserRoutes()
	s.registerCommunityRoutes()
	s.registerMembershipRoutes()
	s.registerPollRoutes()
	s.registerFeeRoutes()
	s.registerReportRoutes()
	s.registerLeaderboardRoutes()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
