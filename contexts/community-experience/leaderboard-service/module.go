package leaderboardservice

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/community-experience/leaderboard-service/adapters/http"
	"agora/contexts/community-experience/leaderboard-service/adapters/memory"
	"agora/contexts/community-experience/leaderboard-service/application"
	"agora/contexts/community-experience/leaderboard-service/application/workers"
	"agora/contexts/community-experience/leaderboard-service/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Queries  application.Queries
	Consumer workers.ScoreConsumer
	Store    *memory.Store
}

type Dependencies struct {
	Scores        ports.ScoreRepository
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	queries := application.Queries{
		Scores: deps.Scores,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Queries: queries,
			Logger:  deps.Logger,
		},
		Queries: queries,
		Consumer: workers.ScoreConsumer{
			Subscriber:    deps.Subscriber,
			Dedup:         deps.Dedup,
			Scores:        deps.Scores,
			Clock:         deps.Clock,
			ConsumerGroup: deps.ConsumerGroup,
			DedupTTL:      deps.DedupTTL,
			Logger:        deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Scores:        store,
		Subscriber:    store,
		Dedup:         store,
		Clock:         store,
		ConsumerGroup: "leaderboard-service",
		DedupTTL:      7 * 24 * time.Hour,
		Logger:        logger,
	})
	module.Store = store
	return module
}
