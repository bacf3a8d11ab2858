package feeengine

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/finance-core/fee-engine/adapters/http"
	"agora/contexts/finance-core/fee-engine/adapters/memory"
	"agora/contexts/finance-core/fee-engine/application"
	"agora/contexts/finance-core/fee-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Pool           ports.FeePoolRepository
	Rewards        ports.RewardRepository
	Users          ports.ReputationReader
	Communities    ports.CommunityFeeRecorder
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Pool:           deps.Pool,
		Rewards:        deps.Rewards,
		Users:          deps.Users,
		Communities:    deps.Communities,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Fees:   service,
			Logger: deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Pool:           store,
		Rewards:        store,
		Users:          store,
		Communities:    store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
