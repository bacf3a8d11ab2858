package reportservice

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/moderation-safety/report-service/adapters/http"
	"agora/contexts/moderation-safety/report-service/adapters/memory"
	"agora/contexts/moderation-safety/report-service/application"
	"agora/contexts/moderation-safety/report-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Reports        ports.ReportRepository
	Counters       ports.CounterRepository
	Polls          ports.PollDirectory
	Memberships    ports.MembershipGuard
	Moderation     ports.ModerationLogger
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Reports:        deps.Reports,
		Counters:       deps.Counters,
		Polls:          deps.Polls,
		Memberships:    deps.Memberships,
		Moderation:     deps.Moderation,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Reports: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Reports:        store,
		Counters:       store,
		Polls:          store,
		Memberships:    store,
		Moderation:     store,
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
