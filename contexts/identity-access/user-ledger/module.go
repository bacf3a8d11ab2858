package userledger

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/identity-access/user-ledger/adapters/http"
	"agora/contexts/identity-access/user-ledger/adapters/memory"
	"agora/contexts/identity-access/user-ledger/application"
	"agora/contexts/identity-access/user-ledger/domain/entities"
	"agora/contexts/identity-access/user-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Users          ports.UserRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Users:          deps.Users,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Users:  service,
			Logger: deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(seed []entities.User, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Users:          store,
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
