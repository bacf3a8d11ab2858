package membershipservice

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/governance-core/membership-service/adapters/http"
	"agora/contexts/governance-core/membership-service/adapters/memory"
	"agora/contexts/governance-core/membership-service/application"
	"agora/contexts/governance-core/membership-service/domain/entities"
	"agora/contexts/governance-core/membership-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Memberships    ports.MembershipRepository
	Requests       ports.RequestRepository
	Bans           ports.BanRepository
	Appeals        ports.AppealRepository
	Log            ports.ModerationLogRepository
	Communities    ports.CommunityDirectory
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Memberships:    deps.Memberships,
		Requests:       deps.Requests,
		Bans:           deps.Bans,
		Appeals:        deps.Appeals,
		Log:            deps.Log,
		Communities:    deps.Communities,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Memberships: service,
			Logger:      deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(seed []entities.Membership, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Memberships:    store,
		Requests:       store,
		Bans:           store,
		Appeals:        store,
		Log:            store,
		Communities:    store,
		Idempotency:    store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
