package communityservice

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/governance-core/community-service/adapters/http"
	"agora/contexts/governance-core/community-service/adapters/memory"
	"agora/contexts/governance-core/community-service/application"
	"agora/contexts/governance-core/community-service/domain/entities"
	"agora/contexts/governance-core/community-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Communities    ports.CommunityRepository
	Categories     ports.CategoryRepository
	Subscriptions  ports.SubscriptionRepository
	Idempotency    ports.IdempotencyStore
	AdminEnroller  ports.AdminEnroller
	Moderation     ports.ModerationGuard
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Communities:    deps.Communities,
		Categories:     deps.Categories,
		Subscriptions:  deps.Subscriptions,
		Idempotency:    deps.Idempotency,
		AdminEnroller:  deps.AdminEnroller,
		Moderation:     deps.Moderation,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Communities: service,
			Logger:      deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(seed []entities.Community, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Communities:    store,
		Categories:     store,
		Subscriptions:  store,
		Idempotency:    store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
