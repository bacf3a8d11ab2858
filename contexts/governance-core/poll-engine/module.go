package pollengine

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/governance-core/poll-engine/adapters/http"
	"agora/contexts/governance-core/poll-engine/adapters/memory"
	"agora/contexts/governance-core/poll-engine/application"
	"agora/contexts/governance-core/poll-engine/application/commands"
	"agora/contexts/governance-core/poll-engine/application/queries"
	"agora/contexts/governance-core/poll-engine/domain/entities"
	"agora/contexts/governance-core/poll-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	UseCase commands.PollUseCase
	Queries queries.PollQueries
	Store   *memory.Store
}

type Dependencies struct {
	Polls          ports.PollRepository
	Participations ports.ParticipationRepository
	Memberships    ports.MembershipGuard
	Users          ports.UserDirectory
	Fees           ports.FeeCollector
	Communities    ports.CommunityCounter
	Moderation     ports.ModerationLogger
	Weights        ports.WeightStrategy
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	weights := deps.Weights
	if weights == nil {
		weights = application.ReputationWeighted{}
	}
	useCase := commands.PollUseCase{
		Polls:          deps.Polls,
		Participations: deps.Participations,
		Memberships:    deps.Memberships,
		Users:          deps.Users,
		Fees:           deps.Fees,
		Communities:    deps.Communities,
		Moderation:     deps.Moderation,
		Weights:        weights,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	pollQueries := queries.PollQueries{
		Polls:          deps.Polls,
		Participations: deps.Participations,
	}
	return Module{
		Handler: httpadapter.Handler{
			Polls:   useCase,
			Queries: pollQueries,
			Logger:  deps.Logger,
		},
		UseCase: useCase,
		Queries: pollQueries,
	}
}

func NewInMemoryModule(seed []entities.Poll, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Polls:          store,
		Participations: store,
		Memberships:    store,
		Users:          store,
		Fees:           store,
		Communities:    store,
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
