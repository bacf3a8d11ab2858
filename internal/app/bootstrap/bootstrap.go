package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	leaderboardservice "agora/contexts/community-experience/leaderboard-service"
	leaderboardmemory "agora/contexts/community-experience/leaderboard-service/adapters/memory"
	leaderboardredis "agora/contexts/community-experience/leaderboard-service/adapters/redis"
	leaderboardworkers "agora/contexts/community-experience/leaderboard-service/application/workers"
	leaderboardports "agora/contexts/community-experience/leaderboard-service/ports"
	feeengine "agora/contexts/finance-core/fee-engine"
	feepostgres "agora/contexts/finance-core/fee-engine/adapters/postgres"
	feeworkers "agora/contexts/finance-core/fee-engine/application/workers"
	communityservice "agora/contexts/governance-core/community-service"
	communitypostgres "agora/contexts/governance-core/community-service/adapters/postgres"
	membershipservice "agora/contexts/governance-core/membership-service"
	membershippostgres "agora/contexts/governance-core/membership-service/adapters/postgres"
	membershipworkers "agora/contexts/governance-core/membership-service/application/workers"
	pollengine "agora/contexts/governance-core/poll-engine"
	pollpostgres "agora/contexts/governance-core/poll-engine/adapters/postgres"
	pollworkers "agora/contexts/governance-core/poll-engine/application/workers"
	userledger "agora/contexts/identity-access/user-ledger"
	userpostgres "agora/contexts/identity-access/user-ledger/adapters/postgres"
	userworkers "agora/contexts/identity-access/user-ledger/application/workers"
	reportservice "agora/contexts/moderation-safety/report-service"
	reportpostgres "agora/contexts/moderation-safety/report-service/adapters/postgres"
	reportworkers "agora/contexts/moderation-safety/report-service/application/workers"
	"agora/internal/platform/cache"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const (
	idempotencyTTL = 7 * 24 * time.Hour
	dedupTTL       = 7 * 24 * time.Hour

	leaderboardConsumerGroup = "leaderboard-service"
)

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	redis    *cache.Redis
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	redis    *cache.Redis

	userOutbox   userworkers.OutboxRelay
	pollOutbox   pollworkers.OutboxRelay
	feeOutbox    feeworkers.OutboxRelay
	reportOutbox reportworkers.OutboxRelay

	pollExpirer pollworkers.PollExpirer
	banSweeper  membershipworkers.BanExpirySweeper
	leaderboard leaderboardworkers.ScoreConsumer

	runExpirySweeper       bool
	runBanExpirySweeper    bool
	runLeaderboardConsumer bool

	pollInterval time.Duration
	logger       *slog.Logger
}

// moduleSet holds every wired module plus the handles workers need.
type moduleSet struct {
	users        userledger.Module
	communities  communityservice.Module
	memberships  membershipservice.Module
	polls        pollengine.Module
	fees         feeengine.Module
	reports      reportservice.Module
	leaderboards leaderboardservice.Module

	userRepo   *userpostgres.Repository
	pollRepo   *pollpostgres.Repository
	feeRepo    *feepostgres.Repository
	reportRepo *reportpostgres.Repository

	scores leaderboardports.ScoreRepository
	dedup  leaderboardports.EventDedupStore
	clock  leaderboardports.Clock

	redis *cache.Redis
}

func buildModules(cfg config.Config, pg *db.Postgres, logger *slog.Logger) (moduleSet, error) {
	var set moduleSet

	set.userRepo = userpostgres.NewRepository(pg.DB, logger)
	set.users = userledger.NewModule(userledger.Dependencies{
		Users:          set.userRepo,
		Idempotency:    set.userRepo,
		Outbox:         set.userRepo,
		Clock:          userpostgres.SystemClock{},
		IDGen:          userpostgres.UUIDGenerator{},
		IdempotencyTTL: idempotencyTTL,
		Logger:         logger,
	})

	// The community module asks the membership module about roles while the
	// membership module reads community settings. The bridge closes the loop
	// once both modules exist.
	bridge := &membershipBridge{}

	communityRepo := communitypostgres.NewRepository(pg.DB, logger)
	set.communities = communityservice.NewModule(communityservice.Dependencies{
		Communities:    communityRepo,
		Categories:     communityRepo,
		Subscriptions:  communityRepo,
		Idempotency:    communityRepo,
		AdminEnroller:  bridge,
		Moderation:     bridge,
		Clock:          communitypostgres.SystemClock{},
		IDGen:          communitypostgres.UUIDGenerator{},
		IdempotencyTTL: idempotencyTTL,
		Logger:         logger,
	})

	membershipRepo := membershippostgres.NewRepository(pg.DB, logger)
	set.memberships = membershipservice.NewModule(membershipservice.Dependencies{
		Memberships:    membershipRepo,
		Requests:       membershipRepo,
		Bans:           membershipRepo,
		Appeals:        membershipRepo,
		Log:            membershipRepo,
		Communities:    communityDirectory{communities: set.communities.Service},
		Idempotency:    membershipRepo,
		Clock:          membershippostgres.SystemClock{},
		IDGen:          membershippostgres.UUIDGenerator{},
		IdempotencyTTL: idempotencyTTL,
		Logger:         logger,
	})
	bridge.service = &set.memberships.Service

	set.feeRepo = feepostgres.NewRepository(pg.DB, logger)
	set.fees = feeengine.NewModule(feeengine.Dependencies{
		Pool:           set.feeRepo,
		Rewards:        set.feeRepo,
		Users:          reputationReader{users: set.users.Service},
		Communities:    communityFeeRecorder{communities: set.communities.Service},
		Idempotency:    set.feeRepo,
		Outbox:         set.feeRepo,
		Clock:          feepostgres.SystemClock{},
		IDGen:          feepostgres.UUIDGenerator{},
		IdempotencyTTL: idempotencyTTL,
		Logger:         logger,
	})

	set.pollRepo = pollpostgres.NewRepository(pg.DB, logger)
	set.polls = pollengine.NewModule(pollengine.Dependencies{
		Polls:          set.pollRepo,
		Participations: set.pollRepo,
		Memberships:    set.memberships.Service,
		Users:          userDirectory{users: set.users.Service},
		Fees:           set.fees.Service,
		Communities:    communityCounter{communities: set.communities.Service},
		Moderation:     moderationLog{memberships: set.memberships.Service},
		Idempotency:    set.pollRepo,
		Outbox:         set.pollRepo,
		Clock:          pollpostgres.SystemClock{},
		IDGen:          pollpostgres.UUIDGenerator{},
		IdempotencyTTL: idempotencyTTL,
		Logger:         logger,
	})

	set.reportRepo = reportpostgres.NewRepository(pg.DB, logger)
	set.reports = reportservice.NewModule(reportservice.Dependencies{
		Reports:        set.reportRepo,
		Counters:       set.reportRepo,
		Polls:          pollDirectory{queries: set.polls.Queries, useCase: set.polls.UseCase},
		Memberships:    set.memberships.Service,
		Moderation:     moderationLog{memberships: set.memberships.Service},
		Idempotency:    set.reportRepo,
		Outbox:         set.reportRepo,
		Clock:          reportpostgres.SystemClock{},
		IDGen:          reportpostgres.UUIDGenerator{},
		IdempotencyTTL: idempotencyTTL,
		Logger:         logger,
	})

	if strings.TrimSpace(cfg.RedisAddr) != "" {
		redisConn, err := cache.Connect(cfg.RedisAddr)
		if err != nil {
			return moduleSet{}, err
		}
		set.redis = redisConn
		scores := leaderboardredis.NewRepository(redisConn.Client, logger)
		set.scores = scores
		set.dedup = scores
		set.clock = leaderboardredis.SystemClock{}
	} else {
		store := leaderboardmemory.NewStore()
		set.scores = store
		set.dedup = store
		set.clock = store
	}
	set.leaderboards = leaderboardservice.NewModule(leaderboardservice.Dependencies{
		Scores:        set.scores,
		Dedup:         set.dedup,
		Clock:         set.clock,
		ConsumerGroup: leaderboardConsumerGroup,
		DedupTTL:      dedupTTL,
		Logger:        logger,
	})
	return set, nil
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	set, err := buildModules(cfg, pg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	server := httpserver.New(
		set.users,
		set.communities,
		set.memberships,
		set.polls,
		set.fees,
		set.reports,
		set.leaderboards,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		redis:    set.redis,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	set, err := buildModules(cfg, pg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	return &WorkerApp{
		postgres: pg,
		redis:    set.redis,
		userOutbox: userworkers.OutboxRelay{
			Outbox:    set.userRepo,
			Publisher: kafka,
			Clock:     userpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		pollOutbox: pollworkers.OutboxRelay{
			Outbox:    set.pollRepo,
			Publisher: kafka,
			Clock:     pollpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		feeOutbox: feeworkers.OutboxRelay{
			Outbox:    set.feeRepo,
			Publisher: kafka,
			Clock:     feepostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		reportOutbox: reportworkers.OutboxRelay{
			Outbox:    set.reportRepo,
			Publisher: kafka,
			Clock:     reportpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		pollExpirer: pollworkers.PollExpirer{
			Polls:     set.pollRepo,
			UseCase:   set.polls.UseCase,
			BatchSize: 100,
			Logger:    logger,
		},
		banSweeper: membershipworkers.BanExpirySweeper{
			Memberships: set.memberships.Service,
			BatchSize:   100,
			Logger:      logger,
		},
		leaderboard: leaderboardworkers.ScoreConsumer{
			Subscriber:    kafka,
			Dedup:         set.dedup,
			Scores:        set.scores,
			Clock:         set.clock,
			ConsumerGroup: leaderboardConsumerGroup,
			DedupTTL:      dedupTTL,
			Logger:        logger,
		},
		runExpirySweeper:       cfg.EnableExpirySweeper,
		runBanExpirySweeper:    cfg.EnableBanExpirySweeper,
		runLeaderboardConsumer: cfg.EnableLeaderboardConsumer,
		pollInterval:           cfg.WorkerPollInterval,
		logger:                 logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.runLeaderboardConsumer {
		if err := w.leaderboard.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.runExpirySweeper {
			if err := w.pollExpirer.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.runBanExpirySweeper {
			if err := w.banSweeper.RunOnce(ctx); err != nil {
				return err
			}
		}
		if err := w.userOutbox.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.pollOutbox.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.feeOutbox.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.reportOutbox.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.redis != nil {
		_ = w.redis.Close()
	}
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
