package main

import (
	"context"
	"errors"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"outreach-engine/internal/adapters/repo"
	"outreach-engine/internal/infra/cache"
	"outreach-engine/internal/infra/config"
	"outreach-engine/internal/infra/db"
	infralog "outreach-engine/internal/infra/log"
	"outreach-engine/internal/infra/metrics"
	"outreach-engine/internal/infra/queue"
	"outreach-engine/internal/usecase/admission"
	"outreach-engine/internal/usecase/distributor"
	"outreach-engine/internal/usecase/outcomes"
	"outreach-engine/internal/usecase/pacing"
	"outreach-engine/internal/usecase/usage"
	"outreach-engine/internal/usecase/variants"
	"outreach-engine/internal/usecase/warmup"
)

func main() {
	cfg := config.Load()
	logger := infralog.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("distributor: database connection failed")
	}
	defer pool.Close()
	pg := repo.NewPostgres(pool)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	outcomeQueue, err := queue.NewRabbitOutcomeQueue(cfg.AMQPURL, cfg.Queues.Outcomes)
	if err != nil {
		log.Fatal().Err(err).Msg("distributor: outcome queue unavailable")
	}
	defer outcomeQueue.Close()

	tracker := usage.NewTracker(pg, pg, usage.NewRingLog(cfg.Distributor.ActionLogSize), logger)
	scheduler := warmup.NewScheduler()
	admissionSvc := admission.NewService(pg, tracker, scheduler, logger)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pacer := pacing.NewEngine(rng)
	variantsSvc := variants.NewService(pg, rng)

	runner := distributor.NewRunner(
		distributor.NewService(admissionSvc, logger),
		pacer,
		pg, pg,
		queue.NewRedisAssignmentQueue(redisClient, cfg.Queues.Assignments),
		cache.NewRedisPassLock(redisClient),
		logger,
		cfg.Distributor.BatchLimit,
		cfg.Distributor.LockTTL,
	)

	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	consumer := outcomes.NewConsumer(outcomeQueue, tracker, variantsSvc, logger)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("distributor: outcome consumer stopped")
		}
	}()

	logger.Info().Dur("interval", cfg.Distributor.PassInterval).Msg("distributor: started")
	ticker := time.NewTicker(cfg.Distributor.PassInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("distributor: shutting down")
			return
		case now := <-ticker.C:
			runner.RunPass(ctx, now.UTC())
		}
	}
}
