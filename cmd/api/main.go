package main

import (
	"context"
	"math/rand"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"outreach-engine/internal/adapters/api"
	"outreach-engine/internal/adapters/memstore"
	"outreach-engine/internal/adapters/repo"
	"outreach-engine/internal/domain"
	"outreach-engine/internal/infra/config"
	"outreach-engine/internal/infra/db"
	httpinfra "outreach-engine/internal/infra/http"
	infralog "outreach-engine/internal/infra/log"
	"outreach-engine/internal/infra/metrics"
	"outreach-engine/internal/usecase/accounts"
	"outreach-engine/internal/usecase/admission"
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

	var (
		profiles    domain.ProfileRepo
		usageStore  domain.UsageStore
		variantRepo domain.VariantRepo
	)
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("api: database connection failed")
		}
		defer pool.Close()
		pg := repo.NewPostgres(pool)
		profiles, usageStore, variantRepo = pg, pg, pg
	} else {
		logger.Warn().Msg("api: PG_DSN empty, using in-memory stores")
		profiles = memstore.NewProfiles()
		usageStore = memstore.NewUsage()
		variantRepo = memstore.NewVariants()
	}

	tracker := usage.NewTracker(usageStore, profiles, usage.NewRingLog(cfg.Distributor.ActionLogSize), logger)
	scheduler := warmup.NewScheduler()
	admissionSvc := admission.NewService(profiles, tracker, scheduler, logger)
	accountsSvc := accounts.NewService(profiles, logger)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	variantsSvc := variants.NewService(variantRepo, rng)

	server := httpinfra.NewServer(logger)
	api.NewHandler(accountsSvc, admissionSvc, tracker, variantsSvc, logger).Mount(server.Router)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("api: shutdown failed")
		}
	}()

	if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
		log.Fatal().Err(err).Msg("api: server failed")
	}
}
