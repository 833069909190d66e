package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"spotsong-billing/internal/config"
	pg "spotsong-billing/internal/infra/db/postgres"
	httpops "spotsong-billing/internal/infra/http"
	"spotsong-billing/internal/infra/identity"
	"spotsong-billing/internal/infra/logging"
	"spotsong-billing/internal/infra/metrics"
	red "spotsong-billing/internal/infra/redis"
	"spotsong-billing/internal/usecase"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Repositories ----
	planRepo := pg.NewPlanRepo(pool)
	cachedPlanRepo := pg.NewPlanRepoCacheDecorator(planRepo, redisClient)
	cardRepo := pg.NewCardRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	postingRepo := pg.NewPostingRepo(pool)
	tm := pg.NewTxManager(pool)
	guard := pg.NewSettlementGuard()

	// ---- Use cases ----
	// The browse path reads plans through the cache; settlement resolves
	// against the uncached repo inside its own transaction.
	planUC := usecase.NewPlanUseCase(cachedPlanRepo, logger)
	cardUC := usecase.NewCardUseCase(cardRepo, tm, logger)
	purchaseUC := usecase.NewPurchaseUseCase(planRepo, cardRepo, subRepo, postingRepo, guard, tm, logger)
	_ = cardUC
	_ = purchaseUC // exposed to the request layer embedding this core

	// ---- Identity ----
	verifier := identity.NewJWTVerifier(cfg.Identity.Secret)

	// ---- Ops server ----
	ops := httpops.NewServer(planUC, verifier, logger)
	go func() {
		if err := ops.Start(cfg.Ops.Port); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("ops server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ops server shutdown")
	}
}
