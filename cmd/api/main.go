package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"carbon-credit-ledger/config"
	httpHandler "carbon-credit-ledger/internal/adapter/http/handler"
	memStorage "carbon-credit-ledger/internal/adapter/storage/memory"
	pgStorage "carbon-credit-ledger/internal/adapter/storage/postgres"
	redisStorage "carbon-credit-ledger/internal/adapter/storage/redis"
	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"
	"carbon-credit-ledger/internal/service"
	"carbon-credit-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting Carbon Credit Ledger")

	ctx := context.Background()

	// Select the state-store backend.
	var (
		ledger      ports.Ledger
		replayCache ports.IdempotencyCache
		checkers    []ports.HealthChecker
	)
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		if err := pgStorage.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply database schema")
		}
		ledger = pgStorage.NewLedger(pool)
		replayCache = pgStorage.NewReplayStore(pool)
		checkers = append(checkers, pgStorage.NewHealthCheck(pool))
		log.Info().Msg("PostgreSQL state store ready")
	case "memory":
		ledger = memStorage.New()
		log.Info().Msg("In-memory state store ready")
	default:
		log.Fatal().Str("driver", cfg.Storage.Driver).Msg("Unknown storage driver")
	}

	// Redis, when enabled, takes over transaction replay caching.
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		replayCache = redisStorage.NewIdempotencyCache(rdb)
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
		log.Info().Msg("Redis replay cache ready")
	}

	// Bootstrap the on-ledger governance record if this is a fresh store.
	if err := bootstrapGovernance(ctx, ledger, cfg.Governance); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap governance config")
	}

	// Initialize module services
	registrySvc := service.NewRegistryService(ledger, log)
	marketplaceSvc := service.NewMarketplaceService(ledger, log)
	verificationSvc := service.NewVerificationService(ledger, log)
	retirementSvc := service.NewRetirementService(ledger, cfg.Certificate.VerificationBaseURL, log)

	// Setup Gin router with all routes
	gin.SetMode(cfg.Server.Mode)
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		RegistrySvc:     registrySvc,
		MarketplaceSvc:  marketplaceSvc,
		VerificationSvc: verificationSvc,
		RetirementSvc:   retirementSvc,
		ReplayCache:     replayCache,
		HealthCheckers:  checkers,
		Logger:          log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// bootstrapGovernance writes the configured governance record on first run.
// An existing on-ledger record always wins over the config file.
func bootstrapGovernance(ctx context.Context, ledger ports.Ledger, cfg config.GovernanceConfig) error {
	tx, err := ledger.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bootstrap tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	existing, err := tx.Governance().Get()
	if err != nil {
		return fmt.Errorf("read governance config: %w", err)
	}
	if existing != nil {
		return nil
	}

	if err := tx.Governance().Set(&domain.GovernanceConfig{
		Admins:                 cfg.Admins,
		CommunityVoteThreshold: cfg.CommunityVoteThreshold,
		FlagThreshold:          cfg.FlagThreshold,
	}); err != nil {
		return fmt.Errorf("write governance config: %w", err)
	}
	for principal, amount := range cfg.InitialBalances {
		if err := tx.Settlement().SetBalance(principal, amount); err != nil {
			return fmt.Errorf("seed balance for %s: %w", principal, err)
		}
	}
	return tx.Commit(ctx)
}
