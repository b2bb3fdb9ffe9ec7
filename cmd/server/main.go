package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpAdapter "github.com/printdesk/treasury/internal/adapter/http"
	"github.com/printdesk/treasury/internal/adapter/http/handler"
	"github.com/printdesk/treasury/internal/adapter/http/middleware"
	postgresRepo "github.com/printdesk/treasury/internal/adapter/repository/postgres"
	redisRepo "github.com/printdesk/treasury/internal/adapter/repository/redis"
	"github.com/printdesk/treasury/internal/infrastructure/config"
	"github.com/printdesk/treasury/internal/infrastructure/eventpublisher"
	"github.com/printdesk/treasury/internal/infrastructure/logger"
	"github.com/printdesk/treasury/internal/infrastructure/metrics"
	"github.com/printdesk/treasury/internal/infrastructure/postgres"
	"github.com/printdesk/treasury/internal/infrastructure/redis"
	"github.com/printdesk/treasury/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	receivableRepo := postgresRepo.NewReceivableRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)

	var outboxRepo usecase.OutboxRepository = postgresRepo.NewOutboxRepository(pool)
	if !cfg.OutboxEnabled {
		outboxRepo = postgresRepo.NewNullOutboxRepository()
	}
	retrier := postgresRepo.NewRetrier(log)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, entryRepo, auditRepo, idGen, cache, m)
	entryUC := usecase.NewEntryUseCase(txManager, accountRepo, entryRepo, outboxRepo, auditRepo, idGen, retrier, m, log)
	receivableUC := usecase.NewReceivableUseCase(txManager, receivableRepo, outboxRepo, auditRepo, idGen, m, log)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	entryHandler := handler.NewEntryHandler(entryUC)
	receivableHandler := handler.NewReceivableHandler(receivableUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:    accountHandler,
		EntryHandler:      entryHandler,
		ReceivableHandler: receivableHandler,
		HealthHandler:     healthHandler,
		IdempotencyStore:  idempotencyStore,
		IdempotencyTTL:    cfg.IdempotencyTTL,
		RateLimiter:       middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		Logger:            log,
	})

	// Background workers share a cancellable context.
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	// Outbox publisher
	if cfg.OutboxEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  eventpublisher.NewLogPublisher(log),
			Logger:     log,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
		})
		go func() {
			if err := publisher.Start(workerCtx); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	// Interest accrual sweep
	if cfg.AccrualSweepEnabled {
		go runAccrualSweep(workerCtx, receivableUC, cfg.AccrualSweepInterval, log)
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopWorkers()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// runAccrualSweep periodically applies due interest across all tenants.
func runAccrualSweep(ctx context.Context, receivableUC *usecase.ReceivableUseCase, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("accrual sweep scheduled")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("accrual sweep stopped")
			return
		case <-ticker.C:
			result, err := receivableUC.RunAccrualSweep(ctx, time.Now().UTC())
			if err != nil {
				log.Error().Err(err).Msg("accrual sweep failed")
				continue
			}
			log.Info().
				Int("scanned", result.Scanned).
				Int("accrued", result.Accrued).
				Int("skipped", result.Skipped).
				Int("failed", result.Failed).
				Msg("accrual sweep completed")
		}
	}
}
