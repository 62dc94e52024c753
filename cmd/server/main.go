package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/nxfinance/loans/internal/adapter/http"
	"github.com/nxfinance/loans/internal/adapter/http/handler"
	"github.com/nxfinance/loans/internal/adapter/http/middleware"
	postgresRepo "github.com/nxfinance/loans/internal/adapter/repository/postgres"
	redisRepo "github.com/nxfinance/loans/internal/adapter/repository/redis"
	"github.com/nxfinance/loans/internal/infrastructure/auth"
	"github.com/nxfinance/loans/internal/infrastructure/config"
	"github.com/nxfinance/loans/internal/infrastructure/eventpublisher"
	"github.com/nxfinance/loans/internal/infrastructure/logger"
	"github.com/nxfinance/loans/internal/infrastructure/metrics"
	"github.com/nxfinance/loans/internal/infrastructure/postgres"
	"github.com/nxfinance/loans/internal/infrastructure/redis"
	"github.com/nxfinance/loans/internal/usecase"
)

// rateLimiterIdle is how long a client IP may stay quiet before its limiter is dropped.
const rateLimiterIdle = 10 * time.Minute

// streamMaxLen caps each Redis event stream.
const streamMaxLen = 100_000

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, lg zerolog.Logger) error {
	// Connect to PostgreSQL
	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	pool, err := postgres.NewPoolWithConfig(connectCtx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		MaxConnLifetime: cfg.DatabaseMaxConnLifetime,
		MaxConnIdleTime: cfg.DatabaseMaxConnIdleTime,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	lg.Info().Msg("connected to postgres")

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(lg, cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return err
		}
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	lg.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	idGen := postgresRepo.NewULIDGenerator()
	txManager := postgresRepo.NewTxManager(pool)
	loanRepo := postgresRepo.NewLoanRepository(pool)
	scheduleRepo := postgresRepo.NewScheduleRepository(pool)
	paymentRepo := postgresRepo.NewPaymentRepository(pool)
	ledger := postgresRepo.NewLedgerRepository(pool, idGen)
	loanTypeRepo := loanTypeRepository(cfg, postgresRepo.NewLoanTypeRepository(pool), redisRepo.NewCache(redisClient), lg)
	outboxRepo := outboxRepository(cfg, postgresRepo.NewOutboxRepository(pool))
	retrier := postgresRepo.NewRetrier(lg, m)

	// Initialize use cases
	loanTypeUC := usecase.NewLoanTypeUseCase(loanTypeRepo)
	loanUC := usecase.NewLoanUseCase(txManager, loanRepo, loanTypeRepo, scheduleRepo, ledger, outboxRepo, idGen, m)
	paymentUC := usecase.NewPaymentUseCase(txManager, loanRepo, scheduleRepo, paymentRepo, ledger, outboxRepo, idGen, m)
	reconciliationUC := usecase.NewReconciliationUseCase(loanRepo, scheduleRepo, paymentRepo)

	routerCfg := httpAdapter.RouterConfig{
		HealthHandler:         handler.NewHealthHandler(healthChecks(pool.Ping, redisClient)),
		LoanTypeHandler:       handler.NewLoanTypeHandler(loanTypeUC),
		LoanHandler:           handler.NewLoanHandler(loanUC, retrier),
		PaymentHandler:        handler.NewPaymentHandler(paymentUC, loanUC, retrier),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		Metrics:               m,
		Logger:                lg,
	}
	if cfg.IdempotencyEnabled {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}
	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		lg.Info().Msg("bearer authentication enabled")
	}
	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
		routerCfg.RateLimiter = limiter
		go sweepLimiters(ctx, limiter)
	}

	if cfg.OutboxEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  eventSink(cfg, redisClient, lg),
			Logger:     lg,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		})
		go func() {
			if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// loanTypeRepository puts the Redis cache in front of the catalog when a TTL is set.
func loanTypeRepository(cfg *config.Config, repo usecase.LoanTypeRepository, cache usecase.Cache, lg zerolog.Logger) usecase.LoanTypeRepository {
	if cfg.CatalogCacheTTL <= 0 {
		return repo
	}
	return redisRepo.NewCachedLoanTypeRepository(repo, cache, cfg.CatalogCacheTTL, lg)
}

// outboxRepository returns a no-op outbox when event publishing is disabled,
// so nothing accumulates in the table.
func outboxRepository(cfg *config.Config, repo usecase.OutboxRepository) usecase.OutboxRepository {
	if !cfg.OutboxEnabled {
		return postgresRepo.NewNullOutboxRepository()
	}
	return repo
}

func eventSink(cfg *config.Config, client *goredis.Client, lg zerolog.Logger) eventpublisher.Publisher {
	if cfg.EventSink == "redis" {
		return eventpublisher.NewRedisStreamPublisher(client, streamMaxLen)
	}
	return eventpublisher.NewLogPublisher(lg)
}

func healthChecks(pingDB handler.Pinger, client *goredis.Client) map[string]handler.Pinger {
	return map[string]handler.Pinger{
		"postgres": pingDB,
		"redis": func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

func sweepLimiters(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.CleanupLimiters(rateLimiterIdle)
		}
	}
}
