// Package app wires together configuration, storage backends, providers
// and the HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/psvit/storefront/internal/config"
	"github.com/psvit/storefront/internal/event"
	handler "github.com/psvit/storefront/internal/handler/http"
	"github.com/psvit/storefront/internal/identity"
	"github.com/psvit/storefront/internal/repository"
	"github.com/psvit/storefront/internal/repository/fileslot"
	"github.com/psvit/storefront/internal/repository/postgres"
	"github.com/psvit/storefront/internal/repository/redisslot"
	"github.com/psvit/storefront/internal/repository/rest"
	"github.com/psvit/storefront/internal/service"
	"github.com/psvit/storefront/migrations"
	"github.com/psvit/storefront/pkg/database"
	"github.com/psvit/storefront/pkg/health"
	"github.com/psvit/storefront/pkg/httpclient"
	pkgkafka "github.com/psvit/storefront/pkg/kafka"
	"github.com/psvit/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront server.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	pgPool     *pgxpool.Pool
	producer   *pkgkafka.Producer
	httpServer *http.Server
	traceStop  func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Tracing.
	traceCfg := tracing.DefaultConfig("storefront")
	traceCfg.Enabled = cfg.TracingEnabled
	traceCfg.OTLPEndpoint = cfg.OTLPEndpoint
	traceCfg.Environment = cfg.Environment
	traceStop, err := tracing.InitTracer(ctx, traceCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.traceStop = traceStop

	healthHandler := health.NewHandler()

	// Cart persistence slot.
	var slot repository.SnapshotSlot
	switch cfg.CartSlotBackend {
	case config.SlotBackendRedis:
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		slot = redisslot.New(rdb, cfg.CartSlotName, time.Duration(cfg.CartTTL)*time.Hour)
		healthHandler.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		logger.Info("cart slot backed by redis",
			slog.String("addr", cfg.RedisAddr),
			slog.String("key", cfg.CartSlotName),
		)
	default:
		slot = fileslot.New(cfg.CartSlotPath)
		logger.Info("cart slot backed by file",
			slog.String("path", cfg.CartSlotPath),
		)
	}

	// Kafka producer; silent when no brokers are configured.
	var publisher service.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Outbound HTTP to the hosted provider.
	providerClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("provider"),
		logger,
	)

	// Catalog backend.
	var productRepo repository.ProductRepository
	switch cfg.CatalogBackend {
	case config.CatalogBackendPostgres:
		pool, err := database.NewPostgresPool(ctx, database.DefaultPostgresConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pgPool = pool
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		productRepo = postgres.NewProductRepository(pool)
		healthHandler.Register("postgres", pool.Ping)
		logger.Info("catalog backed by postgres")
	default:
		productRepo = rest.NewClient(providerClient, cfg.ProviderBaseURL, cfg.ProviderAnonKey)
		logger.Info("catalog backed by hosted provider",
			slog.String("base_url", cfg.ProviderBaseURL),
		)
	}

	// Build the dependency graph.
	cartStore := service.NewCartStore(context.Background(), slot, publisher, logger)
	catalogService := service.NewCatalogService(productRepo, logger)

	router := handler.NewRouter(handler.RouterDeps{
		CartStore:      cartStore,
		CatalogService: catalogService,
		AuthClient:     identity.NewClient(providerClient, cfg.ProviderBaseURL, cfg.ProviderAnonKey),
		Verifier:       identity.NewVerifier(cfg.AuthJWTSecret),
		Allowlist:      identity.NewAllowlist(cfg.AdminEmails),
		HealthHandler:  healthHandler,
		Logger:         logger,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	})

	a.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: the cart event stream is long-lived
		IdleTimeout: 60 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if a.pgPool != nil {
		a.pgPool.Close()
	}

	if err := a.traceStop(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
