package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/miska12345/OpenMarket-sub000/internal/config"
	"github.com/miska12345/OpenMarket-sub000/internal/event"
	handler "github.com/miska12345/OpenMarket-sub000/internal/handler/http"
	"github.com/miska12345/OpenMarket-sub000/internal/ledger"
	"github.com/miska12345/OpenMarket-sub000/internal/provider"
	"github.com/miska12345/OpenMarket-sub000/internal/provider/clearinghouse"
	"github.com/miska12345/OpenMarket-sub000/internal/provider/mock"
	"github.com/miska12345/OpenMarket-sub000/internal/repository/postgres"
	redisrepo "github.com/miska12345/OpenMarket-sub000/internal/repository/redis"
	"github.com/miska12345/OpenMarket-sub000/internal/service"
	"github.com/miska12345/OpenMarket-sub000/migrations"
	"github.com/miska12345/OpenMarket-sub000/pkg/database"
	"github.com/miska12345/OpenMarket-sub000/pkg/health"
	"github.com/miska12345/OpenMarket-sub000/pkg/httpclient"
	pkgkafka "github.com/miska12345/OpenMarket-sub000/pkg/kafka"
	"github.com/miska12345/OpenMarket-sub000/pkg/tracing"
)

// App wires together all dependencies and runs the marketplace server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	consumer       *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "openmarket",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "openmarket")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis for saved carts.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr()),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	itemRepo := postgres.NewItemRepository(pool)
	orgRepo := postgres.NewOrganizationRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	txRepo := postgres.NewTransactionRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	stampRepo := postgres.NewStampRepository(pool)
	cartRepo := redisrepo.NewCartRepository(rdb, cfg.CartTTL())

	eventProducer := event.NewProducer(kafkaProducer, logger)
	paymentLedger := ledger.New(txRepo, accountRepo, logger)
	settlementProvider := newSettlementProvider(cfg, logger)

	checkoutService := service.NewCheckoutService(
		itemRepo, orgRepo, orderRepo,
		paymentLedger, settlementProvider, eventProducer, logger,
	)
	settlementService := service.NewSettlementService(
		txRepo, accountRepo, orderRepo, itemRepo, eventProducer, logger,
	)
	cartService := service.NewCartService(cartRepo, itemRepo, logger)
	orderService := service.NewOrderService(orderRepo, logger)
	itemService := service.NewItemService(itemRepo, orgRepo, logger)
	orgService := service.NewOrganizationService(orgRepo, logger)
	stampService := service.NewStampService(stampRepo, orgRepo, logger)

	// Settlement results consumer for async payment reconciliation.
	consumerHandler := event.NewConsumerHandler(settlementService, logger)
	consumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers: cfg.KafkaBrokers,
		GroupID: event.ConsumerGroupID,
		Topic:   event.TopicSettlementResults,
	}, consumerHandler.Handle, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return kafkaProducer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(handler.RouterDeps{
		Checkout: checkoutService,
		Carts:    cartService,
		Orders:   orderService,
		Items:    itemService,
		Orgs:     orgService,
		Stamps:   stampService,
		Health:   healthHandler,
		JWTKey:   cfg.JWTSecret,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		rdb:            rdb,
		producer:       kafkaProducer,
		consumer:       consumer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newSettlementProvider selects the configured payment provider.
func newSettlementProvider(cfg *config.Config, logger *slog.Logger) provider.SettlementProvider {
	if cfg.SettlementProvider == "clearinghouse" {
		baseClient := httpclient.New(httpclient.Config{
			Timeout:         10 * time.Second,
			MaxRetries:      3,
			RetryWaitMin:    500 * time.Millisecond,
			RetryWaitMax:    5 * time.Second,
			MaxConnsPerHost: 100,
		})
		cbClient := httpclient.NewCircuitBreakerClient(
			baseClient,
			httpclient.DefaultCircuitBreakerConfig("clearinghouse"),
			logger,
		)
		return clearinghouse.New(cfg.ClearinghouseURL, cfg.ClearinghouseKey, cbClient, logger)
	}
	return mock.NewProvider()
}

// Run starts the HTTP server and settlement consumer, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := a.consumer.Start(ctx); err != nil {
			a.logger.Error("settlement consumer error", slog.String("error", err.Error()))
		}
	}()

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

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Settlement consumer and Kafka producer
// 4. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Kafka consumer and producer.
	if err := a.consumer.Close(); err != nil {
		a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 4. Close Redis client and PostgreSQL pool.
	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
