package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/remotelyhq/jobradar/internal/aggregate"
	"github.com/remotelyhq/jobradar/internal/cache"
	"github.com/remotelyhq/jobradar/internal/config"
	"github.com/remotelyhq/jobradar/internal/dedup"
	"github.com/remotelyhq/jobradar/internal/events"
	"github.com/remotelyhq/jobradar/internal/rank"
	"github.com/remotelyhq/jobradar/internal/refresh"
	"github.com/remotelyhq/jobradar/internal/source"
	"github.com/remotelyhq/jobradar/shared/logger"
	"github.com/remotelyhq/jobradar/shared/postgresql"
	"github.com/remotelyhq/jobradar/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("REFRESH_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/refresh-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateRefreshConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting refresh service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	store, err := initCacheStore(ctx, cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache store: %w", err)
	}

	jobCache := cache.New(store, appLogger.Logger,
		cache.WithTTLs(cfg.Cache.FastTTL, cfg.Cache.SlowTTL),
	)

	enabled := cfg.EnabledSources()
	adapters := make([]source.Adapter, 0, len(enabled))
	priority := make([]string, 0, len(enabled))
	for _, s := range enabled {
		adapters = append(adapters, source.NewHTTPAdapter(source.HTTPConfig{
			Name:       s.Name,
			BaseURL:    s.BaseURL,
			PageSize:   s.PageSize,
			Timeout:    cfg.HTTP.Timeout,
			MaxRetries: cfg.HTTP.MaxRetries,
			BaseDelay:  cfg.HTTP.RetryBaseDelay,
			MaxDelay:   cfg.HTTP.RetryMaxDelay,
		}, appLogger.Logger))
		priority = append(priority, s.Name)
	}

	threshold := cfg.Dedup.SimilarityThreshold
	if threshold == 0 {
		threshold = dedup.DefaultSimilarityThreshold
	}

	loader := aggregate.NewLoader(adapters, priority, jobCache,
		rank.NewEngine(nil, cfg.Categories.MatchThreshold), appLogger.Logger,
		aggregate.WithSimilarityThreshold(threshold),
		aggregate.WithMaxConcurrent(cfg.HTTP.MaxConcurrent),
	)

	controller := refresh.NewController(loader, appLogger.Logger,
		refresh.WithInterval(cfg.Refresh.Interval),
		refresh.WithSnapshotSize(cfg.Refresh.SnapshotSize),
	)

	// The Postgres slow tier has no TTL eviction of its own, so sweep
	// expired rows after every refresh cycle.
	if pg, ok := store.(*cache.PostgresStore); ok {
		controller.Subscribe(func(refresh.Update) {
			pruneCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := pg.PruneExpired(pruneCtx); err != nil {
				appLogger.Warn("Failed to prune expired cache entries",
					slog.Any("error", err),
				)
			}
		})
	}

	var publisher *events.Publisher
	if cfg.Events.Enabled {
		rabbitClient, err := rabbitmq.NewClient(&rabbitmq.Config{
			Host:               cfg.Events.RabbitMQ.Host,
			Port:               cfg.Events.RabbitMQ.Port,
			User:               cfg.Events.RabbitMQ.User,
			Password:           cfg.Events.RabbitMQ.Password,
			VHost:              cfg.Events.RabbitMQ.VHost,
			ExchangeName:       cfg.Events.RabbitMQ.Exchange.Name,
			ExchangeType:       cfg.Events.RabbitMQ.Exchange.Type,
			ExchangeDurable:    cfg.Events.RabbitMQ.Exchange.Durable,
			RoutingKey:         cfg.Events.RabbitMQ.RoutingKey,
			RetryAttempts:      cfg.Events.RabbitMQ.Connection.RetryAttempts,
			RetryInterval:      cfg.Events.RabbitMQ.Connection.RetryInterval,
			Heartbeat:          cfg.Events.RabbitMQ.Connection.Heartbeat,
			PublishRetries:     cfg.Events.RabbitMQ.Publish.RetryAttempts,
			PublishRetryDelay:  cfg.Events.RabbitMQ.Publish.RetryInterval,
			PublishBackoffMult: cfg.Events.RabbitMQ.Publish.BackoffMultiplier,
		}, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}

		publisher = events.NewPublisher(rabbitClient, appLogger.Logger)
		controller.Subscribe(publisher.Listener())
		appLogger.Info("Refresh event publishing enabled",
			slog.String("exchange", cfg.Events.RabbitMQ.Exchange.Name),
		)
	}

	if err := controller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start refresh controller: %w", err)
	}

	appLogger.Info("Refresh service is running",
		slog.Duration("interval", cfg.Refresh.Interval),
		slog.Int("snapshot_size", cfg.Refresh.SnapshotSize),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down refresh service...")

	controller.Stop()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			appLogger.Error("Failed to close event publisher",
				slog.Any("error", err),
			)
		}
	}
	if err := jobCache.Close(); err != nil {
		appLogger.Error("Failed to close cache",
			slog.Any("error", err),
		)
	}

	appLogger.Info("Refresh service shutdown complete")
	return nil
}

// initCacheStore builds the slow cache tier for the configured backend
func initCacheStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			Namespace: cfg.Cache.Namespace,
		})
	case "postgres":
		client, err := postgresql.NewClient(&postgresql.Config{
			Host:            cfg.Cache.Postgres.Host,
			Port:            cfg.Cache.Postgres.Port,
			User:            cfg.Cache.Postgres.User,
			Password:        cfg.Cache.Postgres.Password,
			Database:        cfg.Cache.Postgres.Database,
			SSLMode:         cfg.Cache.Postgres.SSLMode,
			MaxOpenConns:    cfg.Cache.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Cache.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Cache.Postgres.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Cache.Postgres.ConnMaxIdleTime,
		}, log)
		if err != nil {
			return nil, err
		}
		return cache.NewPostgresStore(ctx, client)
	default:
		return cache.NewMemoryStore(), nil
	}
}
