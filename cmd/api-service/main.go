package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/remotelyhq/jobradar/internal/aggregate"
	"github.com/remotelyhq/jobradar/internal/api/handler"
	"github.com/remotelyhq/jobradar/internal/api/router"
	"github.com/remotelyhq/jobradar/internal/cache"
	"github.com/remotelyhq/jobradar/internal/config"
	"github.com/remotelyhq/jobradar/internal/dedup"
	"github.com/remotelyhq/jobradar/internal/rank"
	"github.com/remotelyhq/jobradar/internal/refresh"
	"github.com/remotelyhq/jobradar/internal/source"
	"github.com/remotelyhq/jobradar/shared/logger"
	"github.com/remotelyhq/jobradar/shared/postgresql"
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

	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting API service",
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

	adapters, priority := initSources(cfg, appLogger.Logger)
	appLogger.Info("Sources configured",
		slog.Int("count", len(adapters)),
	)

	ranker := rank.NewEngine(nil, cfg.Categories.MatchThreshold)

	threshold := cfg.Dedup.SimilarityThreshold
	if threshold == 0 {
		threshold = dedup.DefaultSimilarityThreshold
	}

	loader := aggregate.NewLoader(adapters, priority, jobCache, ranker, appLogger.Logger,
		aggregate.WithSimilarityThreshold(threshold),
		aggregate.WithSampleProvider(source.StaticSamples{}),
		aggregate.WithMaxConcurrent(cfg.HTTP.MaxConcurrent),
	)

	controller := refresh.NewController(loader, appLogger.Logger,
		refresh.WithInterval(cfg.Refresh.Interval),
		refresh.WithSnapshotSize(cfg.Refresh.SnapshotSize),
	)
	if err := controller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start refresh controller: %w", err)
	}

	r := initRouter(cfg.App.Environment, appLogger.Logger, loader, controller, ranker, jobCache)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer func() {
		cancel()
		controller.Stop()
		if err := jobCache.Close(); err != nil {
			appLogger.Error("Failed to close cache",
				slog.Any("error", err),
			)
		}
	}()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
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

// initSources builds an adapter per enabled source and the priority
// order used to break duplicate ties
func initSources(cfg *config.Config, log *slog.Logger) ([]source.Adapter, []string) {
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
		}, log))
		priority = append(priority, s.Name)
	}
	return adapters, priority
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(environment string, log *slog.Logger, loader *aggregate.Loader, controller *refresh.Controller, ranker *rank.Engine, jobCache *cache.Cache) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(&handler.Dependencies{
		Logger:    log,
		Loader:    loader,
		Refresher: controller,
		Ranker:    ranker,
		Cache:     jobCache,
	})
}
