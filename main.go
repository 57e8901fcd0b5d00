package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"smc-analyzer/config"
	"smc-analyzer/internal/analysis"
	"smc-analyzer/internal/api"
	"smc-analyzer/internal/cache"
	"smc-analyzer/internal/database"
	"smc-analyzer/internal/events"
	"smc-analyzer/internal/logging"
	"smc-analyzer/internal/service"
)

func main() {
	godotenv.Load()

	fallback := zerolog.New(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		fallback.Fatal().Err(err).Msg("loading configuration")
	}

	logger, err := logging.New(cfg.LoggingConfig)
	if err != nil {
		fallback.Fatal().Err(err).Msg("initializing logger")
	}

	pipeline, err := analysis.NewPipeline(cfg.AnalysisConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("building analysis pipeline")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var snapCache *cache.SnapshotCache
	if cfg.RedisConfig.Enabled {
		snapCache = cache.New(cache.Config{
			Address:  cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
			TTL:      cfg.RedisConfig.TTL,
		}, logging.Component(logger, "cache"))
		defer snapCache.Close()
	}

	var repo *database.SnapshotRepository
	if cfg.DatabaseConfig.Enabled {
		db, err := database.NewDB(ctx, database.Config{
			Host:     cfg.DatabaseConfig.Host,
			Port:     cfg.DatabaseConfig.Port,
			User:     cfg.DatabaseConfig.User,
			Password: cfg.DatabaseConfig.Password,
			Database: cfg.DatabaseConfig.Database,
			SSLMode:  cfg.DatabaseConfig.SSLMode,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("connecting to database")
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("running migrations")
		}
		repo = database.NewSnapshotRepository(db)
	}

	bus := events.NewEventBus()
	analyzer := service.NewAnalyzer(pipeline, snapCache, repo, bus, logging.Component(logger, "analyzer"))

	server := api.NewServer(api.ServerConfig{
		Host:            cfg.ServerConfig.Host,
		Port:            cfg.ServerConfig.Port,
		ProductionMode:  cfg.ServerConfig.ProductionMode,
		ShutdownTimeout: cfg.ServerConfig.ShutdownTimeout,
		RateLimit:       cfg.ServerConfig.RateLimit,
		RateWindow:      cfg.ServerConfig.RateWindow,
	}, analyzer, bus, logging.Component(logger, "api"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("api server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}
}
