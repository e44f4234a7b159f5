package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edanalytica/gradelens-backend/internal/config"
	"github.com/edanalytica/gradelens-backend/internal/database"
	"github.com/edanalytica/gradelens-backend/internal/dataset"
	"github.com/edanalytica/gradelens-backend/internal/handler"
	"github.com/edanalytica/gradelens-backend/internal/logger"
	"github.com/edanalytica/gradelens-backend/internal/repository"
	"github.com/edanalytica/gradelens-backend/internal/router"
	"github.com/edanalytica/gradelens-backend/internal/service"
	"github.com/edanalytica/gradelens-backend/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting GradeLens Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Select Dataset Source ─────────────────────────────────────────
	var source dataset.Source
	switch cfg.DatasetSource {
	case "csv":
		source = &dataset.CSVSource{Path: cfg.DatasetPath}
	case "xlsx":
		source = &dataset.XLSXSource{Path: cfg.DatasetPath, Sheet: cfg.DatasetSheet}
	case "warehouse":
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		source = repository.NewRecordRepository(pool)
	default:
		log.Fatal().Str("source", cfg.DatasetSource).Msg("Unknown DATASET_SOURCE")
	}

	// ─── Load Dataset ──────────────────────────────────────────────────
	// A dataset that fails schema validation never serves.
	store := dataset.NewStore(source, log)
	if err := store.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load dataset")
	}

	// ─── Connect to Redis (optional) ───────────────────────────────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
	} else {
		log.Info().Msg("REDIS_URL not set; response cache disabled")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	datasetService := service.NewDatasetService(store, rdb, log)
	analyticsService := service.NewAnalyticsService(datasetService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Dashboard: handler.NewDashboardHandler(datasetService, analyticsService),
		Trend:     handler.NewTrendHandler(analyticsService),
		Covid:     handler.NewCovidHandler(analyticsService),
		Dataset:   handler.NewDatasetHandler(datasetService, log),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, datasetService, rdb, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
