package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/database"
	"github.com/paperdrill/paperdrill-backend/internal/handler"
	"github.com/paperdrill/paperdrill-backend/internal/logger"
	"github.com/paperdrill/paperdrill-backend/internal/repository"
	"github.com/paperdrill/paperdrill-backend/internal/router"
	"github.com/paperdrill/paperdrill-backend/internal/service"
	"github.com/paperdrill/paperdrill-backend/internal/snapshot"
	"github.com/paperdrill/paperdrill-backend/internal/validator"
	"github.com/paperdrill/paperdrill-backend/internal/worker"
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
		Msg("Starting PaperDrill Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	paperRepo := repository.NewPaperRepository(pool)
	scoreRepo := repository.NewScoreRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	redisStore := snapshot.NewRedisStore(rdb)
	snapManager := snapshot.NewManager(redisStore, cfg.SnapshotTTL, log)
	scoreQueue := worker.NewRedisScoreQueue(rdb)

	paperService := service.NewPaperService(cfg, paperRepo, redisStore, log)
	attemptService := service.NewAttemptService(cfg, paperService, snapManager, scoreQueue, scoreRepo, log)
	scoreService := service.NewScoreService(scoreRepo, log)
	generatorService := service.NewGeneratorService(cfg, log)

	attemptService.Run(ctx)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Paper:     handler.NewPaperHandler(paperService),
		Attempt:   handler.NewAttemptHandler(attemptService),
		Score:     handler.NewScoreHandler(scoreService),
		Generator: handler.NewGeneratorHandler(generatorService),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	flushWorker := worker.NewScoreFlushWorker(pool, rdb, log)
	go flushWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

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

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop live timers, then the worker, and wait for the queue drain.
	cancel()
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
