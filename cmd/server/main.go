package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/vantora/vantora-backend/internal/config"
	"github.com/vantora/vantora-backend/internal/database"
	"github.com/vantora/vantora-backend/internal/handler"
	"github.com/vantora/vantora-backend/internal/logger"
	"github.com/vantora/vantora-backend/internal/repository"
	"github.com/vantora/vantora-backend/internal/router"
	"github.com/vantora/vantora-backend/internal/service"
	"github.com/vantora/vantora-backend/internal/validator"
	"github.com/vantora/vantora-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Vantora Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)

	// Services
	authService := service.NewAuthService(cfg, rdb, userRepo)
	userService := service.NewUserService(userRepo, authService)
	catalogService := service.NewCatalogService(catalogRepo, questionRepo)
	assignmentService := service.NewAssignmentService(assignmentRepo, sessionRepo, userRepo, catalogRepo)
	sessionService := service.NewSessionService(sessionRepo, catalogRepo, questionRepo, answerRepo)
	violationService := service.NewViolationService(sessionRepo, violationRepo)
	monitorService := service.NewMonitorService(sessionRepo, violationRepo, answerRepo, dashboardRepo)

	// Handlers
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, userService),
		Candidate:  handler.NewCandidateHandler(assignmentService, sessionService, violationService),
		Catalog:    handler.NewCatalogHandler(catalogService),
		Assignment: handler.NewAssignmentHandler(assignmentService),
		Monitor:    handler.NewMonitorHandler(monitorService, violationService, cfg.AllowedOrigins),
		User:       handler.NewUserHandler(userService, authService),
	}

	// Background sweeper: force-closes overdue sessions.
	workerCtx, workerCancel := context.WithCancel(context.Background())

	sweeper := worker.NewSweeper(sessionRepo, cfg.SweepInterval, log)
	go sweeper.Start(workerCtx)

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
