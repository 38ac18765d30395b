package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classroomhq/classroom-backend/internal/config"
	"github.com/classroomhq/classroom-backend/internal/database"
	"github.com/classroomhq/classroom-backend/internal/handler"
	"github.com/classroomhq/classroom-backend/internal/logger"
	"github.com/classroomhq/classroom-backend/internal/middleware"
	"github.com/classroomhq/classroom-backend/internal/repository/postgres"
	"github.com/classroomhq/classroom-backend/internal/router"
	"github.com/classroomhq/classroom-backend/internal/service"
	"github.com/classroomhq/classroom-backend/internal/validator"
	"github.com/rs/zerolog"
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
		Msg("Starting Classroom Backend")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = ephemeralSecret()
		log.Warn().Msg("JWT_SECRET is not set; using a random per-process secret, tokens will not survive a restart")
	}

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

	// ─── Initialize Services ──────────────────────────────────────────
	store := postgres.NewStore(pool)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	revoked := service.NewRedisRevocationList(rdb)

	authService := service.NewAuthService(store, tokens, revoked, cfg.BcryptCost, log)
	classService := service.NewClassService(store, cfg.JoinCodeBytes, log)
	enrollmentService := service.NewEnrollmentService(store, log)
	assignmentService := service.NewAssignmentService(store, log)
	timetableService := service.NewTimetableService(store, log)
	gradeService := service.NewGradeService(store, cfg.GradeRequiresEnrollment, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": pool.Ping,
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		}, log),
		Auth:       handler.NewAuthHandler(authService, log),
		Class:      handler.NewClassHandler(classService, log),
		Student:    handler.NewStudentHandler(enrollmentService, log),
		Assignment: handler.NewAssignmentHandler(assignmentService, log),
		Timetable:  handler.NewTimetableHandler(timetableService, log),
		Grade:      handler.NewGradeHandler(gradeService, log),
	}

	authLimiter := middleware.NewRateLimiter(
		middleware.NewRedisWindowCounter(rdb), cfg.AuthRateLimit, time.Minute, log)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, authLimiter, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func ephemeralSecret() string {
	buf := make([]byte, config.MinJWTSecretLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
