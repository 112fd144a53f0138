// @title           Whiteboard Service API
// @version         1.0
// @description     Real-time collaborative whiteboard API

// @host      localhost:8002
// @BasePath  /api/boards

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"whiteboard-service/internal/config"
	"whiteboard-service/internal/database"
	"whiteboard-service/internal/job"
	"whiteboard-service/internal/metrics"
	"whiteboard-service/internal/repository"
	"whiteboard-service/internal/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Whiteboard Service",
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Env),
		zap.String("base_path", cfg.Server.BasePath),
	)

	// Initialize database
	db, err := database.New(database.Config{
		DSN: cfg.Database.URL,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected and migrated")

	// Initialize Redis. Without it the service still works, but boards are
	// not synchronized across instances.
	redisClient, err := database.NewRedis(cfg.Redis.URL)
	if err != nil {
		logger.Warn("Redis unavailable, cross-instance relay disabled", zap.Error(err))
		redisClient = nil
	} else {
		logger.Info("Redis connected")
	}

	// Initialize metrics
	m := metrics.New()

	// Setup router with all dependencies
	r, hub := router.Setup(cfg, db, redisClient, m, logger)

	// Schedule stale participant cleanup
	participantRepo := repository.NewParticipantRepository(db)
	sweepJob := job.NewSweepJob(participantRepo, cfg.Presence.LivenessTimeout, logger)
	scheduler := cron.New()
	if _, err := scheduler.AddJob(cfg.Presence.CleanupCron, sweepJob); err != nil {
		logger.Fatal("Failed to schedule cleanup job",
			zap.String("schedule", cfg.Presence.CleanupCron),
			zap.Error(err))
	}
	scheduler.Start()

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Whiteboard Service started successfully",
			zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	<-scheduler.Stop().Done()
	hub.Close()
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return zapConfig.Build()
}
