package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/config"
	handler "github.com/postsi/ESPHomeCLI-AddOn/internal/delivery/http"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/esphome"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/registry"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/runner"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/usecase"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/workspace"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting ESPHome CLI addon server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core subsystem: registry, workspace, executor, runner pool
	jobRegistry := registry.New()
	ws := workspace.New(cfg.Workspace.Dir)
	executor := esphome.NewExecutor(cfg.Esphome.BinPath, logger)

	pool := runner.NewPool(
		cfg.Runner.PoolSize,
		cfg.Runner.QueueDepth,
		jobRegistry,
		ws,
		executor,
		cfg.Esphome.JobTimeout,
		logger,
	)
	pool.Start(ctx)

	// Use cases
	submitUC := usecase.NewSubmitJobUsecase(jobRegistry, pool, logger)
	getJobUC := usecase.NewGetJobUsecase(jobRegistry, logger)
	listUC := usecase.NewListJobsUsecase(jobRegistry)
	validateUC := usecase.NewValidateConfigUsecase(ws, executor, cfg.Esphome.ValidateTimeout, logger)

	// Router
	router := handler.NewRouter(&handler.RouterDeps{
		SubmitUC:        submitUC,
		GetJobUC:        getJobUC,
		ListUC:          listUC,
		ValidateUC:      validateUC,
		Logger:          logger,
		RateLimitPerMin: cfg.Server.RateLimit,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		EsphomeBin:      cfg.Esphome.BinPath,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Stop accepting work and drain in-flight jobs
	cancel()
	pool.Stop()

	logger.Info("Server stopped")
}
