package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marginApp/config"
	"marginApp/internal/adapters/logger"
	"marginApp/internal/adapters/storefactory"
	"marginApp/internal/api"
	"marginApp/internal/app"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.NewZapLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": string(cfg.LogFormat)})

	// 3. Initialize Repository (Store Adapter)
	repo, err := storefactory.Open(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize position store")
		log.Fatalf("FATAL: Failed to initialize position store: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing position store")
		}
	}()
	appLogger.Info(ctx, "Position store initialized", map[string]interface{}{"driver": cfg.StoreDriver})

	// 4. Initialize Application Services
	lifecycle, err := app.NewPositionLifecycle(appLogger, repo)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize position lifecycle")
		log.Fatalf("FATAL: Failed to initialize position lifecycle: %v", err)
	}
	stats, err := app.NewStatisticsService(appLogger, repo)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize statistics service")
		log.Fatalf("FATAL: Failed to initialize statistics service: %v", err)
	}

	// 5. Build HTTP Server
	router := api.SetupRoutes(api.Dependencies{
		Positions:     lifecycle,
		Statistics:    stats,
		Logger:        appLogger,
		AdminIDs:      cfg.AdminIDs,
		MaxMultiplier: cfg.MaxMultiplier,
	})
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      http.TimeoutHandler(router, cfg.RequestTimeout, `{"error":"request timed out"}`),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 6. Start the Server
	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": cfg.HTTPAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info(ctx, "Shutdown signal received", map[string]interface{}{"signal": sig.String()})
	case err, ok := <-serverErr:
		if ok {
			appLogger.Error(ctx, err, "HTTP server exited with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(ctx, err, "HTTP server forced to shutdown")
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}
