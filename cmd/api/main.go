package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blockspy/blockspy/internal/api"
	"github.com/blockspy/blockspy/internal/probe"
	"github.com/blockspy/blockspy/internal/repository"
	"github.com/blockspy/blockspy/internal/service"
	"github.com/blockspy/blockspy/internal/storage"
	"github.com/blockspy/blockspy/pkg/config"
	"github.com/blockspy/blockspy/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	appLogger := logger.NewLogger(logger.ParseLevel(cfg.LogLevel), os.Stdout, cfg.LogJSON)
	logger.SetDefault(appLogger)

	logger.Info("Starting application", map[string]interface{}{
		"app":   cfg.AppName,
		"debug": cfg.Debug,
		"port":  cfg.Port,
	})

	// Initialize database
	if err := repository.InitDB(cfg); err != nil {
		logger.Fatal("Failed to initialize database", err, nil)
	}
	logger.Info("Database initialized", nil)

	// Initialize repositories
	db := repository.GetDB()
	serverRepo := repository.NewServerRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Initialize services
	monitorService := service.NewMonitorService(serverRepo, statusRepo, presenceRepo, eventRepo, cfg)
	reconciler := service.NewPresenceReconciler(presenceRepo)
	prober := probe.NewListProber(monitorService)
	scheduler := service.NewPollScheduler(serverRepo, statusRepo, reconciler, prober, cfg)

	// Optional time-series mirror for status samples
	influxClient := storage.NewInfluxDBClient(cfg)
	if influxClient != nil {
		scheduler.SetSampleMirror(influxClient)
	}

	// Start the monitoring loops
	scheduler.Start()

	// Initialize handlers
	serverHandler := api.NewServerHandler(monitorService)
	consoleHandler := api.NewConsoleHandler(monitorService, cfg)

	// Setup router
	router := api.SetupRouter(serverHandler, consoleHandler, cfg)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down gracefully...", nil)

		// Drain the in-flight poll cycle before exiting so no server is left
		// with a half-applied poll
		scheduler.Stop()

		if influxClient != nil {
			influxClient.Close()
		}

		logger.Info("Shutdown complete", nil)
		os.Exit(0)
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("Server starting", map[string]interface{}{
		"address":      addr,
		"api_endpoint": fmt.Sprintf("http://localhost%s/api", addr),
		"health_check": fmt.Sprintf("http://localhost%s/health", addr),
	})

	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", err, nil)
	}
}
