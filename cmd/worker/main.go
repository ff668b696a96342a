package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"catalogsync/internal/app"
	"catalogsync/internal/config"
	"catalogsync/internal/logger"
	"catalogsync/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}
	if !cfg.AsyncEnabled() {
		logger.Fatal("KAFKA_BROKERS must be set to run the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize: %v", err)
	}
	defer a.Close()

	// Initialize worker
	w := worker.New(cfg, logger, a.Runner)

	logger.Info("Starting worker...")
	w.Start(ctx)

	logger.Info("Shutting down worker...")
	w.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.Runner.Shutdown(shutdownCtx); err != nil {
		logger.Error("Jobs did not stop in time: %v", err)
	}
}
