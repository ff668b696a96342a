package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogsync/internal/api"
	"catalogsync/internal/app"
	"catalogsync/internal/config"
	"catalogsync/internal/logger"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize: %v", err)
	}
	defer a.Close()

	// Initialize API server
	server := api.New(cfg, logger, a.APIDeps())

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Available endpoints: /update-prices, /update-alt-text, /update-all, /process-404-redirects")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("Failed to start server: %v", err)
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Inline jobs outlive their requests, so stop them first. They record a
	// failed run and their handlers return before the server drains.
	if err := a.Runner.Shutdown(shutdownCtx); err != nil {
		logger.Error("Jobs did not stop in time: %v", err)
	}
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
		os.Exit(1)
	}
}
