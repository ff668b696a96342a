package handler

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"catalogsync/internal/api"
	"catalogsync/internal/app"
	"catalogsync/internal/config"
	"catalogsync/internal/logger"

	"github.com/gin-gonic/gin"
)

var (
	router      *gin.Engine
	routerMutex sync.Mutex
)

// initRouter builds the application on the first request. A failed attempt
// is retried on the next request.
func initRouter() (*gin.Engine, error) {
	routerMutex.Lock()
	defer routerMutex.Unlock()

	if router != nil {
		return router, nil // Already initialized
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(cfg.LogLevel)
	a, err := app.Build(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	router = api.New(cfg, log, a.APIDeps()).GetRouter()
	return router, nil
}

// Handler is the serverless entry point.
func Handler(w http.ResponseWriter, r *http.Request) {
	engine, err := initRouter()
	if err != nil {
		http.Error(w, fmt.Sprintf("Initialization failed: %v", err), http.StatusInternalServerError)
		return
	}

	// Serve the request
	engine.ServeHTTP(w, r)
}
