package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"catalogsync/internal/api/handlers"
	"catalogsync/internal/api/middleware"
	"catalogsync/internal/config"
	"catalogsync/internal/jobs"
	"catalogsync/internal/logger"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators behind the HTTP routes. Publisher and Store
// are optional.
type Deps struct {
	Runner    handlers.JobRunner
	Publisher handlers.JobPublisher
	Store     handlers.RunStore
}

type Server struct {
	config    *config.Config
	logger    *logger.Logger
	router    *gin.Engine
	server    *http.Server
	accessLog *io.PipeWriter
}

func New(cfg *config.Config, logger *logger.Logger, deps Deps) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	accessLog := logger.Writer()

	// Middleware
	router.Use(middleware.Logger(accessLog))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	jobHandler := handlers.NewJobHandler(deps.Runner, deps.Publisher, logger)

	// Trigger routes
	router.GET("/update-prices", jobHandler.Trigger(jobs.KindPrices))
	router.GET("/update-alt-text", jobHandler.Trigger(jobs.KindAltText))
	router.GET("/update-all", jobHandler.Trigger(jobs.KindAll))
	router.GET("/process-404-redirects", jobHandler.Trigger(jobs.KindRedirects))
	router.GET("/health", handlers.Health)

	if deps.Store != nil {
		runHandler := handlers.NewRunHandler(deps.Store, logger)

		v1 := router.Group("/api/v1")
		{
			runs := v1.Group("/runs")
			{
				runs.GET("", runHandler.List)
				runs.GET("/:id", runHandler.Get)
			}
		}
	}

	return &Server{
		config:    cfg,
		logger:    logger,
		router:    router,
		accessLog: accessLog,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	// Trigger requests stay open until the whole sheet is processed, so
	// there is no write timeout.
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	defer s.accessLog.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// GetRouter returns the Gin router for Vercel
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
