package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/proof-of-inference/avs-backend/internal/orchestrator/api/handlers"
	"github.com/proof-of-inference/avs-backend/internal/orchestrator/core/pipeline"
	"github.com/proof-of-inference/avs-backend/pkg/logging"
)

// Server represents the API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     logging.Logger
}

// Config holds the server configuration
type Config struct {
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	MaxHeaderBytes     int
	MaxConcurrentTasks int
}

// Dependencies holds the server dependencies
type Dependencies struct {
	Logger    logging.Logger
	Processor handlers.TaskProcessor
	Store     *pipeline.ResultStore
}

// NewServer creates a new API server
func NewServer(cfg Config, deps Dependencies) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Write timeout must cover the whole pipeline, which waits on
		// several downstream calls
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.MaxHeaderBytes == 0 {
		cfg.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.MaxConcurrentTasks == 0 {
		cfg.MaxConcurrentTasks = 32
	}

	router := gin.New()

	srv := &Server{
		router: router,
		logger: deps.Logger,
		httpServer: &http.Server{
			Addr:           fmt.Sprintf(":%s", cfg.Port),
			Handler:        router,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
	}

	srv.setupMiddleware()
	srv.setupRoutes(cfg, deps)

	return srv
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("Starting API server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	return s.httpServer.Shutdown(ctx)
}

// setupMiddleware sets up the middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
}

// setupRoutes sets up the routes for the server
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	taskHandler := handlers.NewTaskHandler(deps.Logger, deps.Processor, deps.Store, cfg.MaxConcurrentTasks)
	healthHandler := handlers.NewHealthHandler(deps.Logger)
	metricsHandler := handlers.NewMetricsHandler(deps.Logger)

	// Task routes
	s.router.POST("/verify", taskHandler.VerifyTask)
	s.router.GET("/status/:id", taskHandler.TaskStatus)

	// Health and metrics routes
	s.router.GET("/health", healthHandler.Check)
	s.router.GET("/metrics", metricsHandler.Metrics)
}
