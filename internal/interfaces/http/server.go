// Package http provides the HTTP adapter for the application layer. It is a
// thin translation layer: requests become service calls, engine errors
// become status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hypervisual/finance-workflow/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config          ServerConfig
	httpServer      *http.Server
	router          *gin.Engine
	approvalService service.ApprovalService
	documentService service.DocumentService
	summaryService  service.SummaryService
	tokens          *TokenManager
	logger          Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	approvalService service.ApprovalService,
	documentService service.DocumentService,
	summaryService service.SummaryService,
	tokens *TokenManager,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:          config,
		router:          gin.New(),
		approvalService: approvalService,
		documentService: documentService,
		summaryService:  summaryService,
		tokens:          tokens,
		logger:          logger,
	}

	server.setupMiddleware()
	server.setupRoutes()
	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.approvalService, s.documentService, s.summaryService, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	api.Use(authMiddleware(s.tokens, s.logger))
	{
		api.POST("/documents", handlers.CreateDocument)
		api.GET("/documents", handlers.ListDocuments)
		api.GET("/documents/:id", handlers.GetDocument)
		api.GET("/documents/:id/audit", handlers.GetAuditTrail)
		api.GET("/documents/:id/classify", handlers.ClassifyDocument)

		api.POST("/documents/:id/submit", handlers.SubmitDocument)
		api.POST("/documents/:id/validate", handlers.ValidateDocument)
		api.POST("/documents/:id/reject", handlers.RejectDocument)
		api.POST("/documents/:id/payment", handlers.SchedulePayment)
		api.POST("/documents/:id/paid", handlers.MarkPaid)
		api.POST("/documents/:id/dispute", handlers.DisputeDocument)

		api.POST("/import", handlers.ImportDocuments)
		api.GET("/summary", handlers.GetSummary)
	}
}

// Router exposes the configured handler, primarily for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
