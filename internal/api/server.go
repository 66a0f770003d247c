// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/defibrain/advisory-engine/internal/service"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Service interfaces for dependency injection and testing

// DashboardServiceInterface defines the interface for dashboard operations
type DashboardServiceInterface interface {
	View(ctx context.Context, address string) (*service.DashboardView, error)
	Refresh(ctx context.Context, address string) (*service.DashboardView, error)
}

// AdvisoryHealthChecker reports whether the advisory service is reachable
type AdvisoryHealthChecker interface {
	CheckHealth(ctx context.Context) bool
}

// ChatServiceFactory creates a chat service for a new session
type ChatServiceFactory func() *service.ChatService

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	dashboard  DashboardServiceInterface
	advisory   AdvisoryHealthChecker
	sessions   *chatSessionStore
	config     *ServerConfig
	logger     *zap.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	dashboard DashboardServiceInterface,
	advisory AdvisoryHealthChecker,
	chatFactory ChatServiceFactory,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		dashboard: dashboard,
		advisory:  advisory,
		sessions:  newChatSessionStore(chatFactory),
		config:    config,
		logger:    logger.Named("api"),
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// Set up middleware (order matters!)
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// API v1 routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Dashboard endpoints
	api.HandleFunc("/dashboard/{address}", s.handleGetDashboard).Methods("GET")
	api.HandleFunc("/refresh/{address}", s.handleRefresh).Methods("POST")
	api.HandleFunc("/insights/{address}", s.handleGetInsights).Methods("GET")
	api.HandleFunc("/metrics/{address}", s.handleGetMetrics).Methods("GET")
	api.HandleFunc("/confidence/{address}", s.handleGetConfidence).Methods("GET")

	// Chat endpoints
	api.HandleFunc("/chat", s.handleChat).Methods("POST")
	api.HandleFunc("/chat/{sessionId}/history", s.handleChatHistory).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "healthy",
		"service":           "advisory-engine",
		"advisoryReachable": s.advisory.CheckHealth(ctx),
	})
}

// Router exposes the configured router, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
