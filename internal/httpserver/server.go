package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-holder-cache/internal/cache/service"
	"go-holder-cache/internal/config"
	"go-holder-cache/internal/leaderboard"
	"go-holder-cache/internal/ratelimit"
)

// Server is the public HTTP surface over the cache service.
type Server struct {
	cacheService *service.CacheService
	assembler    *leaderboard.Service
	namespaces   config.NamespacesConfig
	limiter      *ratelimit.Limiter // nil => rate limiting disabled
	clock        clock.Clock
	logger       *zap.Logger

	server        *http.Server
	metricsServer *http.Server
}

// NewServer creates the HTTP server.
func NewServer(cacheService *service.CacheService, assembler *leaderboard.Service, namespaces config.NamespacesConfig, limiter *ratelimit.Limiter, clk clock.Clock, logger *zap.Logger) *Server {
	return &Server{
		cacheService: cacheService,
		assembler:    assembler,
		namespaces:   namespaces,
		limiter:      limiter,
		clock:        clk,
		logger:       logger,
	}
}

// Start serves the public API on addr. Blocks until the server stops.
func (s *Server) Start(addr string, cfg config.ServerConfig) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.createRouter(),
		ReadTimeout:  cfg.ReadTimeout.Std(),
		WriteTimeout: cfg.WriteTimeout.Std(),
		IdleTimeout:  cfg.IdleTimeout.Std(),
	}
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// StartMetrics serves prometheus metrics on a separate listener.
func (s *Server) StartMetrics(addr string) error {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.metricsServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting metrics server", zap.String("addr", addr))
	return s.metricsServer.ListenAndServe()
}

// Stop shuts both servers down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	if s.metricsServer != nil {
		_ = s.metricsServer.Shutdown(ctx)
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the configured router, for tests.
func (s *Server) Handler() http.Handler {
	return s.createRouter()
}

// createRouter creates and configures the HTTP router.
func (s *Server) createRouter() *mux.Router {
	router := mux.NewRouter()

	public := router.NewRoute().Subrouter()
	if s.limiter != nil {
		public.Use(rateLimitMiddleware(s.limiter, s.logger))
	}

	public.HandleFunc("/holders", s.handleHolders).Methods("GET")
	public.HandleFunc("/holders/updates", s.handleHolderUpdates).Methods("GET")
	public.HandleFunc("/profile/{username}", s.handleProfile).Methods("GET")
	public.HandleFunc("/wallet/{address}", s.handleWallet).Methods("GET")
	public.HandleFunc("/wallet/{address}/updates", s.handleWalletUpdates).Methods("GET")

	// Ops surface: force-eviction and refresh-task visibility.
	router.HandleFunc("/admin/invalidate", s.handleInvalidate).Methods("POST")
	router.HandleFunc("/admin/clear", s.handleClearAll).Methods("POST")
	router.HandleFunc("/admin/task", s.handleTask).Methods("GET")

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, map[string]interface{}{
		"status": "healthy",
		"time":   s.clock.Now().UTC(),
	})
}

// parseRequest parses a JSON request body.
func (s *Server) parseRequest(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeResponse writes a JSON response.
func (s *Server) writeResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeJSONError writes an error response.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
