// Package api exposes GridPay over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opensource-finance/gridpay/internal/domain"
	"github.com/opensource-finance/gridpay/internal/engine"
	"github.com/opensource-finance/gridpay/internal/extract"
	"github.com/opensource-finance/gridpay/internal/process"
	"github.com/opensource-finance/gridpay/internal/stats"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server. extractor may be nil; upload
// processing then answers 503.
func NewServer(
	cfg domain.ServerConfig,
	repo domain.Repository,
	cache domain.Cache,
	bus domain.EventBus,
	eng *engine.Engine,
	processor *process.Processor,
	extractor extract.Extractor,
	tracker *stats.Tracker,
	resultTTL time.Duration,
	version string,
) *Server {
	handler := NewHandler(repo, cache, bus, eng, processor, extractor, tracker, resultTTL, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoint
	router.Get("/health", handler.Health)

	// API routes
	router.Route("/api/v1", func(r chi.Router) {
		// Batch processing
		r.Post("/process", handler.Process)
		r.Post("/process/upload", handler.ProcessUpload)

		// Batch export
		r.Get("/batches/{batchID}/export", handler.ExportBatch)

		// Table management
		r.Get("/tables", handler.ListTables)
		r.Get("/tables/active", handler.GetActiveTable)
		r.Post("/tables", handler.CreateTable)

		// Company stats
		r.Get("/stats/{company}", handler.CompanyStats)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
