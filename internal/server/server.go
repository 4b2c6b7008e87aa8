// Package server provides the HTTP API for Gazo.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/gazo/internal/config"
	"github.com/hyperjump/gazo/internal/search"
	"github.com/hyperjump/gazo/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Server is the HTTP server for the Gazo API.
type Server struct {
	engine  *search.Engine
	store   storage.EmbeddingStore
	config  *config.Config
	logger  *zap.Logger
	limiter *rate.Limiter
	server  *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil
// when the embedding cache is disabled.
func NewServer(
	engine *search.Engine,
	store storage.EmbeddingStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		store:  store,
		config: cfg,
		logger: logger,
	}
	if cfg.Server.SearchRateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.SearchRateLimit), max(cfg.Server.SearchBurst, 1))
	}
	return s
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get("/image/{key}", s.handleImage)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/directories", s.handleDirectories)
		r.Post("/reindex", s.handleReindex)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Compress(5))
			r.Use(s.rateLimit)
			r.Post("/search", s.handleSearch)
			r.Get("/search/image/{key}", s.handleSearchByKey)
			r.Post("/search/image", s.handleSearchByUpload)
			r.Get("/search/filename", s.handleSearchByFilename)
		})
	})
	return r
}

// rateLimit rejects search requests beyond the configured token bucket.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			s.respondError(w, http.StatusTooManyRequests, "too many search requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
