// Package api - Thin, deterministic API layer
// The API is ONLY responsible for: input ingestion, engine orchestration, output serialization.
// The API NEVER performs cost logic.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"move-quote/internal/logging"
)

// Server timeouts
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
)

// Deps are the collaborators a server needs
type Deps struct {
	Quoter   Quoter
	Settings SettingsService
	Catalog  Resolver
	Version  string
	Logger   *zap.Logger

	// Now defaults to time.Now; only /health reads it
	Now func() time.Time
}

// Server is the API server
type Server struct {
	handler *Handler
	router  chi.Router
	logger  *zap.Logger
}

// NewServer creates a new API server
func NewServer(deps Deps) (*Server, error) {
	if deps.Quoter == nil || deps.Settings == nil || deps.Catalog == nil {
		return nil, errors.New("api: quoter, settings and catalog are required")
	}
	logger := logging.OrNop(deps.Logger)
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		handler: &Handler{
			quoter:   deps.Quoter,
			settings: deps.Settings,
			catalog:  deps.Catalog,
			version:  deps.Version,
			logger:   logger,
			now:      now,
		},
		logger: logger,
	}
	s.router = s.routes()
	return s, nil
}

// routes registers all API routes
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/quotes", s.handler.handleQuote)
		r.Get("/settings", s.handler.handleSettings)
		r.Post("/settings/reload", s.handler.handleReload)
		r.Get("/catalog/resolve", s.handler.handleResolve)
	})

	// Supporting endpoints
	r.Get("/health", s.handler.handleHealth)
	r.Get("/version", s.handler.handleVersion)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, RequestIDFromContext(r.Context()), ErrorDetail{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path}, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, RequestIDFromContext(r.Context()), ErrorDetail{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " not allowed on " + r.URL.Path}, http.StatusMethodNotAllowed)
	})
	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: DefaultReadTimeout,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	s.logger.Info("api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
