// Package httpapi exposes the pipeline over HTTP: cached read views for the
// dashboard UI, trigger endpoints for the non-idempotent operations, and the
// Prometheus and websocket monitoring surfaces.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/config"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/metrics"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/service"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// requestTimeout bounds handler execution for API routes.
const requestTimeout = 10 * time.Second

// Server is the HTTP front of the application.
type Server struct {
	router   *mux.Router
	server   *http.Server
	svc      *service.Service
	registry *metrics.Registry
	limiter  *rate.Limiter
	cfg      config.ServerConfig
}

// NewServer builds the router and HTTP server around the service facade.
func NewServer(cfg config.ServerConfig, svc *service.Service, registry *metrics.Registry) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		svc:      svc,
		registry: registry,
		cfg:      cfg,
	}

	if cfg.RateLimitEnabled && cfg.MaxRequests > 0 && cfg.WindowSec > 0 {
		perSecond := rate.Limit(float64(cfg.MaxRequests) / float64(cfg.WindowSec))
		s.limiter = rate.NewLimiter(perSecond, cfg.MaxRequests)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSec) * time.Second,
	}
	return s
}

// Router exposes the configured router for tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.registry.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/metrics", s.handleMetricsWS).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.rateLimitMiddleware)
	api.Use(s.timeoutMiddleware)
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/sources/{source}", s.handleSourceDetail).Methods(http.MethodGet)
	api.HandleFunc("/sources/{source}/collect", s.handleCollect).Methods(http.MethodPost)
	api.HandleFunc("/system/monitoring", s.handleMonitoring).Methods(http.MethodGet)
	api.HandleFunc("/review/submit", s.handleReview).Methods(http.MethodPost)
	api.HandleFunc("/export/report", s.handleExport).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.registry.HTTPRequests.WithLabelValues(route, fmt.Sprintf("%d", wrapper.statusCode)).Inc()

		log.Info().
			Str("request_id", fmt.Sprint(r.Context().Value(requestIDKey))).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("Request handled")
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// responseWrapper captures the status code for logging and metrics.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
