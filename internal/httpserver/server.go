package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/hanko-docs/internal/platform/httpx"
	"finitefield.org/hanko-docs/internal/platform/observability"
)

const defaultRequestTimeout = 60 * time.Second

// Config holds runtime options for the documentation HTTP server.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// Pages answers every path not claimed by an operational route.
	Pages http.Handler
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
	Logger  *zap.Logger
}

// New constructs the HTTP server with its middleware stack.
func New(cfg Config) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      NewRouter(cfg),
		ReadTimeout:  durationOr(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 120*time.Second),
	}
}

// NewRouter builds the chi router shared by New and tests.
func NewRouter(cfg Config) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(observability.RequestIDMiddleware())
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLoggerMiddleware(logger))
	router.Use(observability.TraceMiddleware())
	router.Use(observability.RequestLoggerMiddleware())
	router.Use(observability.RecoveryMiddleware(logger))
	router.Use(chimw.Compress(5))
	router.Use(chimw.Timeout(defaultRequestTimeout))

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteStatus(w, http.StatusNotFound)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteStatus(w, http.StatusMethodNotAllowed)
	})

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.Pages != nil {
		router.Handle("/*", cfg.Pages)
	}

	return router
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
