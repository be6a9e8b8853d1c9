package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"bookkeeper/internal/book"
	"bookkeeper/internal/config"
	"bookkeeper/internal/database"
	"bookkeeper/internal/httpx"
	"bookkeeper/internal/logging"
	"bookkeeper/internal/webui"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20 // 1 MiB

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	store, err := database.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("bootstrap failed", "error", err)
	}
	defer store.Close()

	service := book.NewService(newRepository(store))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newHandler(service, store, logger, registry),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Infow("starting server", "addr", cfg.Addr, "backend", store.Backend(), "environment", cfg.Environment)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("server error", "error", err)
	}
}

// newRepository picks the repository implementation matching the backend
// the bootstrap selected.
func newRepository(store *database.Store) book.Repository {
	if store.Backend() == database.BackendPostgres {
		return book.NewPostgresRepo(store.Pool())
	}
	return book.NewSQLiteRepo(store.DB())
}

// newHandler wires the routes and the middleware chain. The request ID
// middleware sits outermost so logs and error bodies can reference it.
func newHandler(service *book.Service, store *database.Store, logger *zap.SugaredLogger, registry *prometheus.Registry) http.Handler {
	bookHandler := book.NewHTTPHandler(service)

	router := http.NewServeMux()

	router.HandleFunc("GET /{$}", apiInfo)
	router.HandleFunc("GET /health", healthCheck(store))
	router.HandleFunc("GET /healthz", healthCheck(store))
	router.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Handle("GET /ui/", http.StripPrefix("/ui", webui.Handler()))

	router.HandleFunc("GET /books", bookHandler.List)
	router.HandleFunc("GET /books/{$}", bookHandler.List)
	router.HandleFunc("GET /books/search", bookHandler.Search)
	router.HandleFunc("GET /books/{id}", bookHandler.Get)
	router.HandleFunc("POST /books", bookHandler.Create)
	router.HandleFunc("POST /books/{$}", bookHandler.Create)
	router.HandleFunc("PUT /books/{id}", bookHandler.Update)
	router.HandleFunc("PATCH /books/{id}", bookHandler.Patch)
	router.HandleFunc("DELETE /books/{id}", bookHandler.Delete)

	metrics := httpx.NewMetrics(registry)

	var handler http.Handler = router
	handler = httpx.RequestSizeLimitMiddleware(maxRequestBytes)(handler)
	handler = httpx.SecurityHeadersMiddleware(handler)
	handler = httpx.RecoveryMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)
	handler = httpx.AccessLogMiddleware(logger)(handler)
	handler = httpx.RequestIDMiddleware(handler)
	return handler
}

// healthCheck reports liveness plus whether the backend still answers. The
// endpoint itself stays 200 either way; database reachability is in the
// body.
func healthCheck(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		databaseStatus := "connected"
		if err := store.Ping(ctx); err != nil {
			databaseStatus = "disconnected"
		}
		httpx.JSON(w, http.StatusOK, map[string]string{
			"status":   "healthy",
			"database": databaseStatus,
		})
	}
}

func apiInfo(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Book Management API",
		"books":   "/books/",
		"health":  "/health",
		"ui":      "/ui/",
	})
}
