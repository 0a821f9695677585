// Package api serves decoded DBC tables over a read-only REST API.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the HTTP routes for the server. gatherer backs the
// /metrics endpoint.
func (s *Server) Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.config.APIKey))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/stats", s.metrics.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))
		r.Post("/reload", s.metrics.InstrumentHandler("POST", "/api/v1/reload", s.handleReload))

		r.Get("/tables", s.metrics.InstrumentHandler("GET", "/api/v1/tables", s.handleListTables))
		r.Get("/tables/{name}", s.metrics.InstrumentHandler("GET", "/api/v1/tables/{name}", s.handleGetTable))
		r.Get("/tables/{name}/records",
			s.metrics.InstrumentHandler("GET", "/api/v1/tables/{name}/records", s.handleListRecords))
		r.Get("/tables/{name}/records/{id}",
			s.metrics.InstrumentHandler("GET", "/api/v1/tables/{name}/records/{id}", s.handleGetRecord))
	})

	return r
}

// NewRegistry returns a registry with the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return registry
}

// StartServer serves the API until ctx is cancelled, then shuts down
// gracefully. metrics must be registered with registry.
func StartServer(ctx context.Context, tables ITableStore, config ServerConfig, metrics *Metrics, registry *prometheus.Registry) error {
	server := NewServer(tables, config, metrics)

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting dbcdb REST API server on %s", addr)
		log.Printf("Metrics available at: http://%s/metrics", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Printf("Shutting down dbcdb REST API server")
	return httpServer.Shutdown(shutdownCtx)
}
