// Package http provides the HTTP server exposing metrics, status, and the
// published price summary.
package http

import (
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fuelwatch/fuelwatch/internal/coordinator"
	"github.com/fuelwatch/fuelwatch/internal/scheduler"
	"github.com/fuelwatch/fuelwatch/internal/store"
)

// Server represents the HTTP server for the watcher's endpoints.
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(addr string, coord *coordinator.Coordinator, sched *scheduler.Scheduler, st store.Store, instance string, reg prometheus.Gatherer, logger zerolog.Logger) *Server {
	log := logger.With().Str("component", "http").Logger()
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/status", NewStatusHandler(coord, sched, st, instance))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("writing health response")
		}
	})
	mux.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
		summary := coord.Summary()
		if summary == nil {
			http.Error(w, "no summary available yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summary); err != nil {
			log.Error().Err(err).Msg("encoding summary response")
		}
	})
	mux.HandleFunc("/refresh-stations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		// An explicit instance parameter scopes the request; a mismatch means
		// the caller is talking to the wrong deployment.
		if target := r.URL.Query().Get("instance"); target != "" && target != instance {
			http.Error(w, "unknown instance", http.StatusNotFound)
			return
		}
		coord.ForceStationsRefresh()
		if sched != nil {
			sched.Trigger()
		}
		log.Info().Msg("station refresh requested")
		w.WriteHeader(http.StatusAccepted)
	})

	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: log,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
