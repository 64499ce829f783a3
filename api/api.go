// Package api serves the read-only HTTP API over persisted reports:
// fleet summary, per-host latest reports and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"talos/config"
	"talos/storage"
)

// Server wraps the HTTP server and its routes.
type Server struct {
	store  *storage.ReportStore
	logger *zap.SugaredLogger
	srv    *http.Server
}

// NewServer builds the router and server. Start actually listens.
func NewServer(cfg config.APIConfig, store *storage.ReportStore, logger *zap.SugaredLogger) *Server {
	s := &Server{store: store, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/hosts", s.handleHosts).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/hosts/{host}/report", s.handleHostReport).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/fleet/summary", s.handleFleetSummary).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Infow("API listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHosts(w http.ResponseWriter, r *http.Request) {
	hosts, err := s.store.Hosts()
	if err != nil {
		s.internalError(w, "failed to list hosts", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"hosts": hosts})
}

func (s *Server) handleHostReport(w http.ResponseWriter, r *http.Request) {
	host := mux.Vars(r)["host"]
	report, err := s.store.LatestReport(host)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report for host"})
		return
	}
	if err != nil {
		s.internalError(w, "failed to load report", err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleFleetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summary()
	if err != nil {
		s.internalError(w, "failed to summarize fleet", err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warnw("failed to encode response", "error", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Errorw(msg, "error", err)
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}
