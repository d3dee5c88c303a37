package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HealthHandler serves GET /health (200 when healthy, 503 otherwise) and GET /stats.
func (s *Server) HealthHandler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/stats", s.handleStats).Methods("GET")
	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.HealthStatus()
	code := http.StatusOK
	if health.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Stats())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// startHealthServer listens on addr in the background. A listener failure
// is reported as fatal.
func (s *Server) startHealthServer(addr string) *http.Server {
	logger := s.logger.Named("health")
	srv := &http.Server{
		Handler:           s.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen for health checks", zap.String("addr", addr), zap.Error(err))
		s.ReportFatal(err)
		return nil
	}
	logger.Info("serving health checks", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", zap.Error(err))
			s.ReportFatal(err)
		}
	}()
	return srv
}

func (s *Server) stopHealthServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Named("health").Warn("failed to stop health server", zap.Error(err))
	}
}
