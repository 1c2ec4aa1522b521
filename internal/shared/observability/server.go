package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status  string `json:"status"`
	Modules int    `json:"modules"`
	Uptime  string `json:"uptime"`
}

// Server exposes prometheus metrics and a health probe on a side port so
// stdout stays reserved for the editor protocol.
type Server struct {
	addr        string
	moduleCount func() int
	started     time.Time
	server      *http.Server
}

func NewServer(addr string, moduleCount func() int) *Server {
	return &Server{
		addr:        addr,
		moduleCount: moduleCount,
	}
}

func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := HealthStatus{
			Status: "up",
			Uptime: time.Since(s.started).Round(time.Second).String(),
		}
		if s.moduleCount != nil {
			status.Modules = s.moduleCount()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	s.started = time.Now()
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
