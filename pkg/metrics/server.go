package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aquasecurity/bandit-adapter/pkg/etc"
)

type Server struct {
	cfg    etc.Metrics
	server *http.Server
}

func NewServer(cfg etc.Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Endpoint, promhttp.Handler())
	return &Server{
		cfg: cfg,
		server: &http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
		},
	}
}

func (s *Server) ListenAndServe() {
	go func() {
		if err := s.listenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Error", slog.String("err", err.Error()))
			os.Exit(1)
		}
		slog.Debug("Metrics server stopped listening for incoming connections")
	}()
}

func (s *Server) listenAndServe() error {
	slog.Warn("Starting metrics server without TLS",
		slog.String("addr", s.cfg.Addr),
		slog.String("endpoint", s.cfg.Endpoint),
	)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) {
	slog.Debug("Metrics server shutdown started")
	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("Error while shutting down metrics server", slog.String("err", err.Error()))
	}
	slog.Debug("Metrics server shutdown completed")
}
