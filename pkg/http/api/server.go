package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"

	"golang.org/x/net/netutil"

	"github.com/aquasecurity/bandit-adapter/pkg/etc"
)

type Server struct {
	config etc.API
	server *http.Server
}

func NewServer(config etc.API, handler http.Handler) *Server {
	return &Server{
		config: config,
		server: &http.Server{
			Handler:      handler,
			Addr:         config.Addr,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

func (s *Server) ListenAndServe() {
	go func() {
		if err := s.listenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Error", slog.String("err", err.Error()))
			os.Exit(1)
		}
		slog.Debug("API server stopped listening for incoming connections")
	}()
}

func (s *Server) listenAndServe() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	if s.config.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, s.config.MaxConnections)
	}

	slog.Info("Starting API server",
		slog.String("addr", s.config.Addr),
		slog.Int("max_connections", s.config.MaxConnections),
	)
	return s.server.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) {
	slog.Debug("API server shutdown started")
	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("Error while shutting down API server", slog.String("err", err.Error()))
	}
	slog.Debug("API server shutdown completed")
}
