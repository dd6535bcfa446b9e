package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/pkg/lifecycle"
)

// httpServer binds the listener synchronously so address errors surface
// from Start, then serves in the background until the lifecycle stops it.
type httpServer struct {
	srv    *http.Server
	logger *slog.Logger
	drain  time.Duration
	addr   string
}

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger) *httpServer {
	logger = logger.With("system", "http")
	return &httpServer{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeoutDuration(),
			ReadHeaderTimeout: cfg.ReadHeaderTimeoutDuration(),
			WriteTimeout:      cfg.WriteTimeoutDuration(),
			IdleTimeout:       cfg.IdleTimeoutDuration(),
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger: logger,
		drain:  cfg.ShutdownTimeoutDuration(),
	}
}

func (s *httpServer) Start(lc *lifecycle.Coordinator) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	s.addr = ln.Addr().String()

	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	lc.OnShutdown("http", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.drain)
		defer cancel()

		s.logger.Info("draining connections", "timeout", s.drain)
		if err := s.srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("drain: %w", err)
		}
		s.logger.Info("server shutdown complete")
		return nil
	})

	return nil
}

// Addr returns the bound listener address once Start has succeeded.
func (s *httpServer) Addr() string {
	return s.addr
}
