package main

import (
	"time"

	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/internal/infrastructure"
)

// Server owns the infrastructure, the mounted modules and the listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router, err := modules.Router(infra)
	if err != nil {
		return nil, err
	}

	infra.Logger.Info("server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"base_path", cfg.API.BasePath,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start registers infrastructure hooks and begins listening. Model
// bootstrap runs in the background once startup hooks have returned;
// until then /readyz reports not ready.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go s.bootstrap()
	return nil
}

func (s *Server) bootstrap() {
	lc := s.infra.Lifecycle

	if err := lc.WaitForStartup(); err != nil {
		s.infra.Logger.Warn("startup completed with failures", "error", err)
	} else {
		s.infra.Logger.Info("all subsystems ready")
	}

	if err := s.modules.API.Bootstrap(lc.Context()); err != nil {
		s.infra.Logger.Error("model bootstrap failed", "error", err)
	}
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
