// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/jobcheck/internal/artifacts"
	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/internal/infrastructure"
	"github.com/JaimeStill/jobcheck/pkg/auth"
	"github.com/JaimeStill/jobcheck/pkg/middleware"
	"github.com/JaimeStill/jobcheck/pkg/module"
)

// Module is the mounted API module together with the domain it serves.
type Module struct {
	*module.Module
	domain  *Domain
	runtime *Runtime
	train   bool
}

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime, cfg)

	verifier, err := auth.New(infra.Lifecycle.Context(), &cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}
	if verifier == nil {
		runtime.Logger.Warn("authentication disabled, admin endpoints are unreachable")
	}

	mux := http.NewServeMux()
	patterns, err := registerRoutes(mux, domain, cfg, runtime)
	if err != nil {
		return nil, fmt.Errorf("openapi spec: %w", err)
	}
	runtime.Logger.Debug("routes registered", "base_path", cfg.API.BasePath, "count", len(patterns), "patterns", patterns)

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, err
	}
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(auth.Authenticate(verifier, runtime.Logger.With("middleware", "auth")))

	return &Module{
		Module:  m,
		domain:  domain,
		runtime: runtime,
		train:   cfg.Model.TrainOnStartup,
	}, nil
}

// Bootstrap loads the active model. When none exists and training on
// startup is enabled, it trains and activates a first version.
func (m *Module) Bootstrap(ctx context.Context) error {
	logger := m.runtime.Logger.With("stage", "bootstrap")

	snap, err := m.runtime.Models.Reload(ctx)
	if err == nil {
		logger.Info("active model loaded", "version", snap.Version, "model", snap.Metadata.ModelName)
		return nil
	}
	if !errors.Is(err, artifacts.ErrNoActiveVersion) {
		return fmt.Errorf("preload model: %w", err)
	}
	if !m.train {
		logger.Warn("no active model, predictions unavailable until one is trained")
		return nil
	}

	logger.Info("no active model, training first version")
	md, err := m.domain.Models.Retrain(ctx, "startup")
	if err != nil {
		return fmt.Errorf("startup training: %w", err)
	}

	logger.Info("startup model active", "version", md.Version, "model", md.ModelName, "f1_score", md.F1)
	return nil
}
