package main

import (
	"github.com/JaimeStill/jobcheck/internal/api"
	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/internal/infrastructure"
	"github.com/JaimeStill/jobcheck/pkg/lifecycle"
	"github.com/JaimeStill/jobcheck/pkg/module"
)

// Modules holds the HTTP modules mounted on the root router.
type Modules struct {
	API *api.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

// Router mounts every module and the health endpoints. The database is
// not a readiness check: predictions are served while it is unreachable.
func (m *Modules) Router(infra *infrastructure.Infrastructure) (*module.Router, error) {
	router := module.NewRouter()
	router.Health(map[string]lifecycle.ReadinessChecker{
		"startup": infra.Lifecycle,
		"model":   infra.Models,
	})

	if err := router.Mount(m.API.Module); err != nil {
		return nil, err
	}
	return router, nil
}
