package api

import (
	"net/http"

	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/pkg/routes"
)

// registerRoutes mounts every handler group on mux and returns the
// registered patterns for startup logging.
func registerRoutes(mux *http.ServeMux, domain *Domain, cfg *config.Config, runtime *Runtime) ([]string, error) {
	spec, err := openAPIRoutes(cfg)
	if err != nil {
		return nil, err
	}

	groups := []routes.Group{
		domain.Predictions.Handler(runtime.BodyLimit).Routes(),
		domain.Models.Handler(cfg.Auth.AdminRole).Routes(),
		domain.Registry.Handler().Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger, cfg.Auth.AdminRole).routes(),
		spec,
	}

	routes.Register(mux, groups...)
	return routes.Patterns(groups...), nil
}
