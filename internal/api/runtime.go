package api

import (
	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/internal/infrastructure"
	"github.com/JaimeStill/jobcheck/pkg/pagination"
)

// Runtime is the infrastructure as the API module sees it: logs tagged
// module=api plus the request bounds from the api config section.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	BodyLimit  int64
}

func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: infra.Scoped("api"),
		Pagination:     cfg.API.Pagination,
		BodyLimit:      cfg.API.MaxRequestSizeBytes(),
	}
}
