package api

import (
	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/internal/predictions"
	"github.com/JaimeStill/jobcheck/internal/registry"
	"github.com/JaimeStill/jobcheck/internal/retrain"
	"github.com/JaimeStill/jobcheck/internal/training"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Predictions predictions.System
	Models      retrain.System
	Registry    registry.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime, cfg *config.Config) *Domain {
	registrySystem := registry.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	service := predictions.NewService(
		runtime.Normalizer,
		runtime.Models,
		cfg.Model.FallbackConfidence,
		runtime.Logger,
	)

	predictionsSystem := predictions.New(
		service,
		predictions.NewRecorder(runtime.Database.Connection(), runtime.Logger),
		runtime.Logger,
		runtime.Pagination,
	)

	modelsSystem := retrain.New(
		training.New(runtime.Normalizer, cfg.Model.TrainingOptions(), runtime.Logger),
		retrain.Dataset{
			Path:      cfg.Model.DatasetPath,
			Synthetic: cfg.Model.SyntheticOptions(),
		},
		runtime.Artifacts,
		runtime.Models,
		registrySystem,
		runtime.Logger,
	)

	return &Domain{
		Predictions: predictionsSystem,
		Models:      modelsSystem,
		Registry:    registrySystem,
	}
}
