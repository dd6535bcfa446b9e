// Package infrastructure wires the systems shared by every module: the
// lifecycle coordinator, logging, the database pool, blob storage and the
// model stack built on top of storage.
package infrastructure

import (
	"fmt"
	"log/slog"

	"github.com/JaimeStill/jobcheck/internal/artifacts"
	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/internal/serving"
	"github.com/JaimeStill/jobcheck/pkg/database"
	"github.com/JaimeStill/jobcheck/pkg/lifecycle"
	"github.com/JaimeStill/jobcheck/pkg/storage"
	"github.com/JaimeStill/jobcheck/pkg/textnorm"
)

// Infrastructure is constructed once per process and shared by value of
// its pointers; Scoped copies it with a narrower logger.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Database   database.System
	Storage    storage.System
	Normalizer *textnorm.Normalizer
	Artifacts  *artifacts.Store
	Models     *serving.Cache
}

// New constructs every system without starting any of them.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := cfg.Logging.NewLogger(nil).With("version", cfg.Version)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	arts := artifacts.New(store, logger)
	stopWords := textnorm.LoadStopWords(cfg.Model.StopWordsPath, logger)

	return &Infrastructure{
		Lifecycle:  lifecycle.New(logger),
		Logger:     logger,
		Database:   db,
		Storage:    store,
		Normalizer: textnorm.New(stopWords),
		Artifacts:  arts,
		Models:     serving.New(arts, logger),
	}, nil
}

// Scoped returns a copy whose logger carries module=name. The systems
// themselves are shared.
func (i *Infrastructure) Scoped(name string) *Infrastructure {
	scoped := *i
	scoped.Logger = i.Logger.With("module", name)
	return &scoped
}

// Start registers the startup and shutdown hooks of the database and
// storage systems. The hooks run on the lifecycle, not here.
func (i *Infrastructure) Start() error {
	systems := []struct {
		name  string
		start func(*lifecycle.Coordinator) error
	}{
		{"database", i.Database.Start},
		{"storage", i.Storage.Start},
	}
	for _, s := range systems {
		if err := s.start(i.Lifecycle); err != nil {
			return fmt.Errorf("%s start failed: %w", s.name, err)
		}
	}
	return nil
}
