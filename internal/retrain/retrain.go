// Package retrain orchestrates a full retrain: train, persist, activate and
// reload. A failure at any step leaves the previously active model serving.
package retrain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/jobcheck/internal/artifacts"
	"github.com/JaimeStill/jobcheck/internal/registry"
	"github.com/JaimeStill/jobcheck/internal/serving"
	"github.com/JaimeStill/jobcheck/internal/training"
)

// Store is the artifact store a retrain writes to.
type Store interface {
	Persist(ctx context.Context, out *training.Outcome, trainedBy string) (*artifacts.Metadata, error)
	Activate(ctx context.Context, version string) (*artifacts.Marker, error)
	ActiveVersion(ctx context.Context) (*artifacts.Marker, error)
	RestoreActive(ctx context.Context, marker *artifacts.Marker) error
	Metadata(ctx context.Context, version string) (*artifacts.Metadata, error)
	List(ctx context.Context) ([]artifacts.Metadata, error)
}

// Reloader swaps the served model after activation.
type Reloader interface {
	Reload(ctx context.Context) (*serving.Snapshot, error)
	Current() *serving.Snapshot
}

// Registrar records activated versions. It is optional.
type Registrar interface {
	Register(ctx context.Context, cmd registry.RegisterCommand) (*registry.ModelVersion, error)
	SetActive(ctx context.Context, version string) error
}

// Dataset locates the training corpus.
type Dataset struct {
	Path      string
	Synthetic training.SyntheticOptions
}

// ActiveModel describes the version named by the active marker.
type ActiveModel struct {
	artifacts.Metadata
	ActivatedAt time.Time `json:"activated_at"`
	Loaded      bool      `json:"loaded"`
}

// System defines the public contract for model lifecycle operations.
type System interface {
	Handler(adminRole string) *Handler

	Retrain(ctx context.Context, actor string) (*artifacts.Metadata, error)
	Activate(ctx context.Context, version, actor string) (*artifacts.Metadata, error)
	Versions(ctx context.Context) ([]artifacts.Metadata, error)
	Version(ctx context.Context, version string) (*artifacts.Metadata, error)
	Active(ctx context.Context) (*ActiveModel, error)
}

type system struct {
	pipeline  *training.Pipeline
	dataset   Dataset
	store     Store
	cache     Reloader
	registrar Registrar
	logger    *slog.Logger
	running   sync.Mutex
}

// New creates the retrain system. registrar may be nil.
func New(
	pipeline *training.Pipeline,
	dataset Dataset,
	store Store,
	cache Reloader,
	registrar Registrar,
	logger *slog.Logger,
) System {
	return &system{
		pipeline:  pipeline,
		dataset:   dataset,
		store:     store,
		cache:     cache,
		registrar: registrar,
		logger:    logger.With("system", "retrain"),
	}
}

func (s *system) Handler(adminRole string) *Handler {
	return NewHandler(s, s.logger, adminRole)
}

// Retrain trains on the configured dataset, persists the result as a new
// version and activates it. Only one retrain or activation runs at a time.
func (s *system) Retrain(ctx context.Context, actor string) (*artifacts.Metadata, error) {
	if !s.running.TryLock() {
		return nil, ErrRetrainInProgress
	}
	defer s.running.Unlock()

	start := time.Now()
	s.logger.InfoContext(ctx, "retrain started", "actor", actor)

	rows, err := training.LoadDataset(s.dataset.Path, s.dataset.Synthetic, s.logger)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	out, err := s.pipeline.Run(ctx, rows)
	if err != nil {
		s.logger.ErrorContext(ctx, "retrain failed", "stage", "train", "error", err)
		return nil, err
	}

	// Once a model is trained, finish the commit even if the caller goes away.
	commit := context.WithoutCancel(ctx)

	md, err := s.store.Persist(commit, out, actor)
	if err != nil {
		s.logger.ErrorContext(ctx, "retrain failed", "stage", "persist", "error", err)
		return nil, err
	}

	if err := s.swap(commit, md.Version); err != nil {
		return nil, err
	}

	s.register(commit, md, actor)

	s.logger.InfoContext(ctx, "retrain complete",
		"version", md.Version,
		"model", md.ModelName,
		"f1_score", md.F1,
		"duration", time.Since(start),
	)
	return md, nil
}

// Activate points serving at an existing version.
func (s *system) Activate(ctx context.Context, version, actor string) (*artifacts.Metadata, error) {
	if !s.running.TryLock() {
		return nil, ErrRetrainInProgress
	}
	defer s.running.Unlock()

	md, err := s.store.Metadata(ctx, version)
	if err != nil {
		return nil, err
	}

	if err := s.swap(ctx, version); err != nil {
		return nil, err
	}

	if s.registrar != nil {
		if err := s.registrar.SetActive(ctx, version); err != nil {
			s.logger.WarnContext(ctx, "registry not updated", "version", version, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "model version activated", "version", version, "actor", actor)
	return md, nil
}

func (s *system) Versions(ctx context.Context) ([]artifacts.Metadata, error) {
	return s.store.List(ctx)
}

func (s *system) Version(ctx context.Context, version string) (*artifacts.Metadata, error) {
	return s.store.Metadata(ctx, version)
}

func (s *system) Active(ctx context.Context) (*ActiveModel, error) {
	marker, err := s.store.ActiveVersion(ctx)
	if err != nil {
		return nil, err
	}

	md, err := s.store.Metadata(ctx, marker.Version)
	if err != nil {
		return nil, err
	}

	current := s.cache.Current()
	return &ActiveModel{
		Metadata:    *md,
		ActivatedAt: marker.ActivatedAt,
		Loaded:      current != nil && current.Version == marker.Version,
	}, nil
}

// swap activates version and reloads the cache. If the reload fails the
// previous marker is restored; the cache keeps its previous snapshot.
func (s *system) swap(ctx context.Context, version string) error {
	prev, err := s.store.ActiveVersion(ctx)
	if err != nil && !errors.Is(err, artifacts.ErrNoActiveVersion) {
		return fmt.Errorf("read active marker: %w", err)
	}

	if _, err := s.store.Activate(ctx, version); err != nil {
		s.logger.ErrorContext(ctx, "activation failed", "version", version, "error", err)
		return err
	}

	if _, err := s.cache.Reload(ctx); err != nil {
		s.logger.ErrorContext(ctx, "reload failed, restoring previous version",
			"version", version,
			"error", err,
		)
		if rerr := s.store.RestoreActive(ctx, prev); rerr != nil {
			s.logger.ErrorContext(ctx, "active marker not restored", "error", rerr)
			return fmt.Errorf("reload %s: %w (restore failed: %w)", version, err, rerr)
		}
		return fmt.Errorf("reload %s: %w", version, err)
	}

	return nil
}

func (s *system) register(ctx context.Context, md *artifacts.Metadata, actor string) {
	if s.registrar == nil {
		return
	}

	_, err := s.registrar.Register(ctx, registry.RegisterCommand{
		Version:     md.Version,
		ModelName:   md.ModelName,
		Accuracy:    md.Accuracy,
		Precision:   md.Precision,
		Recall:      md.Recall,
		F1:          md.F1,
		DatasetSize: md.DatasetSize,
		TrainedBy:   actor,
		TrainedAt:   md.TrainedAt,
		Active:      true,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "registry not updated", "version", md.Version, "error", err)
	}
}
