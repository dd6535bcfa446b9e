package registry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/jobcheck/pkg/pagination"
	"github.com/JaimeStill/jobcheck/pkg/query"
	"github.com/JaimeStill/jobcheck/pkg/repository"
)

// System defines the public contract for the model version registry.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[ModelVersion], error)

	Find(ctx context.Context, version string) (*ModelVersion, error)
	Register(ctx context.Context, cmd RegisterCommand) (*ModelVersion, error)
	SetActive(ctx context.Context, version string) error
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a registry repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "registry"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[ModelVersion], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Version", "ModelName")

	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanModelVersion)
	if err != nil {
		return nil, fmt.Errorf("list model versions: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, version string) (*ModelVersion, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Version", version)

	m, err := repository.QueryOne(ctx, r.db, q, args, scanModelVersion)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &m, nil
}

// Register inserts a version. An active version clears the flag on all
// others in the same transaction.
func (r *repo) Register(ctx context.Context, cmd RegisterCommand) (*ModelVersion, error) {
	insertQ := `
		INSERT INTO model_versions(
			id, version, model_name, accuracy, precision, recall,
			f1_score, dataset_size, trained_by, trained_at, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		` + returning

	var trainedBy *string
	if cmd.TrainedBy != "" {
		trainedBy = &cmd.TrainedBy
	}

	args := []any{
		uuid.New(),
		cmd.Version,
		cmd.ModelName,
		cmd.Accuracy,
		cmd.Precision,
		cmd.Recall,
		cmd.F1,
		cmd.DatasetSize,
		trainedBy,
		cmd.TrainedAt,
		cmd.Active,
	}

	m, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (ModelVersion, error) {
		if cmd.Active {
			if _, err := tx.ExecContext(ctx,
				"UPDATE model_versions SET is_active = FALSE WHERE is_active",
			); err != nil {
				return ModelVersion{}, fmt.Errorf("clear active version: %w", err)
			}
		}
		return repository.QueryOne(ctx, tx, insertQ, args, scanModelVersion)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("model version registered",
		"version", m.Version,
		"model", m.ModelName,
		"active", m.IsActive,
	)
	return &m, nil
}

func (r *repo) SetActive(ctx context.Context, version string) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(ctx,
			"UPDATE model_versions SET is_active = FALSE WHERE is_active AND version <> $1",
			version,
		); err != nil {
			return struct{}{}, err
		}
		if err := repository.ExecExpectOne(ctx, tx,
			"UPDATE model_versions SET is_active = TRUE WHERE version = $1",
			version,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("model version marked active", "version", version)
	return nil
}
