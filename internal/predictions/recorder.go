package predictions

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

// Recorder keeps the prediction log and its flags.
type Recorder interface {
	Record(ctx context.Context, cmd RecordCommand) (*Prediction, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Prediction], error)

	Find(ctx context.Context, id uuid.UUID) (*Prediction, error)
	Flag(ctx context.Context, id uuid.UUID, reason, flaggedBy string) (*Flag, error)
	Flags(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Flag], error)
}

type recorder struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRecorder creates a PostgreSQL-backed Recorder.
func NewRecorder(db *sql.DB, logger *slog.Logger) Recorder {
	return &recorder{
		db:     db,
		logger: logger.With("system", "prediction-log"),
	}
}

func (r *recorder) Record(ctx context.Context, cmd RecordCommand) (*Prediction, error) {
	q := `
		INSERT INTO predictions(
			id, job_text, prediction, confidence, version, model_name, user_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, job_text, prediction, confidence, version, model_name,
				  user_id, created_at, FALSE`

	args := []any{
		uuid.New(),
		cmd.JobText,
		cmd.Label,
		cmd.Confidence,
		cmd.Version,
		cmd.ModelName,
		cmd.UserID,
	}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prediction, error) {
		return repository.QueryOne(ctx, tx, q, args, scanPrediction)
	})
	if err != nil {
		return nil, fmt.Errorf("record prediction: %w", repository.MapError(err, ErrNotFound, ErrDuplicate))
	}

	r.logger.Info("prediction recorded",
		"id", p.ID,
		"prediction", p.Label,
		"version", p.Version,
	)
	return &p, nil
}

func (r *recorder) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Prediction], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "JobText")

	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanPrediction)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return result, nil
}

func (r *recorder) Find(ctx context.Context, id uuid.UUID) (*Prediction, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPrediction)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *recorder) Flag(ctx context.Context, id uuid.UUID, reason, flaggedBy string) (*Flag, error) {
	q := `
		INSERT INTO prediction_flags(id, prediction_id, reason, flagged_by)
		SELECT $1, p.id, $3, $4 FROM predictions p WHERE p.id = $2
		RETURNING id, prediction_id, reason, flagged_by, flagged_at`

	f, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Flag, error) {
		return repository.QueryOne(ctx, tx, q, []any{uuid.New(), id, reason, flaggedBy}, scanFlag)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("prediction flagged",
		"id", f.ID,
		"prediction_id", id,
		"flagged_by", flaggedBy,
	)
	return &f, nil
}

func (r *recorder) Flags(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Flag], error) {
	qb := query.
		NewBuilder(flagProjection, flagSort).
		WhereSearch(page.Search, "Reason", "FlaggedBy")

	result, err := repository.QueryPage(ctx, r.db, qb, page, scanFlag)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	return result, nil
}
