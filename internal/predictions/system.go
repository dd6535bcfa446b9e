package predictions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/JaimeStill/jobcheck/pkg/auth"
	"github.com/JaimeStill/jobcheck/pkg/pagination"
	"github.com/JaimeStill/jobcheck/pkg/textnorm"
)

// AnonymousFlagger is recorded as flagged_by when no identity is present.
const AnonymousFlagger = "anonymous"

// System defines the public contract for prediction domain operations.
type System interface {
	Handler(maxBody int64) *Handler

	Predict(ctx context.Context, cmd PredictCommand) (*Result, error)
	PredictDocument(ctx context.Context, doc textnorm.Document) (*Result, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Prediction], error)

	Find(ctx context.Context, id uuid.UUID) (*Prediction, error)
	Flag(ctx context.Context, id uuid.UUID, cmd FlagCommand) (*Flag, error)
	Flags(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Flag], error)
}

type system struct {
	service    *Service
	recorder   Recorder
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a prediction system that classifies with service and logs
// each prediction to recorder.
func New(
	service *Service,
	recorder Recorder,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &system{
		service:    service,
		recorder:   recorder,
		logger:     logger.With("system", "predictions"),
		pagination: pagination,
	}
}

func (s *system) Handler(maxBody int64) *Handler {
	return NewHandler(s, s.logger, s.pagination, maxBody)
}

func (s *system) Predict(ctx context.Context, cmd PredictCommand) (*Result, error) {
	if err := validateLength(cmd.JobText); err != nil {
		return nil, err
	}

	result, err := s.service.Predict(ctx, cmd.JobText)
	if err != nil {
		return nil, err
	}

	s.record(ctx, cmd.JobText, result)
	return result, nil
}

func (s *system) PredictDocument(ctx context.Context, doc textnorm.Document) (*Result, error) {
	text := doc.Assemble()
	if err := validateLength(text); err != nil {
		return nil, err
	}

	result, err := s.service.Predict(ctx, text)
	if err != nil {
		return nil, err
	}

	s.record(ctx, text, result)
	return result, nil
}

func (s *system) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Prediction], error) {
	page.Normalize(s.pagination)
	return s.recorder.List(ctx, page, filters)
}

func (s *system) Find(ctx context.Context, id uuid.UUID) (*Prediction, error) {
	return s.recorder.Find(ctx, id)
}

func (s *system) Flag(ctx context.Context, id uuid.UUID, cmd FlagCommand) (*Flag, error) {
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: flag reason is required", ErrInvalidInput)
	}

	flaggedBy := AnonymousFlagger
	if id := auth.FromContext(ctx); id != nil {
		flaggedBy = id.Name()
	}

	return s.recorder.Flag(ctx, id, reason, flaggedBy)
}

func (s *system) Flags(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Flag], error) {
	page.Normalize(s.pagination)
	return s.recorder.Flags(ctx, page)
}

// record logs a served prediction. A logging failure leaves the result
// without a prediction id.
func (s *system) record(ctx context.Context, text string, result *Result) {
	cmd := RecordCommand{
		JobText:    truncate(text, StoredTextLength),
		Label:      result.Prediction,
		Confidence: result.Probability(),
		Version:    result.Version,
		ModelName:  result.ModelName,
	}
	if id := auth.FromContext(ctx); id != nil {
		cmd.UserID = &id.Subject
	}

	p, err := s.recorder.Record(ctx, cmd)
	if err != nil {
		s.logger.WarnContext(ctx, "prediction not recorded", "error", err)
		return
	}
	result.PredictionID = &p.ID
}

func validateLength(text string) error {
	n := utf8.RuneCountInString(text)
	if n < MinTextLength || n > MaxTextLength {
		return fmt.Errorf("%w: %d characters, want %d to %d", ErrInvalidInput, n, MinTextLength, MaxTextLength)
	}
	return nil
}

func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
