package predictions

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/JaimeStill/jobcheck/internal/serving"
	"github.com/JaimeStill/jobcheck/pkg/classify"
	"github.com/JaimeStill/jobcheck/pkg/textnorm"
)

// FallbackConfidence is reported for classifiers that expose no probabilities.
const FallbackConfidence = 0.85

// Source provides the snapshot a prediction runs against.
type Source interface {
	Get(ctx context.Context) (*serving.Snapshot, error)
}

// Service classifies job postings with the snapshot served by a Source.
// It is safe for concurrent use.
type Service struct {
	normalizer *textnorm.Normalizer
	source     Source
	fallback   float64
	logger     *slog.Logger
}

// NewService creates a prediction service. A fallback outside (0, 1] is
// replaced with FallbackConfidence.
func NewService(normalizer *textnorm.Normalizer, source Source, fallback float64, logger *slog.Logger) *Service {
	if fallback <= 0 || fallback > 1 {
		fallback = FallbackConfidence
	}
	return &Service{
		normalizer: normalizer,
		source:     source,
		fallback:   fallback,
		logger:     logger.With("service", "predictions"),
	}
}

// Predict classifies raw job text.
func (s *Service) Predict(ctx context.Context, text string) (*Result, error) {
	clean := s.normalizer.Normalize(text)
	if clean == "" {
		return nil, ErrEmptyInput
	}

	snap, err := s.source.Get(ctx)
	if err != nil {
		return nil, err
	}

	v := snap.Extractor.TransformOne(clean)
	label := snap.Classifier.Predict(v)

	probability := s.fallback
	if p, ok := snap.Classifier.(classify.Probabilistic); ok {
		probs := p.Probabilities(v)
		probability = max(probs[0], probs[1])
	}

	result := &Result{
		Prediction:  labelName(label),
		Confidence:  round(probability*100, 2),
		Version:     snap.Version,
		ModelName:   snap.Metadata.ModelName,
		AnalyzedAt:  time.Now().UTC(),
		probability: round(probability, 4),
	}

	s.logger.DebugContext(ctx, "job text classified",
		"prediction", result.Prediction,
		"confidence", result.Confidence,
		"version", result.Version,
	)

	return result, nil
}

// PredictDocument assembles the document fields and classifies the result.
func (s *Service) PredictDocument(ctx context.Context, doc textnorm.Document) (*Result, error) {
	result, err := s.Predict(ctx, doc.Assemble())
	if err != nil {
		return nil, fmt.Errorf("predict document: %w", err)
	}
	return result, nil
}

func labelName(label int) string {
	if label == 1 {
		return LabelFake
	}
	return LabelReal
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
