// Package training runs the end-to-end model training pipeline: normalise the
// corpus, split it, fit the TF-IDF extractor on the training rows, fit every
// candidate classifier, and select the best one by F1.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/jobcheck/pkg/classify"
	"github.com/JaimeStill/jobcheck/pkg/evaluate"
	"github.com/JaimeStill/jobcheck/pkg/features"
	"github.com/JaimeStill/jobcheck/pkg/textnorm"
)

// Options configures a pipeline run.
type Options struct {
	Seed      uint64
	TestRatio float64
	Features  features.Options
	// Workers bounds concurrent candidate fits. Zero uses the CPU count.
	Workers int
	// Trainers overrides the candidate roster. Nil uses classify.Roster(Seed).
	Trainers []classify.Trainer
}

// DefaultOptions returns seed 42, an 80/20 split and default TF-IDF options.
func DefaultOptions() Options {
	return Options{
		Seed:      42,
		TestRatio: 0.2,
		Features:  features.DefaultOptions(),
	}
}

// Metadata describes a trained model. Version is empty until the artifact
// store assigns one.
type Metadata struct {
	Version   string `json:"version"`
	ModelName string `json:"model_name"`
	evaluate.Metrics
	TrainedAt   time.Time         `json:"trained_at"`
	DatasetSize int               `json:"dataset_size"`
	Features    string            `json:"features"`
	AllResults  []evaluate.Result `json:"all_results"`
}

// Outcome is the product of a successful run. The extractor and classifier
// belong together and must be persisted and served as a pair.
type Outcome struct {
	Extractor  *features.Extractor
	Classifier classify.Classifier
	Metadata   Metadata
}

// Selection is the result of fitting and scoring every candidate.
type Selection struct {
	Classifier classify.Classifier
	Results    []evaluate.Result
	Best       int
}

// Pipeline trains and selects a model from a labelled corpus.
type Pipeline struct {
	normalizer *textnorm.Normalizer
	opts       Options
	logger     *slog.Logger
}

// New creates a pipeline using normalizer for every text.
func New(normalizer *textnorm.Normalizer, opts Options, logger *slog.Logger) *Pipeline {
	if opts.Trainers == nil {
		opts.Trainers = classify.Roster(opts.Seed)
	}
	return &Pipeline{
		normalizer: normalizer,
		opts:       opts,
		logger:     logger.With("system", "training"),
	}
}

// Normalizer returns the normaliser the pipeline applies to every document.
func (p *Pipeline) Normalizer() *textnorm.Normalizer {
	return p.normalizer
}

// Run trains on rows and returns the selected model with its extractor.
// Datasets that cannot be stratified or produce no vocabulary fail with
// ErrTrainingAborted.
func (p *Pipeline) Run(ctx context.Context, rows []Row) (*Outcome, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrTrainingAborted)
	}

	start := time.Now()
	labels := Labels(rows)

	split, err := evaluate.StratifiedSplit(labels, p.opts.TestRatio, p.opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrainingAborted, err)
	}

	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = p.normalizer.Normalize(r.Document.Assemble())
	}

	trainTexts, ytr := gather(texts, labels, split.Train)
	testTexts, yte := gather(texts, labels, split.Test)

	p.logger.InfoContext(ctx, "dataset split",
		"rows", len(rows),
		"train", len(ytr),
		"test", len(yte),
	)

	extractor, Xtr, err := features.Fit(trainTexts, p.opts.Features)
	if err != nil {
		if errors.Is(err, features.ErrEmptyVocabulary) {
			return nil, fmt.Errorf("%w: %w", ErrTrainingAborted, err)
		}
		return nil, fmt.Errorf("fit extractor: %w", err)
	}
	Xte := extractor.Transform(testTexts)

	p.logger.InfoContext(ctx, "extractor fitted", "vocabulary", extractor.Size())

	sel, err := p.TrainAndSelect(ctx, Xtr, ytr, Xte, yte, extractor.Size())
	if err != nil {
		return nil, err
	}

	best := sel.Results[sel.Best]
	p.logger.InfoContext(ctx, "model selected",
		"model", best.Name,
		"f1_score", best.F1,
		"duration", time.Since(start),
	)

	return &Outcome{
		Extractor:  extractor,
		Classifier: sel.Classifier,
		Metadata: Metadata{
			ModelName:   best.Name,
			Metrics:     best.Metrics,
			TrainedAt:   time.Now().UTC(),
			DatasetSize: len(rows),
			Features:    extractor.Describe(),
			AllResults:  sel.Results,
		},
	}, nil
}

// TrainAndSelect fits every candidate concurrently and scores each on the
// test rows. Results are reported in roster order regardless of completion
// order, and the first candidate with the strictly highest F1 wins.
func (p *Pipeline) TrainAndSelect(
	ctx context.Context,
	Xtr []features.Vector, ytr []int,
	Xte []features.Vector, yte []int,
	dim int,
) (*Selection, error) {
	trainers := p.opts.Trainers
	if len(trainers) == 0 {
		return nil, fmt.Errorf("%w: no candidate trainers", ErrTrainingAborted)
	}

	fitted := make([]classify.Classifier, len(trainers))
	results := make([]evaluate.Result, len(trainers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workerCount(len(trainers)))

	for i, tr := range trainers {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			start := time.Now()
			c, err := tr.Fit(gctx, Xtr, ytr, dim)
			if err != nil {
				return fmt.Errorf("fit %s: %w", tr.Name(), err)
			}

			fitted[i] = c
			results[i] = evaluate.Evaluate(c, Xte, yte)

			p.logger.InfoContext(gctx, "candidate evaluated",
				"model", tr.Name(),
				"accuracy", results[i].Accuracy,
				"precision", results[i].Precision,
				"recall", results[i].Recall,
				"f1_score", results[i].F1,
				"duration", time.Since(start),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, classify.ErrNoSamples) {
			return nil, fmt.Errorf("%w: %w", ErrTrainingAborted, err)
		}
		return nil, err
	}

	best := evaluate.Select(results)
	return &Selection{
		Classifier: fitted[best],
		Results:    results,
		Best:       best,
	}, nil
}

func (p *Pipeline) workerCount(candidates int) int {
	if p.opts.Workers > 0 {
		return min(p.opts.Workers, candidates)
	}
	return max(min(runtime.NumCPU(), candidates), 1)
}

func gather(texts []string, labels []int, idx []int) ([]string, []int) {
	t := make([]string, len(idx))
	y := make([]int, len(idx))
	for i, j := range idx {
		t[i] = texts[j]
		y[i] = labels[j]
	}
	return t, y
}
