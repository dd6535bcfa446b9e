package classify

import (
	"context"
	"math"

	"github.com/JaimeStill/jobcheck/pkg/features"
)

// GradientBoosting fits shallow regression trees to log-loss gradients with
// shrinkage. Every split considers all present features, so training has no
// random component.
type GradientBoosting struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
	Lambda       float64
}

func (GradientBoosting) Name() string { return "Gradient Boosting" }

func (t GradientBoosting) Fit(ctx context.Context, X []features.Vector, y []int, dim int) (Classifier, error) {
	if err := validate(X, y); err != nil {
		return nil, err
	}

	var positives float64
	for _, label := range y {
		positives += float64(label)
	}
	prior := (positives + 0.5) / (float64(len(y)) + 1)

	model := &BoostedModel{
		Base:         math.Log(prior / (1 - prior)),
		LearningRate: t.LearningRate,
		Trees:        make([]Tree, 0, t.Rounds),
	}

	score := make([]float64, len(X))
	for i := range score {
		score[i] = model.Base
	}

	samples := make([]int, len(X))
	for i := range samples {
		samples[i] = i
	}

	b := &gradientBuilder{
		X:        X,
		grad:     make([]float64, len(X)),
		hess:     make([]float64, len(X)),
		lambda:   t.Lambda,
		maxDepth: t.MaxDepth,
		scratch:  newPresence(dim),
	}

	for range t.Rounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range X {
			p := sigmoid(score[i])
			b.grad[i] = float64(y[i]) - p
			b.hess[i] = p * (1 - p)
		}

		tree := b.build(samples)
		model.Trees = append(model.Trees, tree)

		for i, x := range X {
			score[i] += t.LearningRate * tree.eval(x)
		}
	}

	return model, nil
}

// BoostedModel sums shrunken tree scores on top of the log-odds prior.
type BoostedModel struct {
	Base         float64
	LearningRate float64
	Trees        []Tree
}

func (m *BoostedModel) Name() string { return GradientBoosting{}.Name() }

func (m *BoostedModel) Predict(v features.Vector) int {
	return labelOf(m.fraudProbability(v))
}

func (m *BoostedModel) Probabilities(v features.Vector) [2]float64 {
	return probabilities(m.fraudProbability(v))
}

func (m *BoostedModel) fraudProbability(v features.Vector) float64 {
	score := m.Base
	for _, tr := range m.Trees {
		score += m.LearningRate * tr.eval(v)
	}
	return sigmoid(score)
}
