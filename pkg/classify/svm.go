package classify

import (
	"context"
	"math/rand/v2"

	"github.com/JaimeStill/jobcheck/pkg/features"
)

// LinearSVM trains a hinge-loss linear separator with the Pegasos
// sub-gradient method. The bias is treated as an extra regularised weight.
// The fitted model only reports a decision, not probabilities.
type LinearSVM struct {
	Lambda float64
	Epochs int
	Seed   uint64
}

func (LinearSVM) Name() string { return "Linear SVM" }

func (t LinearSVM) Fit(ctx context.Context, X []features.Vector, y []int, dim int) (Classifier, error) {
	if err := validate(X, y); err != nil {
		return nil, err
	}

	cw := balancedWeights(y)
	rng := rand.New(rand.NewPCG(t.Seed, uint64(len(X))))

	// w = scale * v keeps the per-step shrink O(1).
	v := make([]float64, dim+1)
	scale := 1.0
	step := 0

	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}

	for range t.Epochs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for _, i := range order {
			step++
			eta := 1 / (t.Lambda * float64(step))
			sign := -1.0
			if y[i] == Fraudulent {
				sign = 1.0
			}

			margin := sign * scale * (X[i].Dot(v[:dim]) + v[dim])

			shrink := 1 - eta*t.Lambda
			if shrink <= 0 {
				clear(v)
				scale = 1
			} else {
				scale *= shrink
			}

			if margin < 1 {
				delta := eta * cw[y[i]] * sign / scale
				for k, idx := range X[i].Indices {
					v[idx] += delta * X[i].Values[k]
				}
				v[dim] += delta
			}

			if scale < 1e-9 {
				for j := range v {
					v[j] *= scale
				}
				scale = 1
			}
		}
	}

	w := make([]float64, dim)
	for j := range w {
		w[j] = v[j] * scale
	}

	return &SVMModel{Weights: w, Bias: v[dim] * scale}, nil
}

// SVMModel is a fitted linear separator. It implements Classifier but not
// Probabilistic.
type SVMModel struct {
	Weights []float64
	Bias    float64
}

func (m *SVMModel) Name() string { return LinearSVM{}.Name() }

// Decision returns the signed distance proxy w·x + b.
func (m *SVMModel) Decision(v features.Vector) float64 {
	return v.Dot(m.Weights) + m.Bias
}

func (m *SVMModel) Predict(v features.Vector) int {
	if m.Decision(v) > 0 {
		return Fraudulent
	}
	return Legitimate
}
