package classify

import (
	"context"

	"github.com/JaimeStill/jobcheck/pkg/features"
)

// LogisticRegression trains an L2-regularised logistic model with balanced
// class weights using full-batch gradient descent from a zero start, which
// makes training deterministic.
type LogisticRegression struct {
	C            float64
	LearningRate float64
	Iterations   int
}

func (LogisticRegression) Name() string { return "Logistic Regression" }

func (t LogisticRegression) Fit(ctx context.Context, X []features.Vector, y []int, dim int) (Classifier, error) {
	if err := validate(X, y); err != nil {
		return nil, err
	}

	n := float64(len(X))
	cw := balancedWeights(y)
	reg := 1 / (t.C * n)

	w := make([]float64, dim)
	grad := make([]float64, dim)
	var b float64

	for iter := range t.Iterations {
		if iter%50 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		clear(grad)
		var gradB float64

		for i, x := range X {
			p := sigmoid(x.Dot(w) + b)
			r := cw[y[i]] * (p - float64(y[i])) / n
			for k, idx := range x.Indices {
				grad[idx] += r * x.Values[k]
			}
			gradB += r
		}

		for j := range w {
			w[j] -= t.LearningRate * (grad[j] + reg*w[j])
		}
		b -= t.LearningRate * gradB
	}

	return &LogisticModel{Weights: w, Bias: b}, nil
}

// LogisticModel is a fitted logistic regression.
type LogisticModel struct {
	Weights []float64
	Bias    float64
}

func (m *LogisticModel) Name() string { return LogisticRegression{}.Name() }

func (m *LogisticModel) Predict(v features.Vector) int {
	return labelOf(m.fraudProbability(v))
}

func (m *LogisticModel) Probabilities(v features.Vector) [2]float64 {
	return probabilities(m.fraudProbability(v))
}

func (m *LogisticModel) fraudProbability(v features.Vector) float64 {
	return sigmoid(v.Dot(m.Weights) + m.Bias)
}
