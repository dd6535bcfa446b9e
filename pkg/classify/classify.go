// Package classify provides the binary classifier families trained on TF-IDF
// feature vectors. Labels are binary: 1 is fraudulent, 0 is legitimate.
//
// Classifiers come in two capabilities. Every Classifier predicts a label;
// a Probabilistic classifier additionally reports class probabilities.
// Callers type-assert to Probabilistic instead of probing for methods.
package classify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/JaimeStill/jobcheck/pkg/features"
)

// Binary class labels.
const (
	Legitimate = 0
	Fraudulent = 1
)

var (
	// ErrNoSamples indicates Fit was called without training rows.
	ErrNoSamples = errors.New("no training samples")
	// ErrShapeMismatch indicates the sample and label counts differ.
	ErrShapeMismatch = errors.New("samples and labels differ in length")
	// ErrInvalidLabel indicates a label outside {0, 1}.
	ErrInvalidLabel = errors.New("label must be 0 or 1")
)

// Classifier predicts a binary label for a feature vector.
// Implementations are immutable after training and safe for concurrent use.
type Classifier interface {
	// Name returns the human-readable model family name.
	Name() string
	// Predict returns Legitimate or Fraudulent.
	Predict(v features.Vector) int
}

// Probabilistic is a Classifier that also reports class probabilities.
// The result is [P(Legitimate), P(Fraudulent)] and sums to 1.
type Probabilistic interface {
	Classifier
	Probabilities(v features.Vector) [2]float64
}

// Trainer fits one classifier family with fixed hyper-parameters.
type Trainer interface {
	// Name returns the model family name reported by the fitted classifier.
	Name() string
	// Fit trains on X and y where dim is the feature space size.
	Fit(ctx context.Context, X []features.Vector, y []int, dim int) (Classifier, error)
}

// Roster returns the fixed, ordered set of candidate trainers. The order is
// the training order used to break ties during model selection.
func Roster(seed uint64) []Trainer {
	return []Trainer{
		LogisticRegression{
			C:            1.0,
			LearningRate: 0.5,
			Iterations:   500,
		},
		RandomForest{
			Trees:    200,
			MaxDepth: 32,
			Seed:     seed,
		},
		GradientBoosting{
			Rounds:       150,
			LearningRate: 0.1,
			MaxDepth:     3,
			Lambda:       1.0,
		},
		LinearSVM{
			Lambda: 1e-3,
			Epochs: 20,
			Seed:   seed,
		},
	}
}

func validate(X []features.Vector, y []int) error {
	if len(X) == 0 {
		return ErrNoSamples
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d samples, %d labels", ErrShapeMismatch, len(X), len(y))
	}
	for i, label := range y {
		if label != Legitimate && label != Fraudulent {
			return fmt.Errorf("%w: row %d has %d", ErrInvalidLabel, i, label)
		}
	}
	return nil
}

// balancedWeights returns n / (2 * count(class)) for each class so that both
// classes contribute equally regardless of imbalance. A missing class gets 0.
func balancedWeights(y []int) [2]float64 {
	var counts [2]int
	for _, label := range y {
		counts[label]++
	}

	var w [2]float64
	n := float64(len(y))
	for c := range w {
		if counts[c] > 0 {
			w[c] = n / (2 * float64(counts[c]))
		}
	}
	return w
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1 + ez)
}

func probabilities(pFraud float64) [2]float64 {
	return [2]float64{1 - pFraud, pFraud}
}

func labelOf(pFraud float64) int {
	if pFraud > 0.5 {
		return Fraudulent
	}
	return Legitimate
}

func present(v features.Vector, feature int) bool {
	_, ok := slices.BinarySearch(v.Indices, feature)
	return ok
}
