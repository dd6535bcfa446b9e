// Package evaluate scores fitted classifiers on held-out rows, selects the
// best candidate and produces the stratified train/test split used during
// training.
package evaluate

import (
	"math"

	"github.com/JaimeStill/jobcheck/pkg/classify"
	"github.com/JaimeStill/jobcheck/pkg/features"
)

// Metrics are binary classification scores with Fraudulent as the positive
// class. Undefined ratios are reported as 0. Values are rounded to four
// decimals.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// Result pairs a candidate name with its test-set metrics.
type Result struct {
	Name string `json:"model"`
	Metrics
}

// Score computes metrics from true and predicted labels.
func Score(truth, predicted []int) Metrics {
	var tp, fp, fn, correct int
	for i := range truth {
		switch {
		case truth[i] == predicted[i]:
			correct++
			if truth[i] == classify.Fraudulent {
				tp++
			}
		case predicted[i] == classify.Fraudulent:
			fp++
		default:
			fn++
		}
	}

	precision := ratio(tp, tp+fp)
	recall := ratio(tp, tp+fn)

	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return Metrics{
		Accuracy:  round4(ratio(correct, len(truth))),
		Precision: round4(precision),
		Recall:    round4(recall),
		F1:        round4(f1),
	}
}

// Evaluate predicts every row of X with c and scores the result against y.
func Evaluate(c classify.Classifier, X []features.Vector, y []int) Result {
	predicted := make([]int, len(X))
	for i, x := range X {
		predicted[i] = c.Predict(x)
	}
	return Result{Name: c.Name(), Metrics: Score(y, predicted)}
}

// Select returns the index of the result with the strictly highest F1.
// Ties keep the earliest result, so callers pass results in training order.
// It returns -1 for an empty slice.
func Select(results []Result) int {
	best := -1
	for i, r := range results {
		if best < 0 || r.Metrics.F1 > results[best].Metrics.F1 {
			best = i
		}
	}
	return best
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
