package classify

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/JaimeStill/jobcheck/pkg/features"
)

// RandomForest trains bagged Gini trees with balanced class weights. Each tree
// draws its bootstrap sample and split candidates from its own generator
// seeded by (Seed, tree index), so the forest is reproducible.
type RandomForest struct {
	Trees    int
	MaxDepth int
	Seed     uint64
}

func (RandomForest) Name() string { return "Random Forest" }

func (t RandomForest) Fit(ctx context.Context, X []features.Vector, y []int, dim int) (Classifier, error) {
	if err := validate(X, y); err != nil {
		return nil, err
	}

	cw := balancedWeights(y)
	scratch := newPresence(dim)
	maxFeat := max(1, int(math.Sqrt(float64(dim))))

	model := &ForestModel{Trees: make([]Tree, 0, t.Trees)}

	for i := range t.Trees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rng := rand.New(rand.NewPCG(t.Seed, uint64(i)))
		counts := make([]int, len(X))
		for range len(X) {
			counts[rng.IntN(len(X))]++
		}

		weight := make([]float64, len(X))
		samples := make([]int, 0, len(X))
		for s, c := range counts {
			if c > 0 {
				samples = append(samples, s)
				weight[s] = float64(c) * cw[y[s]]
			}
		}

		b := &giniBuilder{
			X:        X,
			y:        y,
			weight:   weight,
			maxDepth: t.MaxDepth,
			maxFeat:  maxFeat,
			rng:      rng,
			scratch:  scratch,
		}
		model.Trees = append(model.Trees, b.build(samples))
	}

	return model, nil
}

// ForestModel averages the leaf fraud probabilities of its trees.
type ForestModel struct {
	Trees []Tree
}

func (m *ForestModel) Name() string { return RandomForest{}.Name() }

func (m *ForestModel) Predict(v features.Vector) int {
	return labelOf(m.fraudProbability(v))
}

func (m *ForestModel) Probabilities(v features.Vector) [2]float64 {
	return probabilities(m.fraudProbability(v))
}

func (m *ForestModel) fraudProbability(v features.Vector) float64 {
	if len(m.Trees) == 0 {
		return 0.5
	}
	var sum float64
	for _, tr := range m.Trees {
		sum += tr.eval(v)
	}
	return sum / float64(len(m.Trees))
}
