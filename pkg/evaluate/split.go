package evaluate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// ErrSplit indicates a dataset that cannot be split with both classes
// represented on each side.
var ErrSplit = errors.New("dataset cannot be stratified")

// Split holds row indices of the train and test partitions, each sorted
// ascending.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit partitions row indices so that each class is represented in
// the test set in proportion to testRatio. Every class keeps at least one row
// on each side. The same labels, ratio and seed always produce the same split.
func StratifiedSplit(labels []int, testRatio float64, seed uint64) (Split, error) {
	if len(labels) == 0 {
		return Split{}, fmt.Errorf("%w: no rows", ErrSplit)
	}
	if testRatio <= 0 || testRatio >= 1 {
		return Split{}, fmt.Errorf("%w: test ratio %v outside (0, 1)", ErrSplit, testRatio)
	}

	classes := map[int][]int{}
	for i, label := range labels {
		classes[label] = append(classes[label], i)
	}
	if len(classes) < 2 {
		return Split{}, fmt.Errorf("%w: only one class present", ErrSplit)
	}

	keys := make([]int, 0, len(classes))
	for label, rows := range classes {
		if len(rows) < 2 {
			return Split{}, fmt.Errorf("%w: class %d has %d row", ErrSplit, label, len(rows))
		}
		keys = append(keys, label)
	}
	slices.Sort(keys)

	rng := rand.New(rand.NewPCG(seed, 0x5eed))

	var split Split
	for _, label := range keys {
		rows := classes[label]
		rng.Shuffle(len(rows), func(i, j int) {
			rows[i], rows[j] = rows[j], rows[i]
		})

		n := int(math.Round(float64(len(rows)) * testRatio))
		n = min(max(n, 1), len(rows)-1)

		split.Test = append(split.Test, rows[:n]...)
		split.Train = append(split.Train, rows[n:]...)
	}

	slices.Sort(split.Train)
	slices.Sort(split.Test)
	return split, nil
}
