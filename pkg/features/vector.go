package features

import "math"

// Vector is a sparse feature vector. Indices are strictly increasing and
// Values holds the weight at the matching position. Absent indices are zero.
type Vector struct {
	Indices []int
	Values  []float64
}

// NNZ returns the number of stored (non-zero) entries.
func (v Vector) NNZ() int {
	return len(v.Indices)
}

// Dot returns the inner product of v with a dense weight slice.
// Indices beyond len(w) contribute nothing.
func (v Vector) Dot(w []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		if idx < len(w) {
			sum += v.Values[i] * w[idx]
		}
	}
	return sum
}

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Equal reports whether v and o hold identical entries.
func (v Vector) Equal(o Vector) bool {
	if len(v.Indices) != len(o.Indices) {
		return false
	}
	for i := range v.Indices {
		if v.Indices[i] != o.Indices[i] || v.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}
