package embedding

import (
	"errors"
	"math"
)

// TokenStates is the last hidden layer of a transformer for one input:
// one row per token, and a validity mask (1 = real token, 0 = padding).
type TokenStates struct {
	Hidden [][]float32
	Mask   []int
}

var errNoTokens = errors.New("encoder returned no token states")

func (s TokenStates) valid(i int) bool {
	if i >= len(s.Mask) {
		// A missing mask entry counts as a real token.
		return true
	}
	return s.Mask[i] != 0
}

// Pool reduces token states to a single vector.
//
//	cls:  hidden state of the first token
//	mean: mask-weighted average over positions
//	max:  per-dimension maximum over valid positions only
func Pool(states TokenStates, pooling Pooling) (Vector, error) {
	if !pooling.Valid() {
		return Vector{}, &InvalidPoolingError{Pooling: string(pooling)}
	}
	if len(states.Hidden) == 0 || len(states.Hidden[0]) == 0 {
		return Vector{}, errNoTokens
	}
	dim := len(states.Hidden[0])
	out := make([]float32, dim)

	switch pooling {
	case PoolingCLS:
		copy(out, states.Hidden[0])

	case PoolingMean:
		sums := make([]float64, dim)
		count := 0
		for i, row := range states.Hidden {
			if !states.valid(i) {
				continue
			}
			count++
			for d := 0; d < dim && d < len(row); d++ {
				sums[d] += float64(row[d])
			}
		}
		if count > 0 {
			for d := range out {
				out[d] = float32(sums[d] / float64(count))
			}
		}

	case PoolingMax:
		maxes := make([]float64, dim)
		for d := range maxes {
			maxes[d] = math.Inf(-1)
		}
		seen := false
		for i, row := range states.Hidden {
			if !states.valid(i) {
				continue
			}
			seen = true
			for d := 0; d < dim && d < len(row); d++ {
				if v := float64(row[d]); v > maxes[d] {
					maxes[d] = v
				}
			}
		}
		if seen {
			for d := range out {
				out[d] = float32(maxes[d])
			}
		}
	}

	return Vector{Values: out, Pooling: pooling}, nil
}

// Cosine returns the cosine similarity of a and b clamped to [0, 1].
// Zero-norm or dimension-mismatched vectors yield 0.
func Cosine(a, b Vector) float64 {
	return CosineValues(a.Values, b.Values)
}

// CosineValues is Cosine over raw slices.
func CosineValues(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	switch {
	case math.IsNaN(sim), sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}
