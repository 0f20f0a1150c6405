package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch reports vectors of different lengths passed to
// CosineSimilarity. This is a caller bug (vectors from different models
// compared), not an environmental condition.
var ErrDimensionMismatch = errors.New("vector: dimension mismatch")

// ErrBadBlob reports a persisted vector blob with an odd byte length.
var ErrBadBlob = errors.New("vector: blob length not a multiple of 2")

// CosineSimilarity returns the cosine of the angle between a and b,
// in [-1, 1]. If either vector has zero norm the result is 0 (defined,
// not an error).
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
