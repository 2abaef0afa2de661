package vector

import (
	"fmt"
	"math"
	"strings"

	"rfpgen/internal/util"
)

// Normalize scales v to unit length. It rejects empty vectors, vectors of
// the wrong dimensionality, and zero-magnitude vectors so a bad query vector
// fails retrieval up front instead of producing garbage rankings.
func Normalize(v []float32, dim int) ([]float32, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty vector", util.ErrInvalidVector)
	}
	if dim > 0 && len(v) != dim {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", util.ErrInvalidVector, len(v), dim)
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: zero magnitude", util.ErrInvalidVector)
	}
	inv := 1.0 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out, nil
}

// Cosine returns dot(a,b) / (|a|*|b|). It is used by the in-memory store in
// tests; production ranking runs server-side through the pgvector operator
// and must stay numerically equivalent to this.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%f", x))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
