package vector

import (
	"errors"
	"math"
	"testing"

	"rfpgen/internal/util"

	"github.com/stretchr/testify/require"
)

func TestNormalizeUnitLength(t *testing.T) {
	out, err := Normalize([]float32{3, 4}, 2)
	require.NoError(t, err)
	var sum float64
	for _, x := range out {
		sum += float64(x) * float64(x)
	}
	require.InDelta(t, 1.0, sum, 1e-6)
	require.InDelta(t, 0.6, float64(out[0]), 1e-6)
	require.InDelta(t, 0.8, float64(out[1]), 1e-6)
}

func TestNormalizeRejectsBadVectors(t *testing.T) {
	cases := []struct {
		name string
		v    []float32
		dim  int
	}{
		{"empty", nil, 3},
		{"wrong dimension", []float32{1, 2}, 3},
		{"zero magnitude", []float32{0, 0, 0}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.v, tc.dim)
			require.Error(t, err)
			require.True(t, errors.Is(err, util.ErrInvalidVector))
		})
	}
}

func TestNormalizeSkipsDimCheckWhenUnset(t *testing.T) {
	out, err := Normalize([]float32{1, 1, 1, 1}, 0)
	require.NoError(t, err)
	require.Len(t, out, 4)
}

func TestCosine(t *testing.T) {
	require.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	require.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	require.Equal(t, 0.0, Cosine(nil, []float32{1}))
	require.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1}))
	require.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestCosineMatchesNormalizedDot(t *testing.T) {
	a := []float32{0.2, -0.7, 1.3}
	b := []float32{-0.1, 0.4, 0.9}
	na, err := Normalize(a, 3)
	require.NoError(t, err)
	nb, err := Normalize(b, 3)
	require.NoError(t, err)
	var dot float64
	for i := range na {
		dot += float64(na[i]) * float64(nb[i])
	}
	require.InDelta(t, Cosine(a, b), dot, 1e-6)
	require.False(t, math.IsNaN(dot))
}

func TestToLiteral(t *testing.T) {
	require.Equal(t, "[]", ToLiteral(nil))
	require.Equal(t, "[0.500000,-1.000000]", ToLiteral([]float32{0.5, -1}))
}

func TestResolveCustomer(t *testing.T) {
	cases := []struct {
		name      string
		reference string
		category  string
		payload   string
		want      string
	}{
		{"reference wins", "Acme Bank", "Reporting", `{"customer":"Other"}`, "Acme Bank"},
		{"category next", "  ", "Reporting", `{"customer":"Other"}`, "Reporting"},
		{"payload customer", "", "", `{"customer":"Meridian Wealth"}`, "Meridian Wealth"},
		{"payload trimmed", "", "", `{"customer":"  Meridian  "}`, "Meridian"},
		{"malformed payload", "", "", `{"customer":`, ""},
		{"missing customer key", "", "", `{"other":"x"}`, ""},
		{"non-string customer", "", "", `{"customer":42}`, ""},
		{"empty everything", "", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolveCustomer(tc.reference, tc.category, tc.payload))
		})
	}
}
