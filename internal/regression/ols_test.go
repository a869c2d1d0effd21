package regression

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitHandComputed(t *testing.T) {
	res, err := Fit([]float64{1, 2, 3, 4}, []float64{1, 3, 2, 5})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, res.Alpha, 1e-12)
	assert.InDelta(t, 1.1, res.Beta, 1e-12)
	assert.InDelta(t, 0.33645207682521444, res.SEBeta, 1e-12)
	assert.InDelta(t, 0.6914285714285714, res.R2, 1e-12)
	assert.Equal(t, 4, res.N)
	assert.Empty(t, res.Note)
	assert.Equal(t, "ok", res.Outcome())
}

func TestFitOLSInsufficient(t *testing.T) {
	tests := []struct {
		name  string
		x, y  []float64
		wantN int
	}{
		{"empty", nil, nil, 0},
		{"nine pairs", seq(9), seq(9), 9},
		{"missing values dropped", append(seq(9), math.NaN()), append(seq(9), 1), 9},
		{"infinite dropped", append(seq(8), math.Inf(1), 3), append(seq(8), 1, math.NaN()), 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FitOLS(tt.x, tt.y, 10)
			assert.True(t, res.Degenerate())
			assert.True(t, math.IsNaN(res.Alpha))
			assert.True(t, math.IsNaN(res.SEBeta))
			assert.True(t, math.IsNaN(res.R2))
			assert.Equal(t, tt.wantN, res.N)
			assert.Equal(t, NoteInsufficient, res.Note)
			assert.Equal(t, "insufficient", res.Outcome())
		})
	}
}

func TestFitOLSSingularDesign(t *testing.T) {
	x := make([]float64, 20)
	for i := range x {
		x[i] = 0.5
	}
	res := FitOLS(x, seq(20), 10)

	assert.True(t, res.Degenerate())
	assert.Equal(t, 20, res.N)
	assert.True(t, strings.HasPrefix(res.Note, NoteErrorPrefix))
	assert.Contains(t, res.Note, "singular")
	assert.Equal(t, "error", res.Outcome())
}

func TestFitOLSConstantResponse(t *testing.T) {
	y := make([]float64, 12)
	res := FitOLS(seq(12), y, 10)

	assert.False(t, res.Degenerate())
	assert.InDelta(t, 0.0, res.Beta, 1e-12)
	assert.True(t, math.IsNaN(res.R2))
}

func TestFitOLSRecoversPositiveSlope(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 1500
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64() * 0.2
		y[i] = 4*x[i] + rng.NormFloat64()*0.5
	}

	res := FitOLS(x, y, 10)
	require.False(t, res.Degenerate())
	assert.InDelta(t, 4.0, res.Beta, 0.3)
	assert.Greater(t, res.R2, 0.0)
	assert.Greater(t, res.SEBeta, 0.0)
	assert.Equal(t, n, res.N)
}

func TestFitLengthMismatch(t *testing.T) {
	_, err := Fit(seq(3), seq(4))
	assert.Error(t, err)
}

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}
