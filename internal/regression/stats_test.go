package regression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndPopStd(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9, math.NaN()}
	assert.InDelta(t, 5.0, Mean(xs), 1e-12)
	assert.InDelta(t, 2.0, PopStd(xs), 1e-12)

	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(PopStd([]float64{math.NaN()})))
}

func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-12)

	// pairs with a missing side are dropped
	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, math.NaN(), 3}, []float64{1, 2, 5, 3}), 1e-12)

	assert.True(t, math.IsNaN(Pearson([]float64{1}, []float64{1})))
	assert.True(t, math.IsNaN(Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 2.0, Ratio(4, 2))
	assert.True(t, math.IsNaN(Ratio(4, 0)))
	assert.True(t, math.IsNaN(Ratio(math.NaN(), 2)))
	assert.True(t, math.IsNaN(Ratio(1, math.NaN())))
}
