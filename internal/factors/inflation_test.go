package factors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/cfactor/internal/frame"
)

func TestBeta(t *testing.T) {
	// slope times n/(n-1) = 3/2 for three points
	assert.InDelta(t, 1.5, Beta([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 3.0, Beta([]float64{2, 4, 6}, []float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, -0.75, Beta([]float64{5, 4.5, 4}, []float64{1, 2, 3}), 1e-12)
}

func TestBeta_CovarianceOverPopulationVariance(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	u := []float64{2, 1, 4, 3, 5}
	// cov(x, u) with n-1 = 8/4 = 2, var(u) with n = 10/5 = 2
	assert.InDelta(t, 1.0, Beta(x, u), 1e-12)

	x = []float64{0.02, -0.01, 0.03, 0.00, 0.01}
	u = []float64{0.001, -0.002, 0.002, -0.001, 0.000}
	// deviations of x: 0.01 -0.02 0.02 -0.01 0, cross products sum 0.0001,
	// cov = 0.000025, var(u) = 0.00001/5 = 0.000002
	assert.InDelta(t, 12.5, Beta(x, u), 1e-9)
}

func TestBeta_ZeroVarianceIsNotAnError(t *testing.T) {
	b := Beta([]float64{1, 2, 3}, []float64{0.4, 0.4, 0.4})
	assert.True(t, math.IsNaN(b) || math.IsInf(b, 0))
}

func TestUnexpectedInflation(t *testing.T) {
	infl, err := frame.NewSeries("CPI", monthEnds(4), []float64{1, 3, 5, 9})
	require.NoError(t, err)

	surprise, err := UnexpectedInflation(infl, 2)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(surprise.At(0)))
	assert.Equal(t, 1.0, surprise.At(1)) // 3 - mean(1, 3)
	assert.Equal(t, 1.0, surprise.At(2)) // 5 - mean(3, 5)
	assert.Equal(t, 2.0, surprise.At(3)) // 9 - mean(5, 9)
}

func TestInflationBetaSignal(t *testing.T) {
	// inflation differences 1,2,1,4,1,4 give surprises 0.5,1,0.5,2,0.5,2 with a 2-period trend
	inflation := []float64{1, 2, 4, 5, 9, 10, 14}
	surprises := []float64{math.NaN(), 0.5, 1, 0.5, 2, 0.5, 2}

	data := make([][]float64, len(inflation))
	for i, u := range surprises {
		if math.IsNaN(u) {
			data[i] = []float64{0.3, 0.1}
			continue
		}
		data[i] = []float64{0.01 + 2*u, 0.05 - u}
	}

	idx := monthEnds(len(inflation))
	monthly := tableOf(t, idx, []string{"CL", "GC"}, data)
	infl, err := frame.NewSeries("CPI", idx, inflation)
	require.NoError(t, err)

	betas, err := InflationBetaSignal(monthly, infl, 3, 2)
	require.NoError(t, err)

	// warm-up: (trend-1) + (beta-1) rows
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(betas.At(i, 0)), "row %d", i)
		assert.True(t, math.IsNaN(betas.At(i, 1)), "row %d", i)
	}
	// exact slopes 2 and -1, scaled by n/(n-1) = 3/2
	for i := 3; i < len(inflation); i++ {
		assert.InDelta(t, 3.0, betas.At(i, 0), 1e-9, "row %d", i)
		assert.InDelta(t, -1.5, betas.At(i, 1), 1e-9, "row %d", i)
	}
}

func TestInflationBetaSignal_ConstantInflation(t *testing.T) {
	idx := monthEnds(6)
	monthly := tableOf(t, idx, []string{"CL"}, [][]float64{{1}, {2}, {3}, {4}, {5}, {6}})
	infl, err := frame.NewSeries("CPI", idx, []float64{2, 2, 2, 2, 2, 2})
	require.NoError(t, err)

	betas, err := InflationBetaSignal(monthly, infl, 3, 2)
	require.NoError(t, err)

	// a flat surprise series has no variance; the result is undefined rather than an error
	last := betas.At(5, 0)
	assert.True(t, math.IsNaN(last) || math.IsInf(last, 0))
}

func TestInflationBetaSignal_LengthMismatch(t *testing.T) {
	monthly := tableOf(t, monthEnds(4), []string{"CL"}, [][]float64{{1}, {2}, {3}, {4}})
	infl, err := frame.NewSeries("CPI", monthEnds(3), []float64{1, 2, 3})
	require.NoError(t, err)

	_, err = InflationBetaSignal(monthly, infl, 2, 2)
	assert.ErrorIs(t, err, frame.ErrShapeMismatch)
}
