package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/cfactor/internal/factors"
	"github.com/sawpanic/cfactor/internal/frame"
)

func singleDateResult(t *testing.T) factors.Result {
	t.Helper()
	idx := []time.Time{time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)}
	cols := []string{"CL", "NG", "GC"}
	one := func(vals ...float64) *frame.Table {
		tbl, err := frame.NewTable(idx, cols, [][]float64{vals})
		require.NoError(t, err)
		return tbl
	}
	infl, err := frame.NewSeries("CPI", idx, []float64{0.002})
	require.NoError(t, err)

	res, err := factors.Calculate(factors.Inputs{
		MonthlyReturns: one(0.01, 0.02, 0.03),
		Futures:        map[string]*frame.Table{factors.TenorNear: one(100, 100, 100), factors.TenorNext: one(105, 95, 100)},
		CFTC:           map[string]*frame.Table{factors.PositionLong: one(600, 100, 500), factors.PositionShort: one(400, 300, 500)},
		DailyReturns:   one(0.001, 0.002, 0.003),
		Inflation:      infl,
		OpenInterest:   one(1, 2, 3),
	})
	require.NoError(t, err)
	return res
}

func TestFormatWeight(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.0 / 3, "0.3333"},
		{-1.0 / 3, "-0.3333"},
		{0, "0.0000"},
		{0.02, "0.0200"},
		{math.NaN(), "-"},
		{math.Inf(1), "-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatWeight(tt.in))
	}
}

func TestSummaryTable(t *testing.T) {
	out := SummaryTable(singleDateResult(t)).Render()

	for _, name := range factors.AllNames() {
		assert.Contains(t, out, string(name))
	}
	assert.Contains(t, out, "2024-06-30")
	assert.Contains(t, out, "0.0200", "AVG value")

	// ten factor rows, each stamped with the latest date
	var rows int
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "2024-06-30") {
			rows++
		}
	}
	assert.Equal(t, 10, rows)
}

func TestLatestWeights(t *testing.T) {
	res := singleDateResult(t)

	w, err := LatestWeights(res, factors.OpenInterest)
	require.NoError(t, err)
	out := w.Render()
	assert.Contains(t, out, "Open Interest 2024-06-30")
	assert.Contains(t, out, "-0.3333")
	assert.Contains(t, out, "0.3333")

	w, err = LatestWeights(res, factors.Momentum)
	require.NoError(t, err)
	assert.Contains(t, w.Render(), " - ", "missing weights render as a dash")

	w, err = LatestWeights(res, factors.AVG)
	require.NoError(t, err)
	assert.Contains(t, w.Render(), "0.0200")

	_, err = LatestWeights(factors.Result{}, factors.Value)
	assert.ErrorIs(t, err, ErrUnknownFactor)
}
