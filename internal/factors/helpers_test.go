package factors

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sawpanic/cfactor/internal/frame"
)

var testAssets = []string{"CL", "NG", "GC", "SI", "HG", "ZC"}

func monthEnds(n int) []time.Time {
	start := time.Date(2010, time.January, 31, 0, 0, 0, 0, time.UTC)
	idx := make([]time.Time, n)
	for i := range idx {
		// last day of month i
		idx[i] = time.Date(start.Year(), start.Month()+time.Month(i)+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return idx
}

func businessDays(n int) []time.Time {
	idx := make([]time.Time, 0, n)
	d := time.Date(2010, time.January, 4, 0, 0, 0, 0, time.UTC)
	for len(idx) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			idx = append(idx, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return idx
}

func tableOf(t testing.TB, index []time.Time, columns []string, data [][]float64) *frame.Table {
	t.Helper()
	tbl, err := frame.NewTable(index, columns, data)
	require.NoError(t, err)
	return tbl
}

func randomTable(t testing.TB, rng *rand.Rand, index []time.Time, columns []string, gen func(*rand.Rand) float64) *frame.Table {
	t.Helper()
	data := make([][]float64, len(index))
	for i := range data {
		data[i] = make([]float64, len(columns))
		for j := range data[i] {
			data[i][j] = gen(rng)
		}
	}
	return tableOf(t, index, columns, data)
}

// syntheticInputs builds a deterministic panel long enough for every window to fill
func syntheticInputs(t testing.TB, months, days int) Inputs {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	mIdx := monthEnds(months)
	dIdx := businessDays(days)

	ret := func(r *rand.Rand) float64 { return r.NormFloat64() * 0.05 }
	price := func(r *rand.Rand) float64 { return 50 + r.Float64()*50 }
	position := func(r *rand.Rand) float64 { return float64(1000 + r.Intn(100000)) }

	inflation := make([]float64, months)
	for i := range inflation {
		inflation[i] = 0.002 + rng.NormFloat64()*0.001
	}
	infl, err := frame.NewSeries("CPI", mIdx, inflation)
	require.NoError(t, err)

	return Inputs{
		MonthlyReturns: randomTable(t, rng, mIdx, testAssets, ret),
		Futures: map[string]*frame.Table{
			TenorNear: randomTable(t, rng, mIdx, testAssets, price),
			TenorNext: randomTable(t, rng, mIdx, testAssets, price),
		},
		CFTC: map[string]*frame.Table{
			PositionLong:  randomTable(t, rng, mIdx, testAssets, position),
			PositionShort: randomTable(t, rng, mIdx, testAssets, position),
		},
		DailyReturns: randomTable(t, rng, dIdx, testAssets, func(r *rand.Rand) float64 { return r.NormFloat64() * 0.02 }),
		Inflation:    infl,
		OpenInterest: randomTable(t, rng, mIdx, testAssets, position),
	}
}

func weightString(w []float64) string {
	return fmt.Sprintf("%.4f", w)
}
