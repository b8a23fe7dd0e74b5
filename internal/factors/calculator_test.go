package factors

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/cfactor/internal/config"
	"github.com/sawpanic/cfactor/internal/frame"
	"github.com/sawpanic/cfactor/internal/metrics"
)

const (
	testMonths = 84
	testDays   = 300
)

func newTestCalculator(t *testing.T, opts ...Option) *Calculator {
	t.Helper()
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	c, err := NewCalculator(config.DefaultFactorConfig(), opts...)
	require.NoError(t, err)
	return c
}

func TestCompute_ReturnsExactlyTenFactors(t *testing.T) {
	res, err := newTestCalculator(t).Compute(context.Background(), syntheticInputs(t, testMonths, testDays))
	require.NoError(t, err)

	assert.Len(t, res, 10)
	assert.Equal(t, AllNames(), res.Names())

	for _, name := range AllNames() {
		out, ok := res[name]
		require.True(t, ok, "missing %s", name)
		assert.Equal(t, name, out.Name)
		if name == AVG {
			assert.True(t, out.IsSeries())
			continue
		}
		require.NotNil(t, out.Signal, name)
		require.NotNil(t, out.Weights, name)
		assert.NoError(t, out.Signal.SameShape(out.Weights), name)
	}
}

func TestCompute_AVGIsCrossSectionalMean(t *testing.T) {
	in := syntheticInputs(t, testMonths, testDays)
	res, err := newTestCalculator(t).Compute(context.Background(), in)
	require.NoError(t, err)

	avg := res[AVG].Series
	require.Equal(t, in.MonthlyReturns.Rows(), avg.Len())
	for i := 0; i < avg.Len(); i++ {
		var sum float64
		row := in.MonthlyReturns.Row(i)
		for _, v := range row {
			sum += v
		}
		assert.InDelta(t, sum/float64(len(row)), avg.At(i), 1e-12)
	}
}

func TestCompute_WeightsAreBucketed(t *testing.T) {
	res, err := newTestCalculator(t).Compute(context.Background(), syntheticInputs(t, testMonths, testDays))
	require.NoError(t, err)

	third := 1.0 / 3
	for _, name := range AllNames()[1:] {
		w := res[name].Weights
		for i := 0; i < w.Rows(); i++ {
			for _, v := range w.Row(i) {
				if math.IsNaN(v) {
					continue
				}
				assert.Contains(t, []float64{third, -third, 0}, v, "%s row %d", name, i)
			}
		}
	}
}

func TestCompute_WarmupRowsAreMissing(t *testing.T) {
	res, err := newTestCalculator(t).Compute(context.Background(), syntheticInputs(t, testMonths, testDays))
	require.NoError(t, err)

	warmups := map[Name]int{
		Momentum:      12, // 12-month window plus one month lag
		BasisMomentum: 12,
		Value:         59,
		Skewness:      11,
		InflationBeta: 70, // 11 rows of trend, then a 60-row window
		Volatility:    251,
	}

	for name, rows := range warmups {
		w := res[name].Weights
		for i := 0; i < rows; i++ {
			for _, v := range w.Row(i) {
				assert.True(t, math.IsNaN(v), "%s row %d should be missing", name, i)
			}
		}
		for _, v := range w.Row(rows) {
			assert.False(t, math.IsNaN(v), "%s row %d should be populated", name, rows)
		}
	}

	// no window: the first row is already ranked
	for _, name := range []Name{Basis, HedgingPressure, OpenInterest} {
		for _, v := range res[name].Weights.Row(0) {
			assert.False(t, math.IsNaN(v), "%s row 0", name)
		}
	}
}

func TestCompute_Idempotent(t *testing.T) {
	in := syntheticInputs(t, testMonths, testDays)

	first, err := newTestCalculator(t).Compute(context.Background(), in)
	require.NoError(t, err)
	second, err := newTestCalculator(t).Compute(context.Background(), in)
	require.NoError(t, err)
	parallel, err := newTestCalculator(t, WithParallelism(4)).Compute(context.Background(), in)
	require.NoError(t, err)

	for _, name := range AllNames() {
		if name == AVG {
			assert.True(t, first[name].Series.Equal(second[name].Series))
			assert.True(t, first[name].Series.Equal(parallel[name].Series))
			continue
		}
		assert.True(t, first[name].Weights.Equal(second[name].Weights), name)
		assert.True(t, first[name].Weights.Equal(parallel[name].Weights), name)
		assert.True(t, first[name].Signal.Equal(parallel[name].Signal), name)
	}
}

func TestCompute_SingleDateScenario(t *testing.T) {
	idx := monthEnds(1)
	cols := []string{"CL", "NG", "GC"}
	one := func(vals ...float64) *frame.Table { return tableOf(t, idx, cols, [][]float64{vals}) }
	infl, err := frame.NewSeries("CPI", idx, []float64{0.002})
	require.NoError(t, err)

	in := Inputs{
		MonthlyReturns: one(0.01, 0.02, 0.03),
		Futures:        map[string]*frame.Table{TenorNear: one(100, 100, 100), TenorNext: one(105, 95, 100)},
		CFTC:           map[string]*frame.Table{PositionLong: one(600, 100, 500), PositionShort: one(400, 300, 500)},
		DailyReturns:   one(0.001, 0.002, 0.003),
		Inflation:      infl,
		OpenInterest:   one(1.0, 2.0, 3.0),
	}

	res, err := newTestCalculator(t).Compute(context.Background(), in)
	require.NoError(t, err)

	third := 1.0 / 3
	assert.Equal(t, []float64{-third, 0, third}, res[OpenInterest].Weights.Row(0))

	assert.InDelta(t, 0.05, res[Basis].Signal.At(0, 0), 1e-12)
	assert.Equal(t, []float64{third, -third, 0}, res[Basis].Weights.Row(0))

	assert.InDelta(t, 0.2, res[HedgingPressure].Signal.At(0, 0), 1e-12)
	assert.InDelta(t, 0.02, res[AVG].Series.At(0), 1e-12)

	// nothing has history yet, so the windowed factors are entirely missing
	for _, v := range res[Momentum].Weights.Row(0) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestCompute_StructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Inputs)
		want   error
	}{
		{"missing_near_tenor", func(in *Inputs) { delete(in.Futures, TenorNear) }, ErrMissingTenor},
		{"missing_next_tenor", func(in *Inputs) { in.Futures[TenorNext] = nil }, ErrMissingTenor},
		{"missing_commercial_short", func(in *Inputs) { delete(in.CFTC, PositionShort) }, ErrMissingPosition},
		{"nil_monthly", func(in *Inputs) { in.MonthlyReturns = nil }, ErrMissingInput},
		{"nil_inflation", func(in *Inputs) { in.Inflation = nil }, ErrMissingInput},
		{"nil_daily", func(in *Inputs) { in.DailyReturns = nil }, ErrMissingInput},
		{"nil_open_interest", func(in *Inputs) { in.OpenInterest = nil }, ErrMissingInput},
		{"misaligned_tenors", func(in *Inputs) {
			f1 := in.Futures[TenorNear]
			in.Futures[TenorNear] = tableOf(t, f1.Index(), []string{"CL"}, func() [][]float64 {
				rows := make([][]float64, f1.Rows())
				for i := range rows {
					rows[i] = []float64{f1.At(i, 0)}
				}
				return rows
			}())
		}, frame.ErrShapeMismatch},
	}

	for _, tt := range tests {
		for _, parallelism := range []int{1, 4} {
			t.Run(fmt.Sprintf("%s/parallel_%d", tt.name, parallelism), func(t *testing.T) {
				in := syntheticInputs(t, 24, 30)
				tt.mutate(&in)

				_, err := newTestCalculator(t, WithParallelism(parallelism)).Compute(context.Background(), in)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	}
}

func TestCompute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, parallelism := range []int{1, 4} {
		_, err := newTestCalculator(t, WithParallelism(parallelism)).Compute(ctx, syntheticInputs(t, 24, 30))
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestCompute_RecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	_, err := newTestCalculator(t, WithMetrics(reg)).Compute(context.Background(), syntheticInputs(t, 24, 30))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Runs.WithLabelValues("ok")))
	assert.Equal(t, 10, testutil.CollectAndCount(reg.FactorMissing))
	// 30 daily rows never fill a 252-day window
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.FactorMissing.WithLabelValues(string(Volatility))))
}

func TestCompute_ReportsProgress(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []Name
	)
	progress := WithProgress(func(n Name) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, n)
	})

	_, err := newTestCalculator(t, progress, WithParallelism(4)).Compute(context.Background(), syntheticInputs(t, 24, 30))
	require.NoError(t, err)
	assert.ElementsMatch(t, AllNames(), seen)
}

func TestNewCalculator_RejectsBadConfig(t *testing.T) {
	cfg := config.DefaultFactorConfig()
	cfg.Buckets = 0
	_, err := NewCalculator(cfg)
	assert.Error(t, err)
}

func TestCalculate_Defaults(t *testing.T) {
	res, err := Calculate(syntheticInputs(t, 24, 30))
	require.NoError(t, err)
	assert.Len(t, res, 10)
}

func TestResult_Summary(t *testing.T) {
	in := syntheticInputs(t, testMonths, testDays)
	res, err := newTestCalculator(t).Compute(context.Background(), in)
	require.NoError(t, err)

	rows := res.Summary()
	require.Len(t, rows, 10)
	assert.Equal(t, AVG, rows[0].Name)

	for _, row := range rows[1:] {
		assert.Equal(t, len(testAssets), row.Long+row.Short+row.Flat+row.Missing, row.Name)
		assert.InDelta(t, float64(row.Long-row.Short)/3, row.Net, 1e-12, row.Name)
	}
}

func BenchmarkCompute(b *testing.B) {
	in := syntheticInputs(b, 240, 5040)
	c, err := NewCalculator(config.DefaultFactorConfig(), WithLogger(zerolog.Nop()))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Compute(context.Background(), in); err != nil {
			b.Fatal(err)
		}
	}
}
