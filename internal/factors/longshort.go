package factors

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sawpanic/cfactor/internal/frame"
)

// PercentileRank ranks values in (0, 1]: the average 1-based rank of ties divided by the
// number of non-missing values. Missing values keep a NaN rank.
func PercentileRank(values []float64) []float64 {
	ranks := make([]float64, len(values))
	order := make([]int, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			ranks[i] = math.NaN()
			continue
		}
		order = append(order, i)
	}
	if len(order) == 0 {
		return ranks
	}

	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	count := float64(len(order))
	for lo := 0; lo < len(order); {
		hi := lo
		for hi+1 < len(order) && values[order[hi+1]] == values[order[lo]] {
			hi++
		}
		// positions lo..hi hold 1-based ranks lo+1..hi+1
		avg := float64(lo+hi+2) / 2
		for k := lo; k <= hi; k++ {
			ranks[order[k]] = avg / count
		}
		lo = hi + 1
	}
	return ranks
}

// LongShort turns a factor table into long-short weights: per date, assets ranked above
// 1-1/n get +1/n, assets ranked at or below 1/n get -1/n, everything else 0.
// A missing factor value is flat (0) when its row has other values; a row with no
// values at all stays missing.
func LongShort(signal *frame.Table, n int) (*frame.Table, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBuckets, n)
	}

	buckets := float64(n)
	upper := 1 - 1/buckets
	lower := 1 / buckets

	out := mat.NewDense(signal.Rows(), signal.Cols(), nil)
	for i := 0; i < signal.Rows(); i++ {
		row := signal.Row(i)
		if floats.Count(isValue, row) == 0 {
			for j := range row {
				out.Set(i, j, math.NaN())
			}
			continue
		}
		for j, pct := range PercentileRank(row) {
			var w float64
			if pct > upper {
				w++
			}
			if pct <= lower {
				w--
			}
			out.Set(i, j, w/buckets)
		}
	}
	return frame.FromDense(signal.Index(), signal.Columns(), out)
}

func isValue(v float64) bool { return !math.IsNaN(v) }
