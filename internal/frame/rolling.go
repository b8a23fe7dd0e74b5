package frame

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Window evaluates statistics over trailing windows of a fixed size.
// A window that is incomplete or contains a NaN produces NaN.
type Window struct {
	table *Table
	size  int
}

// Rolling returns a trailing window view over the table
func (t *Table) Rolling(size int) (*Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, size)
	}
	return &Window{table: t, size: size}, nil
}

// Apply evaluates fn over each complete trailing window, column by column
func (w *Window) Apply(fn func(window []float64) float64) *Table {
	t := w.table
	out := mat.NewDense(t.Rows(), t.Cols(), nil)
	for j := 0; j < t.Cols(); j++ {
		out.SetCol(j, rollingApply(t.Col(j), w.size, fn))
	}
	return t.derive(out)
}

// Sum is the trailing sum
func (w *Window) Sum() *Table { return w.Apply(floats.Sum) }

// Mean is the trailing arithmetic mean
func (w *Window) Mean() *Table {
	return w.Apply(func(x []float64) float64 { return stat.Mean(x, nil) })
}

// Std is the trailing sample standard deviation (n-1 denominator)
func (w *Window) Std() *Table {
	return w.Apply(func(x []float64) float64 { return stat.StdDev(x, nil) })
}

// Skew is the trailing bias-corrected sample skewness
func (w *Window) Skew() *Table {
	return w.Apply(func(x []float64) float64 { return stat.Skew(x, nil) })
}

// SeriesWindow is the single-column counterpart of Window
type SeriesWindow struct {
	series *Series
	size   int
}

// Rolling returns a trailing window view over the series
func (s *Series) Rolling(size int) (*SeriesWindow, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, size)
	}
	return &SeriesWindow{series: s, size: size}, nil
}

// Apply evaluates fn over each complete trailing window
func (w *SeriesWindow) Apply(fn func(window []float64) float64) *Series {
	s := w.series
	return &Series{index: s.index, name: s.name, values: rollingApply(s.values, w.size, fn)}
}

// Mean is the trailing arithmetic mean
func (w *SeriesWindow) Mean() *Series {
	return w.Apply(func(x []float64) float64 { return stat.Mean(x, nil) })
}

// RollingPairwise evaluates fn(column window, series window) for every column of t
// and every trailing window of the given size. t and s must have the same length.
func RollingPairwise(t *Table, s *Series, size int, fn func(x, y []float64) float64) (*Table, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, size)
	}
	if t.Rows() != s.Len() {
		return nil, fmt.Errorf("%w: table has %d rows, series %q has %d", ErrShapeMismatch, t.Rows(), s.name, s.Len())
	}

	out := mat.NewDense(t.Rows(), t.Cols(), nil)
	for j := 0; j < t.Cols(); j++ {
		col := t.Col(j)
		for end := 0; end < len(col); end++ {
			start := end - size + 1
			if start < 0 {
				out.Set(end, j, math.NaN())
				continue
			}
			x, y := col[start:end+1], s.values[start:end+1]
			if floats.HasNaN(x) || floats.HasNaN(y) {
				out.Set(end, j, math.NaN())
				continue
			}
			out.Set(end, j, fn(x, y))
		}
	}
	return t.derive(out), nil
}

func rollingApply(values []float64, size int, fn func([]float64) float64) []float64 {
	out := make([]float64, len(values))
	for end := range values {
		start := end - size + 1
		if start < 0 || floats.HasNaN(values[start:end+1]) {
			out[end] = math.NaN()
			continue
		}
		out[end] = fn(values[start : end+1])
	}
	return out
}
