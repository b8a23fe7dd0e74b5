// Package frame holds the date-indexed tables the factor calculator works on.
// Rows are dates, columns are assets, NaN marks a missing observation.
package frame

import (
	"fmt"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Table is an immutable date × asset matrix of observations
type Table struct {
	index   []time.Time
	columns []string
	values  *mat.Dense
}

// NewTable builds a table from row-major data. Every row must have len(columns) values.
func NewTable(index []time.Time, columns []string, data [][]float64) (*Table, error) {
	if len(index) == 0 || len(columns) == 0 {
		return nil, ErrEmptyTable
	}
	if len(data) != len(index) {
		return nil, fmt.Errorf("%w: %d rows of data for %d dates", ErrShapeMismatch, len(data), len(index))
	}

	flat := make([]float64, 0, len(index)*len(columns))
	for i, row := range data {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrShapeMismatch, i, len(row), len(columns))
		}
		flat = append(flat, row...)
	}

	return FromDense(index, columns, mat.NewDense(len(index), len(columns), flat))
}

// FromDense wraps an existing matrix. The matrix is copied.
func FromDense(index []time.Time, columns []string, m mat.Matrix) (*Table, error) {
	if len(index) == 0 || len(columns) == 0 {
		return nil, ErrEmptyTable
	}
	r, c := m.Dims()
	if r != len(index) || c != len(columns) {
		return nil, fmt.Errorf("%w: matrix is %dx%d, labels are %dx%d", ErrShapeMismatch, r, c, len(index), len(columns))
	}

	seen := make(map[string]struct{}, len(columns))
	for _, name := range columns {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		seen[name] = struct{}{}
	}

	return &Table{
		index:   slices.Clone(index),
		columns: slices.Clone(columns),
		values:  mat.DenseCopyOf(m),
	}, nil
}

// derive builds a table with the receiver's labels around freshly computed values
func (t *Table) derive(values *mat.Dense) *Table {
	return &Table{index: t.index, columns: t.columns, values: values}
}

// Rows returns the number of dates
func (t *Table) Rows() int { return len(t.index) }

// Cols returns the number of assets
func (t *Table) Cols() int { return len(t.columns) }

// Index returns a copy of the date index
func (t *Table) Index() []time.Time { return slices.Clone(t.index) }

// Columns returns a copy of the column names
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// At returns the value at row i, column j
func (t *Table) At(i, j int) float64 { return t.values.At(i, j) }

// Row returns a copy of row i
func (t *Table) Row(i int) []float64 { return mat.Row(nil, i, t.values) }

// Col returns a copy of column j
func (t *Table) Col(j int) []float64 { return mat.Col(nil, j, t.values) }

// Dense returns a copy of the underlying matrix
func (t *Table) Dense() *mat.Dense { return mat.DenseCopyOf(t.values) }

// ColumnIndex reports the position of a named column
func (t *Table) ColumnIndex(name string) (int, bool) {
	j := slices.Index(t.columns, name)
	return j, j >= 0
}

// Column extracts a named column as a series
func (t *Table) Column(name string) (*Series, error) {
	j, ok := t.ColumnIndex(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return &Series{index: t.index, name: name, values: t.Col(j)}, nil
}

// SameShape checks that other has the same number of dates and the same columns in the same order
func (t *Table) SameShape(other *Table) error {
	if t.Rows() != other.Rows() {
		return fmt.Errorf("%w: %d rows vs %d rows", ErrShapeMismatch, t.Rows(), other.Rows())
	}
	if !slices.Equal(t.columns, other.columns) {
		return fmt.Errorf("%w: columns %v vs %v", ErrShapeMismatch, t.columns, other.columns)
	}
	return nil
}

// Apply maps fn over every cell
func (t *Table) Apply(fn func(float64) float64) *Table {
	out := mat.NewDense(t.Rows(), t.Cols(), nil)
	out.Apply(func(_, _ int, v float64) float64 { return fn(v) }, t.values)
	return t.derive(out)
}

// Scale multiplies every cell by k
func (t *Table) Scale(k float64) *Table {
	out := mat.NewDense(t.Rows(), t.Cols(), nil)
	out.Scale(k, t.values)
	return t.derive(out)
}

// Neg flips the sign of every cell
func (t *Table) Neg() *Table { return t.Scale(-1) }

// Combine applies fn cell by cell over two tables of the same shape
func Combine(a, b *Table, fn func(x, y float64) float64) (*Table, error) {
	if err := a.SameShape(b); err != nil {
		return nil, err
	}
	out := mat.NewDense(a.Rows(), a.Cols(), nil)
	out.Apply(func(i, j int, v float64) float64 { return fn(v, b.values.At(i, j)) }, a.values)
	return a.derive(out), nil
}

// Shift lags the table by k rows. The first k rows become NaN.
func (t *Table) Shift(k int) *Table {
	rows, cols := t.Rows(), t.Cols()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		src := i - k
		for j := 0; j < cols; j++ {
			if src < 0 || src >= rows {
				out.Set(i, j, math.NaN())
				continue
			}
			out.Set(i, j, t.values.At(src, j))
		}
	}
	return t.derive(out)
}

// FillForward replaces each missing value with the last observed value above it in
// the same column. Leading missing values stay NaN.
func (t *Table) FillForward() *Table {
	out := t.Dense()
	rows, cols := out.Dims()
	for j := 0; j < cols; j++ {
		last := math.NaN()
		for i := 0; i < rows; i++ {
			v := out.At(i, j)
			if math.IsNaN(v) {
				out.Set(i, j, last)
				continue
			}
			last = v
		}
	}
	return t.derive(out)
}

// PctChange returns x(t)/x(t-k) - 1 after forward-filling gaps, so a missing price
// is carried from the previous observation. The first k rows are NaN.
func (t *Table) PctChange(k int) (*Table, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: pct change period %d", ErrInvalidWindow, k)
	}
	filled := t.FillForward()
	return Combine(filled, filled.Shift(k), func(cur, prev float64) float64 {
		return cur/prev - 1
	})
}

// RowMean averages each row over its non-missing values. A row with nothing observed is NaN.
func (t *Table) RowMean() *Series {
	values := make([]float64, t.Rows())
	for i := range values {
		var sum float64
		var n int
		for _, v := range t.values.RawRowView(i) {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			values[i] = math.NaN()
			continue
		}
		values[i] = sum / float64(n)
	}
	return &Series{index: t.index, name: "mean", values: values}
}

// Missing counts NaN cells
func (t *Table) Missing() int {
	n := 0
	for i := 0; i < t.Rows(); i++ {
		for _, v := range t.values.RawRowView(i) {
			if math.IsNaN(v) {
				n++
			}
		}
	}
	return n
}

// Equal reports whether both tables carry identical labels and bit-identical values
func (t *Table) Equal(other *Table) bool {
	if other == nil || !slices.EqualFunc(t.index, other.index, time.Time.Equal) || !slices.Equal(t.columns, other.columns) {
		return false
	}
	for i := 0; i < t.Rows(); i++ {
		a, b := t.values.RawRowView(i), other.values.RawRowView(i)
		for j := range a {
			if math.Float64bits(a[j]) != math.Float64bits(b[j]) {
				return false
			}
		}
	}
	return true
}
