package frame

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Series is a single date-indexed column
type Series struct {
	index  []time.Time
	name   string
	values []float64
}

// NewSeries builds a series; index and values must have the same length
func NewSeries(name string, index []time.Time, values []float64) (*Series, error) {
	if len(index) == 0 {
		return nil, ErrEmptyTable
	}
	if len(index) != len(values) {
		return nil, fmt.Errorf("%w: %d dates, %d values", ErrShapeMismatch, len(index), len(values))
	}
	return &Series{index: slices.Clone(index), name: name, values: slices.Clone(values)}, nil
}

// Name returns the series label
func (s *Series) Name() string { return s.name }

// Len returns the number of observations
func (s *Series) Len() int { return len(s.values) }

// Index returns a copy of the date index
func (s *Series) Index() []time.Time { return slices.Clone(s.index) }

// Values returns a copy of the observations
func (s *Series) Values() []float64 { return slices.Clone(s.values) }

// At returns observation i
func (s *Series) At(i int) float64 { return s.values[i] }

// Rename returns the same observations under another label
func (s *Series) Rename(name string) *Series {
	return &Series{index: s.index, name: name, values: s.values}
}

// Sub returns s - other element-wise
func (s *Series) Sub(other *Series) (*Series, error) {
	if s.Len() != other.Len() {
		return nil, fmt.Errorf("%w: %d vs %d observations", ErrShapeMismatch, s.Len(), other.Len())
	}
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.values[i] - other.values[i]
	}
	return &Series{index: s.index, name: s.name, values: out}, nil
}

// Missing counts NaN observations
func (s *Series) Missing() int {
	n := 0
	for _, v := range s.values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Equal reports whether both series carry identical labels and bit-identical values
func (s *Series) Equal(other *Series) bool {
	if other == nil || s.name != other.name || !slices.EqualFunc(s.index, other.index, time.Time.Equal) {
		return false
	}
	return slices.EqualFunc(s.values, other.values, func(a, b float64) bool {
		return math.Float64bits(a) == math.Float64bits(b)
	})
}
