// Package io reads and writes the date-indexed CSV tables consumed and produced
// by the factor calculator.
package io

import (
	"errors"
	"fmt"
	stdio "io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/sawpanic/cfactor/internal/frame"
)

// DateColumn is the header written above the date index
const DateColumn = "date"

var (
	// ErrNoValueColumns is returned for a CSV with a date column only
	ErrNoValueColumns = errors.New("io: no value columns")

	// ErrNotASeries is returned when a series file carries more than one value column
	ErrNotASeries = errors.New("io: expected exactly one value column")

	// ErrBadDate is returned when an index cell is not a recognised date
	ErrBadDate = errors.New("io: unparseable date")

	// ErrBadValue is returned for a value cell that is neither a number nor a missing marker
	ErrBadValue = errors.New("io: unparseable value")
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// missing cells, in addition to empty ones
var nanValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "<nil>"}

// ReadTable parses a CSV whose first column is the date index and whose
// remaining columns are assets. Empty cells and missing markers (NA, NaN, null)
// become NaN; any other non-numeric cell is an ErrBadValue.
func ReadTable(r stdio.Reader) (*frame.Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read table: %w", df.Err)
	}
	if df.Ncol() < 2 {
		return nil, ErrNoValueColumns
	}

	names := df.Names()
	index, err := parseDates(df.Col(names[0]).Records())
	if err != nil {
		return nil, err
	}

	columns := names[1:]
	data := make([][]float64, df.Nrow())
	for i := range data {
		data[i] = make([]float64, len(columns))
	}
	for j, name := range columns {
		col := df.Col(name)
		for i := range data {
			v, err := parseValue(col.Elem(i))
			if err != nil {
				return nil, fmt.Errorf("%w: %q in column %s, row %d", ErrBadValue, col.Elem(i).String(), name, i+1)
			}
			data[i][j] = v
		}
	}

	return frame.NewTable(index, columns, data)
}

// parseValue maps the missing markers to NaN and rejects any other non-number
func parseValue(e series.Element) (float64, error) {
	cell := strings.TrimSpace(e.String())
	if e.IsNA() || cell == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

// ReadSeries parses a CSV with a date column and exactly one value column
func ReadSeries(r stdio.Reader) (*frame.Series, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	if t.Cols() != 1 {
		return nil, fmt.Errorf("%w: got %v", ErrNotASeries, t.Columns())
	}
	return t.Column(t.Columns()[0])
}

// LoadTable reads a table from a CSV file
func LoadTable(path string) (*frame.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadSeries reads a single-column series from a CSV file
func LoadSeries(path string) (*frame.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteTable writes t as CSV with a date column first. Values keep full
// precision; NaN cells are written empty.
func WriteTable(w stdio.Writer, t *frame.Table) error {
	cols := make([]series.Series, 0, t.Cols()+1)
	cols = append(cols, series.New(formatDates(t.Index()), series.String, DateColumn))
	for j, name := range t.Columns() {
		cols = append(cols, series.New(formatValues(t.Col(j)), series.String, name))
	}
	return dataframe.New(cols...).WriteCSV(w)
}

// WriteSeries writes s as a two-column CSV
func WriteSeries(w stdio.Writer, s *frame.Series) error {
	return dataframe.New(
		series.New(formatDates(s.Index()), series.String, DateColumn),
		series.New(formatValues(s.Values()), series.String, s.Name()),
	).WriteCSV(w)
}

func parseDates(cells []string) ([]time.Time, error) {
	index := make([]time.Time, len(cells))
	for i, cell := range cells {
		d, err := ParseDate(strings.TrimSpace(cell))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d %q", ErrBadDate, i+1, cell)
		}
		index[i] = d
	}
	return index, nil
}

// ParseDate accepts ISO dates and the timestamp layouts commonly written for a datetime index
func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var d time.Time
		if d, err = time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, err
}

// FormatDate writes midnight dates as 2006-01-02 and anything else as RFC3339
func FormatDate(d time.Time) string {
	if d.Equal(d.Truncate(24 * time.Hour)) {
		return d.Format(time.DateOnly)
	}
	return d.Format(time.RFC3339)
}

func formatDates(index []time.Time) []string {
	out := make([]string, len(index))
	for i, d := range index {
		out[i] = FormatDate(d)
	}
	return out
}

func formatValues(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}
