// Package report renders calculator results as console tables
package report

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/sawpanic/cfactor/internal/factors"
)

// ErrUnknownFactor is returned when a result has no entry for the requested factor
var ErrUnknownFactor = errors.New("report: unknown factor")

const weightPlaces = 4

// SummaryTable renders one row per factor describing its latest cross-section
func SummaryTable(res factors.Result) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Commodity factors")
	t.AppendHeader(table.Row{"Factor", "Date", "Rows", "Long", "Short", "Flat", "Missing", "Net"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Rows", Align: text.AlignRight},
		{Name: "Net", Align: text.AlignRight},
	})

	for _, row := range res.Summary() {
		if row.Name == factors.AVG {
			t.AppendRow(table.Row{row.Name, row.Date.Format(time.DateOnly), row.Rows, "", "", "", row.Missing, FormatWeight(row.Net)})
			continue
		}
		t.AppendRow(table.Row{
			row.Name, row.Date.Format(time.DateOnly), row.Rows,
			row.Long, row.Short, row.Flat, row.Missing, FormatWeight(row.Net),
		})
	}
	return t
}

// LatestWeights renders the per-asset weights of one factor at its latest date.
// For AVG the single latest value is shown.
func LatestWeights(res factors.Result, name factors.Name) (table.Writer, error) {
	out, ok := res[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFactor, name)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	if out.IsSeries() {
		s := out.Series
		last := s.Len() - 1
		t.SetTitle(fmt.Sprintf("%s %s", name, s.Index()[last].Format(time.DateOnly)))
		t.AppendHeader(table.Row{"Series", "Value"})
		t.AppendRow(table.Row{s.Name(), FormatWeight(s.At(last))})
		return t, nil
	}

	w := out.Weights
	last := w.Rows() - 1
	t.SetTitle(fmt.Sprintf("%s %s", name, w.Index()[last].Format(time.DateOnly)))
	t.AppendHeader(table.Row{"Asset", "Weight"})
	for j, asset := range w.Columns() {
		t.AppendRow(table.Row{asset, FormatWeight(w.At(last, j))})
	}
	return t, nil
}

// FormatWeight prints v with four decimals, or "-" when it is missing
func FormatWeight(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return decimal.NewFromFloat(v).StringFixed(weightPlaces)
}
