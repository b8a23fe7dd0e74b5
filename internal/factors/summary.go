package factors

import (
	"math"
	"time"
)

// SummaryRow describes a factor at the latest date of its output
type SummaryRow struct {
	Name    Name
	Date    time.Time
	Rows    int
	Long    int
	Short   int
	Flat    int
	Missing int
	Net     float64 // sum of weights, or the AVG value itself
}

// Summary condenses each factor to its latest cross-section, in canonical order
func (r Result) Summary() []SummaryRow {
	rows := make([]SummaryRow, 0, len(r))
	for _, name := range r.Names() {
		out := r[name]
		if out.IsSeries() {
			s := out.Series
			last := s.Len() - 1
			row := SummaryRow{Name: name, Date: s.Index()[last], Rows: s.Len(), Net: s.At(last)}
			if math.IsNaN(row.Net) {
				row.Missing = 1
			}
			rows = append(rows, row)
			continue
		}

		w := out.Weights
		last := w.Rows() - 1
		row := SummaryRow{Name: name, Date: w.Index()[last], Rows: w.Rows()}
		for _, v := range w.Row(last) {
			switch {
			case math.IsNaN(v):
				row.Missing++
				continue
			case v > 0:
				row.Long++
			case v < 0:
				row.Short++
			default:
				row.Flat++
			}
			row.Net += v
		}
		rows = append(rows, row)
	}
	return rows
}
