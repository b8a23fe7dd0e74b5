package http

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sawpanic/cfactor/internal/factors"
	"github.com/sawpanic/cfactor/internal/frame"
	cio "github.com/sawpanic/cfactor/internal/io"
)

// Float is a float64 that travels as JSON null when it is NaN or infinite
type Float float64

// MarshalJSON implements json.Marshaler
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN
func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", b, err)
	}
	*f = Float(v)
	return nil
}

// TablePayload is a date-indexed table: data[i][j] is the value of columns[j] on index[i]
type TablePayload struct {
	Index   []string  `json:"index" validate:"required,min=1,dive,required"`
	Columns []string  `json:"columns" validate:"required,min=1,unique,dive,required"`
	Data    [][]Float `json:"data" validate:"required,min=1"`
}

// SeriesPayload is a named date-indexed column
type SeriesPayload struct {
	Name   string   `json:"name"`
	Index  []string `json:"index" validate:"required,min=1,dive,required"`
	Values []Float  `json:"values" validate:"required,min=1"`
}

// ComputeRequest carries the six calculator inputs
type ComputeRequest struct {
	MonthlyReturns TablePayload            `json:"monthly_returns"`
	Futures        map[string]TablePayload `json:"futures" validate:"required,dive"`
	CFTC           map[string]TablePayload `json:"cftc" validate:"required,dive"`
	DailyReturns   TablePayload            `json:"daily_returns"`
	Inflation      SeriesPayload           `json:"inflation"`
	OpenInterest   TablePayload            `json:"open_interest"`

	// Optional overrides
	Buckets int      `json:"buckets,omitempty" validate:"omitempty,min=2"`
	Factors []string `json:"factors,omitempty"` // restricts the response; names or slugs
	Signals bool     `json:"signals,omitempty"` // include the raw signal of each factor
}

// ComputeResponse maps factor names to their outputs
type ComputeResponse struct {
	RequestID string                   `json:"request_id"`
	Generated time.Time                `json:"generated"`
	Buckets   int                      `json:"buckets"`
	Factors   map[string]FactorPayload `json:"factors"`
	Summary   []SummaryRow             `json:"summary"`
}

// FactorPayload is one factor: AVG carries a series, the others weights and optionally a signal
type FactorPayload struct {
	Series  *SeriesPayload `json:"series,omitempty"`
	Weights *TablePayload  `json:"weights,omitempty"`
	Signal  *TablePayload  `json:"signal,omitempty"`
}

// SummaryRow describes a factor's latest cross-section
type SummaryRow struct {
	Factor  string `json:"factor"`
	Date    string `json:"date"`
	Rows    int    `json:"rows"`
	Long    int    `json:"long"`
	Short   int    `json:"short"`
	Flat    int    `json:"flat"`
	Missing int    `json:"missing"`
	Net     Float  `json:"net"`
}

// FactorName pairs a canonical factor name with its slug
type FactorName struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// NamesResponse lists the factors in output order
type NamesResponse struct {
	Factors []FactorName `json:"factors"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// ErrorResponse represents API error responses
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTablePayload converts a frame table for transport
func NewTablePayload(t *frame.Table) *TablePayload {
	p := &TablePayload{
		Index:   formatIndex(t.Index()),
		Columns: t.Columns(),
		Data:    make([][]Float, t.Rows()),
	}
	for i := range p.Data {
		p.Data[i] = toFloats(t.Row(i))
	}
	return p
}

// Table converts the payload into a frame table
func (p TablePayload) Table() (*frame.Table, error) {
	index, err := parseIndex(p.Index)
	if err != nil {
		return nil, err
	}
	data := make([][]float64, len(p.Data))
	for i, row := range p.Data {
		data[i] = fromFloats(row)
	}
	return frame.NewTable(index, p.Columns, data)
}

// NewSeriesPayload converts a frame series for transport
func NewSeriesPayload(s *frame.Series) *SeriesPayload {
	return &SeriesPayload{
		Name:   s.Name(),
		Index:  formatIndex(s.Index()),
		Values: toFloats(s.Values()),
	}
}

// Series converts the payload into a frame series
func (p SeriesPayload) Series() (*frame.Series, error) {
	index, err := parseIndex(p.Index)
	if err != nil {
		return nil, err
	}
	name := p.Name
	if name == "" {
		name = "inflation"
	}
	return frame.NewSeries(name, index, fromFloats(p.Values))
}

// Inputs converts the request into calculator inputs
func (r ComputeRequest) Inputs() (factors.Inputs, error) {
	var in factors.Inputs
	var err error

	if in.MonthlyReturns, err = r.MonthlyReturns.Table(); err != nil {
		return in, fmt.Errorf("monthly_returns: %w", err)
	}
	if in.DailyReturns, err = r.DailyReturns.Table(); err != nil {
		return in, fmt.Errorf("daily_returns: %w", err)
	}
	if in.OpenInterest, err = r.OpenInterest.Table(); err != nil {
		return in, fmt.Errorf("open_interest: %w", err)
	}
	if in.Inflation, err = r.Inflation.Series(); err != nil {
		return in, fmt.Errorf("inflation: %w", err)
	}
	if in.Futures, err = tables("futures", r.Futures); err != nil {
		return in, err
	}
	if in.CFTC, err = tables("cftc", r.CFTC); err != nil {
		return in, err
	}
	return in, nil
}

// NewComputeResponse converts a calculator result, optionally restricted to names
func NewComputeResponse(res factors.Result, names []factors.Name, signals bool) ComputeResponse {
	if len(names) == 0 {
		names = res.Names()
	}
	wanted := make(map[factors.Name]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	resp := ComputeResponse{
		Generated: time.Now().UTC(),
		Factors:   make(map[string]FactorPayload, len(names)),
	}
	for _, n := range names {
		out, ok := res[n]
		if !ok {
			continue
		}
		var fp FactorPayload
		if out.IsSeries() {
			fp.Series = NewSeriesPayload(out.Series)
		} else {
			fp.Weights = NewTablePayload(out.Weights)
			if signals {
				fp.Signal = NewTablePayload(out.Signal)
			}
		}
		resp.Factors[string(n)] = fp
	}

	for _, row := range res.Summary() {
		if !wanted[row.Name] {
			continue
		}
		resp.Summary = append(resp.Summary, SummaryRow{
			Factor:  string(row.Name),
			Date:    cio.FormatDate(row.Date),
			Rows:    row.Rows,
			Long:    row.Long,
			Short:   row.Short,
			Flat:    row.Flat,
			Missing: row.Missing,
			Net:     Float(row.Net),
		})
	}
	return resp
}

// NewNamesResponse lists every factor
func NewNamesResponse() NamesResponse {
	var resp NamesResponse
	for _, n := range factors.AllNames() {
		resp.Factors = append(resp.Factors, FactorName{Name: string(n), Slug: n.Slug()})
	}
	return resp
}

func tables(field string, payloads map[string]TablePayload) (map[string]*frame.Table, error) {
	out := make(map[string]*frame.Table, len(payloads))
	for key, p := range payloads {
		t, err := p.Table()
		if err != nil {
			return nil, fmt.Errorf("%s[%q]: %w", field, key, err)
		}
		out[key] = t
	}
	return out, nil
}

func parseIndex(cells []string) ([]time.Time, error) {
	index := make([]time.Time, len(cells))
	for i, c := range cells {
		d, err := cio.ParseDate(c)
		if err != nil {
			return nil, fmt.Errorf("%w: index %d %q", cio.ErrBadDate, i, c)
		}
		index[i] = d
	}
	return index, nil
}

func formatIndex(index []time.Time) []string {
	out := make([]string, len(index))
	for i, d := range index {
		out[i] = cio.FormatDate(d)
	}
	return out
}

func toFloats(values []float64) []Float {
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}

func fromFloats(values []Float) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
