package factors

import (
	"fmt"

	"github.com/sawpanic/cfactor/internal/frame"
)

// Futures tenor keys
const (
	TenorNear = "F1"
	TenorNext = "F2"
)

// CFTC commercial position keys
const (
	PositionLong  = "Commercial Long"
	PositionShort = "Commercial Short"
)

// Inputs are the six pre-aligned tables the calculator consumes.
// Tables that feed the same factor must share their date index and columns.
type Inputs struct {
	MonthlyReturns *frame.Table
	Futures        map[string]*frame.Table // TenorNear, TenorNext; one column per asset
	CFTC           map[string]*frame.Table // PositionLong, PositionShort; one column per asset
	DailyReturns   *frame.Table
	Inflation      *frame.Series // aligned to MonthlyReturns
	OpenInterest   *frame.Table
}

func (in Inputs) monthly() (*frame.Table, error) {
	if in.MonthlyReturns == nil {
		return nil, fmt.Errorf("%w: monthly returns", ErrMissingInput)
	}
	return in.MonthlyReturns, nil
}

func (in Inputs) tenor(key string) (*frame.Table, error) {
	t, ok := in.Futures[key]
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingTenor, key)
	}
	return t, nil
}

func (in Inputs) position(key string) (*frame.Table, error) {
	t, ok := in.CFTC[key]
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingPosition, key)
	}
	return t, nil
}
