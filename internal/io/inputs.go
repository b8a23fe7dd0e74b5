package io

import (
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/cfactor/internal/factors"
	"github.com/sawpanic/cfactor/internal/frame"
)

// Default input file names inside an input directory
const (
	MonthlyReturnsFile = "monthly_returns.csv"
	FuturesNearFile    = "futures_f1.csv"
	FuturesNextFile    = "futures_f2.csv"
	CFTCLongFile       = "cftc_long.csv"
	CFTCShortFile      = "cftc_short.csv"
	DailyReturnsFile   = "daily_returns.csv"
	InflationFile      = "inflation.csv"
	OpenInterestFile   = "open_interest.csv"
)

// InputPaths locates the eight files that make up a calculator input
type InputPaths struct {
	MonthlyReturns string
	FuturesNear    string
	FuturesNext    string
	CFTCLong       string
	CFTCShort      string
	DailyReturns   string
	Inflation      string
	OpenInterest   string
}

// DirInputPaths returns the default file layout under dir
func DirInputPaths(dir string) InputPaths {
	return InputPaths{
		MonthlyReturns: filepath.Join(dir, MonthlyReturnsFile),
		FuturesNear:    filepath.Join(dir, FuturesNearFile),
		FuturesNext:    filepath.Join(dir, FuturesNextFile),
		CFTCLong:       filepath.Join(dir, CFTCLongFile),
		CFTCShort:      filepath.Join(dir, CFTCShortFile),
		DailyReturns:   filepath.Join(dir, DailyReturnsFile),
		Inflation:      filepath.Join(dir, InflationFile),
		OpenInterest:   filepath.Join(dir, OpenInterestFile),
	}
}

// LoadInputs reads every file in p into calculator inputs. The first failure aborts.
func LoadInputs(p InputPaths) (factors.Inputs, error) {
	var in factors.Inputs
	tables := []struct {
		path string
		dst  **frame.Table
	}{
		{p.MonthlyReturns, &in.MonthlyReturns},
		{p.DailyReturns, &in.DailyReturns},
		{p.OpenInterest, &in.OpenInterest},
	}
	for _, t := range tables {
		tbl, err := LoadTable(t.path)
		if err != nil {
			return factors.Inputs{}, err
		}
		*t.dst = tbl
	}

	in.Futures = make(map[string]*frame.Table, 2)
	in.CFTC = make(map[string]*frame.Table, 2)
	keyed := []struct {
		path string
		dst  map[string]*frame.Table
		key  string
	}{
		{p.FuturesNear, in.Futures, factors.TenorNear},
		{p.FuturesNext, in.Futures, factors.TenorNext},
		{p.CFTCLong, in.CFTC, factors.PositionLong},
		{p.CFTCShort, in.CFTC, factors.PositionShort},
	}
	for _, k := range keyed {
		tbl, err := LoadTable(k.path)
		if err != nil {
			return factors.Inputs{}, err
		}
		k.dst[k.key] = tbl
	}

	inflation, err := LoadSeries(p.Inflation)
	if err != nil {
		return factors.Inputs{}, err
	}
	in.Inflation = inflation

	log.Debug().
		Int("months", in.MonthlyReturns.Rows()).
		Int("days", in.DailyReturns.Rows()).
		Int("assets", in.MonthlyReturns.Cols()).
		Msg("Loaded calculator inputs")

	return in, nil
}
