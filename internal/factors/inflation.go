package factors

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/sawpanic/cfactor/internal/frame"
)

// UnexpectedInflation is inflation minus its trailing window-period mean.
// The first window-1 observations are NaN.
func UnexpectedInflation(inflation *frame.Series, window int) (*frame.Series, error) {
	w, err := inflation.Rolling(window)
	if err != nil {
		return nil, fmt.Errorf("unexpected inflation: %w", err)
	}
	surprise, err := inflation.Sub(w.Mean())
	if err != nil {
		return nil, fmt.Errorf("unexpected inflation: %w", err)
	}
	return surprise, nil
}

// Beta is the sample covariance (n-1) of returns and inflation surprises over the
// population variance (n) of the surprises, so it is n/(n-1) times the OLS slope.
// A constant surprise window yields ±Inf or NaN; callers own that check.
func Beta(returns, surprise []float64) float64 {
	return stat.Covariance(returns, surprise, nil) / stat.PopVariance(surprise, nil)
}

// InflationBetaSignal regresses each asset's monthly returns on unexpected inflation
// over every trailing betaWindow-period window.
func InflationBetaSignal(monthly *frame.Table, inflation *frame.Series, betaWindow, trendWindow int) (*frame.Table, error) {
	surprise, err := UnexpectedInflation(inflation, trendWindow)
	if err != nil {
		return nil, fmt.Errorf("inflation beta: %w", err)
	}
	betas, err := frame.RollingPairwise(monthly, surprise, betaWindow, Beta)
	if err != nil {
		return nil, fmt.Errorf("inflation beta: %w", err)
	}
	return betas, nil
}
