package factors

import (
	"fmt"
	"math"

	"github.com/sawpanic/cfactor/internal/frame"
)

// Average is the equal-weight cross-sectional mean of monthly returns
func Average(monthly *frame.Table) *frame.Series {
	return monthly.RowMean().Rename(string(AVG))
}

// MomentumSignal is the trailing window-period return sum, lagged by lag periods
func MomentumSignal(monthly *frame.Table, window, lag int) (*frame.Table, error) {
	w, err := monthly.Rolling(window)
	if err != nil {
		return nil, fmt.Errorf("momentum: %w", err)
	}
	return w.Sum().Shift(lag), nil
}

// BasisSignal is (F2 - F1) / F1 per asset and date
func BasisSignal(near, next *frame.Table) (*frame.Table, error) {
	basis, err := frame.Combine(near, next, func(f1, f2 float64) float64 {
		return (f2 - f1) / f1
	})
	if err != nil {
		return nil, fmt.Errorf("basis: %w", err)
	}
	return basis, nil
}

// BasisMomentumSignal is the period-change of the next contract minus that of the near contract
func BasisMomentumSignal(near, next *frame.Table, period int) (*frame.Table, error) {
	nearChange, err := near.PctChange(period)
	if err != nil {
		return nil, fmt.Errorf("basis momentum: %w", err)
	}
	nextChange, err := next.PctChange(period)
	if err != nil {
		return nil, fmt.Errorf("basis momentum: %w", err)
	}
	bm, err := frame.Combine(nextChange, nearChange, func(f2, f1 float64) float64 {
		return f2 - f1
	})
	if err != nil {
		return nil, fmt.Errorf("basis momentum: %w", err)
	}
	return bm, nil
}

// HedgingPressureSignal is (long - short) / (long + short) of commercial positions
func HedgingPressureSignal(long, short *frame.Table) (*frame.Table, error) {
	hp, err := frame.Combine(long, short, func(l, s float64) float64 {
		return (l - s) / (l + s)
	})
	if err != nil {
		return nil, fmt.Errorf("hedging pressure: %w", err)
	}
	return hp, nil
}

// ValueSignal is the negated trailing window-period return sum (long-horizon reversal)
func ValueSignal(monthly *frame.Table, window int) (*frame.Table, error) {
	w, err := monthly.Rolling(window)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	return w.Sum().Neg(), nil
}

// SkewnessSignal is the trailing sample skewness of monthly returns
func SkewnessSignal(monthly *frame.Table, window int) (*frame.Table, error) {
	w, err := monthly.Rolling(window)
	if err != nil {
		return nil, fmt.Errorf("skewness: %w", err)
	}
	return w.Skew(), nil
}

// VolatilitySignal is the trailing sample standard deviation of daily returns scaled by sqrt(periods)
func VolatilitySignal(daily *frame.Table, window, periods int) (*frame.Table, error) {
	w, err := daily.Rolling(window)
	if err != nil {
		return nil, fmt.Errorf("volatility: %w", err)
	}
	return w.Std().Scale(math.Sqrt(float64(periods))), nil
}
