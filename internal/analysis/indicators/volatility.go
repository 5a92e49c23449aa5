// Package indicators provides the volatility measures used by the detectors.
package indicators

import (
	"fmt"

	apperrors "smc-trader/internal/errors"
	"smc-trader/internal/models"
)

// ATR calculates the Average True Range.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR_%d", a.period)
}

func (a *ATR) Period() int {
	return a.period
}

// Calculate returns the Wilder-smoothed ATR series. Values before period-1 are zero.
func (a *ATR) Calculate(candles []models.Candle) ([]float64, error) {
	if a.period <= 0 {
		return nil, apperrors.NewValidationError("atr.period", a.period, "must be positive")
	}
	if len(candles) < a.period+1 {
		return nil, apperrors.Wrapf(apperrors.ErrInsufficientData, "atr(%d) needs %d candles, got %d", a.period, a.period+1, len(candles))
	}

	n := len(candles)
	result := make([]float64, n)
	tr := make([]float64, n)

	// First TR is just high - low
	tr[0] = candles[0].High - candles[0].Low

	for i := 1; i < n; i++ {
		tr[i] = TrueRange(candles[i], candles[i-1])
	}

	// First ATR is SMA of TR
	result[a.period-1] = mean(tr[:a.period])

	for i := a.period; i < n; i++ {
		result[i] = (result[i-1]*float64(a.period-1) + tr[i]) / float64(a.period)
	}

	return result, nil
}

// Last returns the most recent ATR value, or FallbackATR when the series cannot
// be computed or is zero.
func (a *ATR) Last(candles []models.Candle) float64 {
	values, err := a.Calculate(candles)
	if err != nil {
		return LocalATR(candles, len(candles)-1, a.period)
	}
	if v := values[len(values)-1]; v > 0 {
		return v
	}
	return FallbackATR
}

// LocalATR averages the true range over the window of up to `window` candles
// ending at end (inclusive). Index 0 has no previous close and is skipped.
func LocalATR(candles []models.Candle, end, window int) float64 {
	if end >= len(candles) {
		end = len(candles) - 1
	}
	if window < 1 {
		window = 1
	}
	start := end - window + 1
	if start < 1 {
		start = 1
	}

	var sum float64
	count := 0
	for i := start; i <= end; i++ {
		sum += TrueRange(candles[i], candles[i-1])
		count++
	}
	if count == 0 || sum <= 0 {
		return FallbackATR
	}
	return sum / float64(count)
}
