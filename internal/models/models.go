// Package models provides domain models for the analysis application.
package models

import (
	"math"

	apperrors "smc-trader/internal/errors"
)

// Candle represents OHLCV data for one period. Time is in Unix seconds.
type Candle struct {
	Time   int64   `json:"time" csv:"time"`
	Open   float64 `json:"open" csv:"open"`
	High   float64 `json:"high" csv:"high"`
	Low    float64 `json:"low" csv:"low"`
	Close  float64 `json:"close" csv:"close"`
	Volume float64 `json:"volume,omitempty" csv:"volume"`
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open.
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Body returns the absolute open-close distance.
func (c Candle) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// Validate checks the OHLC invariant low <= min(open, close) <= max(open, close) <= high.
func (c Candle) Validate(index int) error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"open", c.Open}, {"high", c.High}, {"low", c.Low}, {"close", c.Close}, {"volume", c.Volume},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return apperrors.NewCandleError(index, f.name, f.value, "must be a finite number")
		}
	}
	if c.Low > c.High {
		return apperrors.NewCandleError(index, "low", c.Low, "low exceeds high")
	}
	if math.Min(c.Open, c.Close) < c.Low {
		return apperrors.NewCandleError(index, "low", c.Low, "body extends below low")
	}
	if math.Max(c.Open, c.Close) > c.High {
		return apperrors.NewCandleError(index, "high", c.High, "body extends above high")
	}
	return nil
}

// ValidateCandles checks every candle and that times are strictly increasing.
// The first offending index is reported.
func ValidateCandles(candles []Candle) error {
	for i, c := range candles {
		if err := c.Validate(i); err != nil {
			return err
		}
		if i > 0 && c.Time <= candles[i-1].Time {
			return apperrors.NewCandleError(i, "time", c.Time, "time is not strictly increasing")
		}
	}
	return nil
}
