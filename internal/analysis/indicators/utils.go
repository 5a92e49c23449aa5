package indicators

import (
	"math"

	"smc-trader/internal/models"
)

// FallbackATR replaces an ATR that cannot be computed (empty window or zero range)
// so that callers never divide by zero.
const FallbackATR = 1.0

// mean calculates the arithmetic mean of a slice of float64.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// TrueRange calculates the classic true range for a candle.
func TrueRange(current, previous models.Candle) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)
	return math.Max(highLow, math.Max(highClose, lowClose))
}
