// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// FormatPrice formats a price with a fixed number of decimal places.
// Prices below 10 get at least four places so small quotes stay readable.
func FormatPrice(price float64, places int32) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "-"
	}
	if math.Abs(price) < 10 && places < 4 {
		places = 4
	}
	return decimal.NewFromFloat(price).StringFixed(places)
}

// RoundPrice rounds a price half away from zero to the given decimal places.
func RoundPrice(price float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(price).Round(places).Float64()
	return f
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return sign + decimal.NewFromFloat(value).StringFixed(2) + "%"
}

// PercentChange returns (to-from)/from as a percentage. A zero base yields zero.
func PercentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	pct, _ := decimal.NewFromFloat(to).Sub(decimal.NewFromFloat(from)).
		Div(decimal.NewFromFloat(from)).
		Mul(decimal.NewFromInt(100)).
		Float64()
	return pct
}

// FormatVolume formats volume in compact form.
func FormatVolume(volume float64) string {
	abs := math.Abs(volume)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", volume/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", volume/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", volume/1e3)
	}
	return fmt.Sprintf("%.0f", volume)
}

// FormatUnix formats a Unix timestamp in seconds as UTC using layout.
func FormatUnix(ts int64, layout string) string {
	if layout == "" {
		layout = time.RFC3339
	}
	return time.Unix(ts, 0).UTC().Format(layout)
}
