package smc

import (
	"fmt"
	"math"

	"smc-trader/internal/analysis"
	"smc-trader/internal/models"
)

// FVGDetector finds three-candle imbalances and tracks how far they were filled.
type FVGDetector struct {
	settings analysis.FVGSettings
}

// NewFVGDetector creates a fair value gap detector.
func NewFVGDetector(settings analysis.FVGSettings) *FVGDetector {
	return &FVGDetector{settings: settings}
}

func (d *FVGDetector) Name() string {
	return "FVGDetector"
}

// Detect returns unfilled gaps, plus filled ones when ShowFilled is set.
func (d *FVGDetector) Detect(candles []models.Candle) []analysis.FairValueGap {
	gaps := []analysis.FairValueGap{}
	for _, gap := range d.DetectAll(candles) {
		if d.settings.ShowFilled || !gap.Filled {
			gaps = append(gaps, gap)
		}
	}
	return gaps
}

// DetectAll returns every gap meeting the minimum size, filled or not.
func (d *FVGDetector) DetectAll(candles []models.Candle) []analysis.FairValueGap {
	gaps := []analysis.FairValueGap{}

	for i := 2; i < len(candles); i++ {
		c1 := candles[i-2]
		c3 := candles[i]

		// Bullish FVG: candle 3 low above candle 1 high
		if c3.Low > c1.High && gapPercent(c3.Low-c1.High, c1.High) >= d.settings.MinGapPercent {
			gap := analysis.FairValueGap{
				ID:        fmt.Sprintf("fvg_bull_%d", i),
				Direction: analysis.Bullish,
				Time:      candles[i-1].Time,
				Top:       c3.Low,
				Bottom:    c1.High,
				Index:     i,
			}
			gap.Filled, gap.FillPercentage = fillState(candles, gap, i+1)
			gaps = append(gaps, gap)
		}

		// Bearish FVG: candle 3 high below candle 1 low
		if c3.High < c1.Low && gapPercent(c1.Low-c3.High, c1.Low) >= d.settings.MinGapPercent {
			gap := analysis.FairValueGap{
				ID:        fmt.Sprintf("fvg_bear_%d", i),
				Direction: analysis.Bearish,
				Time:      candles[i-1].Time,
				Top:       c1.Low,
				Bottom:    c3.High,
				Index:     i,
			}
			gap.Filled, gap.FillPercentage = fillState(candles, gap, i+1)
			gaps = append(gaps, gap)
		}
	}

	return gaps
}

func gapPercent(size, ref float64) float64 {
	if ref <= 0 {
		return 0
	}
	return size / ref * 100
}

// fillState scans from start. A bullish gap is filled once a low reaches its
// bottom, a bearish gap once a high reaches its top; otherwise the deepest
// retracement into the gap is reported as a percentage of the gap size.
func fillState(candles []models.Candle, gap analysis.FairValueGap, start int) (bool, float64) {
	size := gap.Top - gap.Bottom
	if size <= 0 {
		return false, 0
	}

	var deepest float64
	for j := start; j < len(candles); j++ {
		c := candles[j]
		if gap.Direction == analysis.Bullish {
			if c.Low <= gap.Bottom {
				return true, 100
			}
			deepest = math.Max(deepest, gap.Top-c.Low)
		} else {
			if c.High >= gap.Top {
				return true, 100
			}
			deepest = math.Max(deepest, c.High-gap.Bottom)
		}
	}

	return false, math.Min(100, deepest/size*100)
}
