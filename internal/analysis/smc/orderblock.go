package smc

import (
	"fmt"
	"math"

	"smc-trader/internal/analysis"
	"smc-trader/internal/analysis/indicators"
	"smc-trader/internal/models"
)

const (
	// fvgConfluenceWindow is how many candles either side of the impulse are
	// searched for a same-direction gap.
	fvgConfluenceWindow = 3

	// strictBodyRatio is the minimum impulse body relative to the prior body.
	strictBodyRatio = 1.5

	maxBlockStrength = 5
)

// OrderBlockDetector finds the last opposing candle before an impulsive move.
type OrderBlockDetector struct {
	settings analysis.OrderBlockSettings
}

// NewOrderBlockDetector creates an order block detector.
func NewOrderBlockDetector(settings analysis.OrderBlockSettings) *OrderBlockDetector {
	return &OrderBlockDetector{settings: settings}
}

func (d *OrderBlockDetector) Name() string {
	return "OrderBlockDetector"
}

// Detect returns the blocks that are still active at the last candle.
func (d *OrderBlockDetector) Detect(candles []models.Candle) []analysis.OrderBlock {
	active := []analysis.OrderBlock{}
	for _, block := range d.DetectAll(candles) {
		if block.Status == analysis.BlockActive {
			active = append(active, block)
		}
	}
	return active
}

// DetectAll returns every block with its resolved status, mitigated and expired
// ones included.
func (d *OrderBlockDetector) DetectAll(candles []models.Candle) []analysis.OrderBlock {
	blocks := []analysis.OrderBlock{}
	n := len(candles)

	for i := 2; i < n-1; i++ {
		prev := candles[i-1]
		curr := candles[i]
		atr := indicators.LocalATR(candles, i, d.settings.ATRWindow)
		body := curr.Body()

		if body <= d.settings.MinImpulseMultiplier*atr {
			continue
		}
		if d.settings.StrictBody && body <= strictBodyRatio*prev.Body() {
			continue
		}

		var dir analysis.Direction
		switch {
		case prev.IsBearish() && curr.IsBullish():
			dir = analysis.Bullish
		case prev.IsBullish() && curr.IsBearish():
			dir = analysis.Bearish
		default:
			continue
		}

		block := analysis.OrderBlock{
			ID:        fmt.Sprintf("ob_%s_%d", shortDir(dir), i),
			Direction: dir,
			StartTime: prev.Time,
			EndTime:   candles[minInt(i+d.settings.MaxAge, n-1)].Time,
			Top:       prev.High,
			Bottom:    prev.Low,
			Status:    analysis.BlockActive,
			Strength:  blockStrength(body, atr),
			HasFVG:    hasGapNear(candles, i, dir, fvgConfluenceWindow),
			Index:     i,
		}

		if isMitigated(candles, block, i+1) {
			block.Status = analysis.BlockMitigated
		} else if i+d.settings.MaxAge < n-1 {
			block.Status = analysis.BlockExpired
		}

		blocks = append(blocks, block)
	}

	return blocks
}

// isMitigated scans forward from start: a bullish block is mitigated by the first
// low at or below its bottom, a bearish block by the first high at or above its top.
func isMitigated(candles []models.Candle, block analysis.OrderBlock, start int) bool {
	for j := start; j < len(candles); j++ {
		if block.Direction == analysis.Bullish && candles[j].Low <= block.Bottom {
			return true
		}
		if block.Direction == analysis.Bearish && candles[j].High >= block.Top {
			return true
		}
	}
	return false
}

func blockStrength(body, atr float64) int {
	if atr <= 0 {
		atr = indicators.FallbackATR
	}
	s := math.Floor(body / atr)
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	if s > maxBlockStrength {
		return maxBlockStrength
	}
	return int(s)
}

// hasGapNear reports a three-candle gap in direction dir completing within
// window candles of index.
func hasGapNear(candles []models.Candle, index int, dir analysis.Direction, window int) bool {
	from := maxInt(2, index-window)
	to := minInt(len(candles)-1, index+window)
	for k := from; k <= to; k++ {
		c1, c3 := candles[k-2], candles[k]
		if dir == analysis.Bullish && c3.Low > c1.High {
			return true
		}
		if dir == analysis.Bearish && c3.High < c1.Low {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
