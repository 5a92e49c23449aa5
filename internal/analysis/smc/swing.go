// Package smc detects Smart Money Concept structure in candle series: swing
// points, BOS/CHoCH breaks, order blocks, fair value gaps and liquidity pools.
package smc

import (
	"smc-trader/internal/models"
)

// SwingKind tells whether a swing point is a local high or low.
type SwingKind string

const (
	SwingHigh SwingKind = "high"
	SwingLow  SwingKind = "low"
)

// SwingPoint is a local extreme confirmed by `lookback` candles on both sides.
type SwingPoint struct {
	Index int
	Price float64
	Kind  SwingKind
}

// FindSwings returns swing highs and lows ordered by index. Candle i is a swing
// high when its high is strictly above every high within lookback positions on
// either side; swing lows use the mirrored strict rule.
func FindSwings(candles []models.Candle, lookback int) ([]SwingPoint, []SwingPoint) {
	var highs, lows []SwingPoint
	n := len(candles)
	if lookback < 1 || n < 2*lookback+1 {
		return highs, lows
	}

	for i := lookback; i < n-lookback; i++ {
		isHigh, isLow := true, true
		for j := 1; j <= lookback; j++ {
			if candles[i].High <= candles[i-j].High || candles[i].High <= candles[i+j].High {
				isHigh = false
			}
			if candles[i].Low >= candles[i-j].Low || candles[i].Low >= candles[i+j].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, SwingPoint{Index: i, Price: candles[i].High, Kind: SwingHigh})
		}
		if isLow {
			lows = append(lows, SwingPoint{Index: i, Price: candles[i].Low, Kind: SwingLow})
		}
	}

	return highs, lows
}
