package smc

import (
	"fmt"
	"math"

	"smc-trader/internal/analysis"
	"smc-trader/internal/models"
)

// liquidityLevel accumulates touches of one approximate price level.
type liquidityLevel struct {
	key     string
	side    analysis.LiquiditySide
	price   float64
	touches []int // candle indexes, ascending
}

// LiquidityDetector clusters equal highs and equal lows into liquidity pools.
type LiquidityDetector struct {
	settings analysis.LiquiditySettings
}

// NewLiquidityDetector creates a liquidity detector.
func NewLiquidityDetector(settings analysis.LiquiditySettings) *LiquidityDetector {
	return &LiquidityDetector{settings: settings}
}

func (d *LiquidityDetector) Name() string {
	return "LiquidityDetector"
}

// Detect returns live (unswept) zones with at least MinTouches touches, in the
// order their levels were first seen.
func (d *LiquidityDetector) Detect(candles []models.Candle) []analysis.LiquidityZone {
	zones := []analysis.LiquidityZone{}
	for _, zone := range d.DetectAll(candles) {
		if !zone.Swept {
			zones = append(zones, zone)
		}
	}
	return zones
}

// DetectAll returns every qualifying zone, swept ones included.
func (d *LiquidityDetector) DetectAll(candles []models.Candle) []analysis.LiquidityZone {
	zones := []analysis.LiquidityZone{}

	for _, level := range d.buildLevels(candles) {
		if len(level.touches) < d.settings.MinTouches {
			continue
		}
		first := level.touches[0]
		last := level.touches[len(level.touches)-1]
		zones = append(zones, analysis.LiquidityZone{
			ID:        "liq_" + level.key,
			Side:      level.side,
			Price:     level.price,
			StartTime: candles[first].Time,
			EndTime:   candles[last].Time,
			Touches:   len(level.touches),
			Swept:     isSwept(candles, level, last+1),
		})
	}

	return zones
}

// buildLevels tests each high against sell-side levels and each low against
// buy-side levels. Every level within tolerance records a touch; a price that
// matches nothing seeds a new level.
func (d *LiquidityDetector) buildLevels(candles []models.Candle) []*liquidityLevel {
	var levels []*liquidityLevel

	for i, c := range candles {
		if !d.touch(levels, analysis.SellSide, c.High, i) {
			levels = append(levels, &liquidityLevel{
				key:     fmt.Sprintf("h_%d", i),
				side:    analysis.SellSide,
				price:   c.High,
				touches: []int{i},
			})
		}
		if !d.touch(levels, analysis.BuySide, c.Low, i) {
			levels = append(levels, &liquidityLevel{
				key:     fmt.Sprintf("l_%d", i),
				side:    analysis.BuySide,
				price:   c.Low,
				touches: []int{i},
			})
		}
	}

	return levels
}

func (d *LiquidityDetector) touch(levels []*liquidityLevel, side analysis.LiquiditySide, price float64, index int) bool {
	matched := false
	for _, level := range levels {
		if level.side != side || level.price <= 0 {
			continue
		}
		if math.Abs(price-level.price)/level.price*100 <= d.settings.Tolerance {
			level.touches = append(level.touches, index)
			matched = true
		}
	}
	return matched
}

// isSwept reports a later high above a sell-side level or a later low below a
// buy-side level.
func isSwept(candles []models.Candle, level *liquidityLevel, start int) bool {
	for j := start; j < len(candles); j++ {
		if level.side == analysis.SellSide && candles[j].High > level.price {
			return true
		}
		if level.side == analysis.BuySide && candles[j].Low < level.price {
			return true
		}
	}
	return false
}
