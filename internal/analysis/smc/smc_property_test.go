package smc

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"smc-trader/internal/analysis"
	"smc-trader/internal/models"
)

const seriesLength = 80

// buildSeries turns percent moves and wick sizes into a valid candle series.
func buildSeries(moves, wicks []float64) []models.Candle {
	candles := make([]models.Candle, len(moves))
	price := 100.0
	for i, m := range moves {
		open := price
		close := open * (1 + m/100)
		w := wicks[i%len(wicks)]
		candles[i] = models.Candle{
			Time:  int64(i) * 60,
			Open:  open,
			High:  math.Max(open, close) * (1 + w/100),
			Low:   math.Min(open, close) * (1 - w/100),
			Close: close,
		}
		price = close
	}
	return candles
}

func seriesGens() []gopter.Gen {
	return []gopter.Gen{
		gen.SliceOfN(seriesLength, gen.Float64Range(-4, 4)),
		gen.SliceOfN(seriesLength, gen.Float64Range(0, 1.5)),
	}
}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	return gopter.NewProperties(parameters)
}

// Property: every order block has top >= bottom, strength in 0..5, and Detect
// returns only blocks whose zone was never revisited.
func TestProperty_OrderBlocks(t *testing.T) {
	properties := newProperties()
	settings := analysis.DefaultSettings().OrderBlocks
	settings.StrictBody = false

	gens := seriesGens()
	properties.Property("order block zones are well formed and active blocks unmitigated", prop.ForAll(
		func(moves, wicks []float64) bool {
			candles := buildSeries(moves, wicks)
			d := NewOrderBlockDetector(settings)

			for _, ob := range d.DetectAll(candles) {
				if ob.Top < ob.Bottom || ob.Strength < 0 || ob.Strength > 5 {
					t.Logf("malformed block: %+v", ob)
					return false
				}
			}

			for _, ob := range d.Detect(candles) {
				if ob.Status != analysis.BlockActive {
					return false
				}
				for j := ob.Index + 1; j < len(candles); j++ {
					if ob.Direction == analysis.Bullish && candles[j].Low <= ob.Bottom {
						t.Logf("active bullish block %s revisited at %d", ob.ID, j)
						return false
					}
					if ob.Direction == analysis.Bearish && candles[j].High >= ob.Top {
						t.Logf("active bearish block %s revisited at %d", ob.ID, j)
						return false
					}
				}
			}
			return true
		},
		gens[0], gens[1],
	))

	properties.TestingRun(t)
}

// Property: extending the series never lowers a gap's fill percentage and never
// un-fills a gap.
func TestProperty_FVGFillMonotonic(t *testing.T) {
	properties := newProperties()
	settings := analysis.DefaultSettings().FVG

	gens := seriesGens()
	properties.Property("fill percentage is monotonic in series length", prop.ForAll(
		func(moves, wicks []float64, cut int) bool {
			candles := buildSeries(moves, wicks)
			d := NewFVGDetector(settings)

			prefix := make(map[string]analysis.FairValueGap)
			for _, g := range d.DetectAll(candles[:cut]) {
				prefix[g.ID] = g
			}
			for _, g := range d.DetectAll(candles) {
				if g.Top <= g.Bottom {
					return false
				}
				before, ok := prefix[g.ID]
				if !ok {
					continue
				}
				if g.FillPercentage+1e-9 < before.FillPercentage || (before.Filled && !g.Filled) {
					t.Logf("gap %s went from %v to %v", g.ID, before.FillPercentage, g.FillPercentage)
					return false
				}
			}
			return true
		},
		gens[0], gens[1], gen.IntRange(3, seriesLength),
	))

	properties.TestingRun(t)
}

// Property: live liquidity zones meet the touch minimum and are unswept.
func TestProperty_LiquidityZones(t *testing.T) {
	properties := newProperties()
	settings := analysis.DefaultSettings().Liquidity
	settings.Tolerance = 0.5

	gens := seriesGens()
	properties.Property("live zones have enough touches and are not swept", prop.ForAll(
		func(moves, wicks []float64) bool {
			candles := buildSeries(moves, wicks)
			for _, z := range NewLiquidityDetector(settings).Detect(candles) {
				if z.Touches < settings.MinTouches || z.Swept || z.EndTime < z.StartTime {
					t.Logf("bad zone: %+v", z)
					return false
				}
			}
			return true
		},
		gens[0], gens[1],
	))

	properties.TestingRun(t)
}

// Property: breaks are emitted in candle order and every break closes beyond
// the level it broke.
func TestProperty_StructureBreaks(t *testing.T) {
	properties := newProperties()

	gens := seriesGens()
	properties.Property("breaks are ordered and close beyond the broken level", prop.ForAll(
		func(moves, wicks []float64, lookback int, confirm, once bool) bool {
			candles := buildSeries(moves, wicks)
			highs, lows := FindSwings(candles, lookback)
			settings := analysis.StructureSettings{ConfirmSwings: confirm, BreakOnce: once}
			breaks := DetectStructure(candles, highs, lows, settings)

			for i, b := range breaks {
				if i > 0 && b.Index < breaks[i-1].Index {
					return false
				}
				if b.Direction == analysis.Bullish && !(b.Price > b.BrokenLevel) {
					return false
				}
				if b.Direction == analysis.Bearish && !(b.Price < b.BrokenLevel) {
					return false
				}
				if i == 0 && b.Kind != analysis.BreakBOS {
					t.Logf("first break must be a BOS: %+v", b)
					return false
				}
			}

			trend := ClassifyTrend(breaks, 5)
			return trend == analysis.TrendBullish || trend == analysis.TrendBearish || trend == analysis.TrendRanging
		},
		gens[0], gens[1], gen.IntRange(1, 6), gen.Bool(), gen.Bool(),
	))

	properties.TestingRun(t)
}
