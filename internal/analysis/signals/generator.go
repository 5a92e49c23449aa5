// Package signals turns detected market structure into scored trade signals.
package signals

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"smc-trader/internal/analysis"
	"smc-trader/internal/models"
)

// Confidence weights. They add up to 100.
const (
	weightTrend    = 25
	weightCHoCH    = 25
	weightBOS      = 20
	weightStrongOB = 20
	weightValidOB  = 10
	weightFVG      = 15
	weightAtZone   = 15
	weightNearZone = 10
	maxConfidence  = 100
)

// Stop buffers beyond the zone edge.
const (
	atrStopFraction  = 0.2
	zoneStopFraction = 0.1
)

// Generator scores LONG and SHORT candidates against the current price.
type Generator struct {
	settings analysis.SignalSettings
	logger   zerolog.Logger
}

// NewGenerator creates a signal generator.
func NewGenerator(settings analysis.SignalSettings, logger zerolog.Logger) *Generator {
	return &Generator{
		settings: settings,
		logger:   logger,
	}
}

// candidate is a gated order block awaiting scoring.
type candidate struct {
	side     analysis.SignalDirection
	block    analysis.OrderBlock
	distance float64 // percent of current price
}

// Generate evaluates one LONG and one SHORT candidate and returns the signals
// passing the confidence and risk/reward filters, best first.
func (g *Generator) Generate(candles []models.Candle, a *analysis.Analysis) []analysis.TradeSignal {
	signals := []analysis.TradeSignal{}
	if len(candles) == 0 || a == nil {
		return signals
	}

	last := candles[len(candles)-1]
	price := last.Close

	for _, side := range []analysis.SignalDirection{analysis.Long, analysis.Short} {
		cand, ok := g.selectCandidate(side, price, a)
		if !ok {
			continue
		}
		signal, ok := g.buildSignal(cand, last, a)
		if !ok {
			continue
		}
		if signal.Confidence < g.settings.MinConfidence || signal.RiskReward < g.settings.MinRR {
			g.logger.Debug().
				Str("direction", string(side)).
				Int("confidence", signal.Confidence).
				Float64("risk_reward", signal.RiskReward).
				Msg("Signal below thresholds")
			continue
		}
		signals = append(signals, signal)
	}

	// Stable: LONG stays ahead of SHORT on equal confidence.
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Confidence > signals[j].Confidence
	})

	if len(signals) > g.settings.MaxSignals {
		signals = signals[:g.settings.MaxSignals]
	}
	return signals
}

// selectCandidate applies the trend gate and picks the active block nearest to
// price on the correct side: highest top at or below price for LONG, lowest
// bottom at or above price for SHORT.
func (g *Generator) selectCandidate(side analysis.SignalDirection, price float64, a *analysis.Analysis) (candidate, bool) {
	dir := side.Direction()
	if a.Trend.Opposes(dir) && latestBreak(a.Structure, dir, analysis.BreakCHoCH, g.settings.RecentBreaks) == nil {
		return candidate{}, false
	}
	if price <= 0 {
		return candidate{}, false
	}

	var best *analysis.OrderBlock
	for i := range a.OrderBlocks {
		ob := &a.OrderBlocks[i]
		if ob.Direction != dir || ob.Status != analysis.BlockActive {
			continue
		}
		switch side {
		case analysis.Long:
			if ob.Top <= price && (best == nil || ob.Top > best.Top) {
				best = ob
			}
		case analysis.Short:
			if ob.Bottom >= price && (best == nil || ob.Bottom < best.Bottom) {
				best = ob
			}
		}
	}
	if best == nil {
		return candidate{}, false
	}

	var distance float64
	if side == analysis.Long {
		distance = (price - best.Top) * 100 / price
	} else {
		distance = (best.Bottom - price) * 100 / price
	}
	if distance > g.settings.ProximityPercent {
		return candidate{}, false
	}

	return candidate{side: side, block: *best, distance: distance}, true
}

func (g *Generator) buildSignal(c candidate, last models.Candle, a *analysis.Analysis) (analysis.TradeSignal, bool) {
	ob := c.block
	height := ob.Top - ob.Bottom

	buffer := atrStopFraction * a.ATR
	if g.settings.StopBuffer == analysis.StopBufferZone {
		buffer = zoneStopFraction * height
	}

	var entry, stop float64
	sign := 1.0
	if c.side == analysis.Long {
		entry = ob.Top
		stop = ob.Bottom - buffer
	} else {
		entry = ob.Bottom
		stop = ob.Top + buffer
		sign = -1
	}

	risk := math.Abs(entry - stop)
	if risk <= 0 || math.IsNaN(risk) || math.IsInf(risk, 0) {
		return analysis.TradeSignal{}, false
	}

	tp1 := entry + sign*risk
	tp2 := entry + sign*2*risk
	tp3 := entry + sign*3*risk
	rr := math.Round(math.Abs(tp3-entry)/risk*100) / 100

	confidence, reasons := g.score(c, a)

	return analysis.TradeSignal{
		ID:          fmt.Sprintf("%s_%s", sideKey(c.side), ob.ID),
		Direction:   c.side,
		Entry:       entry,
		StopLoss:    stop,
		TakeProfit1: tp1,
		TakeProfit2: tp2,
		TakeProfit3: tp3,
		RiskReward:  rr,
		Confidence:  confidence,
		Reasons:     reasons,
		Timestamp:   last.Time,
		Patterns:    supportingPatterns(c, a),
	}, true
}

// score accumulates confidence and reasons in a fixed order: trend, structure
// confirmation, block strength, FVG confluence, proximity.
func (g *Generator) score(c candidate, a *analysis.Analysis) (int, []string) {
	dir := c.side.Direction()
	confidence := 0
	reasons := []string{}

	if a.Trend.Aligned(dir) {
		confidence += weightTrend
		if dir == analysis.Bullish {
			reasons = append(reasons, "Bullish Trend")
		} else {
			reasons = append(reasons, "Bearish Trend")
		}
	}

	if latestBreak(a.Structure, dir, analysis.BreakCHoCH, g.settings.RecentBreaks) != nil {
		confidence += weightCHoCH
		reasons = append(reasons, "CHoCH Confirmed")
	} else if latestBreak(a.Structure, dir, analysis.BreakBOS, g.settings.RecentBreaks) != nil {
		confidence += weightBOS
		reasons = append(reasons, "BOS Confirmed")
	}

	switch {
	case c.block.Strength >= 3:
		confidence += weightStrongOB
		reasons = append(reasons, fmt.Sprintf("Strong OB (%d/5)", c.block.Strength))
	case c.block.Strength >= 2:
		confidence += weightValidOB
		reasons = append(reasons, "Valid OB")
	}

	if c.block.HasFVG || gapInsideBlock(a.FVGs, c.block) {
		confidence += weightFVG
		reasons = append(reasons, "FVG Present")
	}

	if c.distance <= g.settings.AtZonePercent {
		confidence += weightAtZone
		reasons = append(reasons, "Price at OB")
	} else {
		confidence += weightNearZone
		reasons = append(reasons, "Price near OB")
	}

	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return confidence, reasons
}

// latestBreak returns the most recent break of the given kind and direction
// among the last `recent` breaks.
func latestBreak(breaks []analysis.StructureBreak, dir analysis.Direction, kind analysis.BreakKind, recent int) *analysis.StructureBreak {
	from := 0
	if recent > 0 && len(breaks) > recent {
		from = len(breaks) - recent
	}
	for i := len(breaks) - 1; i >= from; i-- {
		if breaks[i].Direction == dir && breaks[i].Kind == kind {
			return &breaks[i]
		}
	}
	return nil
}

func gapInsideBlock(gaps []analysis.FairValueGap, ob analysis.OrderBlock) bool {
	for _, f := range gaps {
		if f.Direction == ob.Direction && !f.Filled && f.Bottom >= ob.Bottom && f.Top <= ob.Top {
			return true
		}
	}
	return false
}

// supportingPatterns collects the chosen block plus every same-direction gap
// and break and the liquidity on the side the trade draws from.
func supportingPatterns(c candidate, a *analysis.Analysis) []analysis.Pattern {
	dir := c.side.Direction()
	wantSide := analysis.BuySide
	if c.side == analysis.Short {
		wantSide = analysis.SellSide
	}

	patterns := []analysis.Pattern{c.block}
	for _, f := range a.FVGs {
		if f.Direction == dir {
			patterns = append(patterns, f)
		}
	}
	for _, s := range a.Structure {
		if s.Direction == dir {
			patterns = append(patterns, s)
		}
	}
	for _, l := range a.Liquidity {
		if l.Side == wantSide {
			patterns = append(patterns, l)
		}
	}
	return patterns
}

func sideKey(side analysis.SignalDirection) string {
	if side == analysis.Short {
		return "short"
	}
	return "long"
}
