package smc

import (
	"fmt"

	"smc-trader/internal/analysis"
	"smc-trader/internal/models"
)

// structureState is the accumulator threaded through the structure fold.
type structureState struct {
	lastTrend  analysis.Direction // empty until the first break
	highCursor int                // highs[:highCursor] formed before the current index
	lowCursor  int
	brokenHigh int // cursor value of the last swing high already broken, with BreakOnce
	brokenLow  int
}

// DetectStructure walks the candles from index 1 and emits a break for every
// close beyond the most recent swing formed before that candle, so a run of closes
// above one swing high yields one break per candle. A break that reverses the
// previous break direction is a CHoCH; anything else, including the first break,
// is a BOS.
//
// ConfirmSwings additionally requires the swing high to exceed the one before it
// (higher high), mirrored for lows. BreakOnce lets each swing level break a single
// time and then waits for a newer swing.
//
// Within one candle the bullish side is evaluated before the bearish side.
func DetectStructure(candles []models.Candle, highs, lows []SwingPoint, settings analysis.StructureSettings) []analysis.StructureBreak {
	breaks := []analysis.StructureBreak{}
	st := structureState{}

	for i := 1; i < len(candles); i++ {
		var emitted []analysis.StructureBreak
		st, emitted = stepStructure(st, candles, i, highs, lows, settings)
		breaks = append(breaks, emitted...)
	}

	return breaks
}

func stepStructure(st structureState, candles []models.Candle, i int, highs, lows []SwingPoint, settings analysis.StructureSettings) (structureState, []analysis.StructureBreak) {
	confirm := settings.ConfirmSwings
	for st.highCursor < len(highs) && highs[st.highCursor].Index < i {
		st.highCursor++
	}
	for st.lowCursor < len(lows) && lows[st.lowCursor].Index < i {
		st.lowCursor++
	}

	var out []analysis.StructureBreak
	c := candles[i]

	if st.highCursor > 0 && !(settings.BreakOnce && st.brokenHigh == st.highCursor) {
		last := highs[st.highCursor-1]
		qualified := !confirm || (st.highCursor > 1 && last.Price > highs[st.highCursor-2].Price)
		if qualified && c.Close > last.Price {
			out = append(out, newBreak(st.lastTrend, analysis.Bullish, i, c, last.Price))
			st.lastTrend = analysis.Bullish
			st.brokenHigh = st.highCursor
		}
	}

	if st.lowCursor > 0 && !(settings.BreakOnce && st.brokenLow == st.lowCursor) {
		last := lows[st.lowCursor-1]
		qualified := !confirm || (st.lowCursor > 1 && last.Price < lows[st.lowCursor-2].Price)
		if qualified && c.Close < last.Price {
			out = append(out, newBreak(st.lastTrend, analysis.Bearish, i, c, last.Price))
			st.lastTrend = analysis.Bearish
			st.brokenLow = st.lowCursor
		}
	}

	return st, out
}

func newBreak(lastTrend, dir analysis.Direction, i int, c models.Candle, level float64) analysis.StructureBreak {
	kind := analysis.BreakBOS
	if lastTrend != "" && lastTrend != dir {
		kind = analysis.BreakCHoCH
	}
	return analysis.StructureBreak{
		ID:          fmt.Sprintf("%s_%s_%d", kind, shortDir(dir), i),
		Kind:        kind,
		Direction:   dir,
		Time:        c.Time,
		Price:       c.Close,
		BrokenLevel: level,
		Index:       i,
	}
}

// ClassifyTrend looks at the last `window` breaks: bullish when bullish breaks
// outnumber bearish ones by more than one, bearish symmetrically, else ranging.
func ClassifyTrend(breaks []analysis.StructureBreak, window int) analysis.Trend {
	if len(breaks) == 0 || window < 1 {
		return analysis.TrendRanging
	}
	recent := breaks
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	bullish, bearish := 0, 0
	for _, b := range recent {
		switch b.Direction {
		case analysis.Bullish:
			bullish++
		case analysis.Bearish:
			bearish++
		}
	}

	switch {
	case bullish > bearish+1:
		return analysis.TrendBullish
	case bearish > bullish+1:
		return analysis.TrendBearish
	default:
		return analysis.TrendRanging
	}
}

func shortDir(d analysis.Direction) string {
	if d == analysis.Bearish {
		return "bear"
	}
	return "bull"
}
