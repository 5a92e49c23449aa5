package signals

import (
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"smc-trader/internal/analysis"
	"smc-trader/internal/models"
)

const eps = 1e-9

func lastCandle(price float64) []models.Candle {
	return []models.Candle{
		{Time: 1700000000, Open: price, High: price, Low: price, Close: price},
		{Time: 1700003600, Open: price, High: price, Low: price, Close: price},
	}
}

// bullishSetup is price 100 sitting on a strong bullish block at 97-99 after a
// bullish CHoCH in a bullish trend.
func bullishSetup() *analysis.Analysis {
	a := analysis.Empty()
	a.Trend = analysis.TrendBullish
	a.ATR = 2
	a.CurrentPrice = 100
	a.OrderBlocks = []analysis.OrderBlock{{
		ID:        "ob_bull_40",
		Direction: analysis.Bullish,
		Top:       99,
		Bottom:    97,
		Status:    analysis.BlockActive,
		Strength:  3,
		Index:     40,
	}}
	a.Structure = []analysis.StructureBreak{
		{ID: "bos_bear_20", Kind: analysis.BreakBOS, Direction: analysis.Bearish, Index: 20},
		{ID: "choch_bull_30", Kind: analysis.BreakCHoCH, Direction: analysis.Bullish, Index: 30},
	}
	return a
}

func TestGenerateLongAtStrongBlock(t *testing.T) {
	g := NewGenerator(analysis.DefaultSettings().Signals, zerolog.Nop())
	signals := g.Generate(lastCandle(100), bullishSetup())

	if len(signals) != 1 {
		t.Fatalf("expected one signal, got %d", len(signals))
	}
	s := signals[0]
	if s.Direction != analysis.Long {
		t.Errorf("expected LONG, got %s", s.Direction)
	}
	if s.Confidence < 85 {
		t.Errorf("expected confidence >= 85, got %d (%v)", s.Confidence, s.Reasons)
	}
	if s.Entry != 99 {
		t.Errorf("expected entry 99, got %v", s.Entry)
	}
	wantStop := 97 - 0.2*2
	if math.Abs(s.StopLoss-wantStop) > eps {
		t.Errorf("expected stop %v, got %v", wantStop, s.StopLoss)
	}
	risk := s.Entry - s.StopLoss
	if math.Abs(s.TakeProfit3-(s.Entry+3*risk)) > eps {
		t.Errorf("expected TP3 3x risk above entry, got %v", s.TakeProfit3)
	}
	if math.Abs(s.TakeProfit1-(s.Entry+risk)) > eps || math.Abs(s.TakeProfit2-(s.Entry+2*risk)) > eps {
		t.Errorf("unexpected TP1/TP2: %v %v", s.TakeProfit1, s.TakeProfit2)
	}
	if s.RiskReward != 3 {
		t.Errorf("expected R:R 3, got %v", s.RiskReward)
	}
	if s.ID != "long_ob_bull_40" || s.Timestamp != 1700003600 {
		t.Errorf("unexpected identity: %s %d", s.ID, s.Timestamp)
	}

	wantReasons := []string{"Bullish Trend", "CHoCH Confirmed", "Strong OB (3/5)", "Price at OB"}
	if strings.Join(s.Reasons, "|") != strings.Join(wantReasons, "|") {
		t.Errorf("reasons = %v, want %v", s.Reasons, wantReasons)
	}

	if len(s.Patterns) == 0 {
		t.Fatal("expected supporting patterns")
	}
	if ob, ok := s.Patterns[0].(analysis.OrderBlock); !ok || ob.ID != "ob_bull_40" {
		t.Errorf("first supporting pattern should be the block, got %#v", s.Patterns[0])
	}
	counts := CountByKind(s.Patterns)
	if counts[analysis.KindCHoCH] != 1 || counts[analysis.KindBOS] != 0 {
		t.Errorf("only bullish breaks should support a LONG: %v", counts)
	}
}

func TestGenerateZoneStopBuffer(t *testing.T) {
	settings := analysis.DefaultSettings().Signals
	settings.StopBuffer = analysis.StopBufferZone

	signals := NewGenerator(settings, zerolog.Nop()).Generate(lastCandle(100), bullishSetup())
	if len(signals) != 1 {
		t.Fatalf("expected one signal, got %d", len(signals))
	}
	if want := 97 - 0.1*2; math.Abs(signals[0].StopLoss-want) > eps {
		t.Errorf("expected stop %v, got %v", want, signals[0].StopLoss)
	}
}

func TestGenerateFilters(t *testing.T) {
	settings := analysis.DefaultSettings().Signals

	t.Run("below confidence", func(t *testing.T) {
		a := bullishSetup()
		a.Trend = analysis.TrendRanging
		if got := NewGenerator(settings, zerolog.Nop()).Generate(lastCandle(100), a); len(got) != 0 {
			t.Errorf("60-point setup must not pass 85: %+v", got)
		}
	})

	t.Run("too far from block", func(t *testing.T) {
		a := bullishSetup()
		a.OrderBlocks[0].Top = 98
		a.OrderBlocks[0].Bottom = 96
		if got := NewGenerator(settings, zerolog.Nop()).Generate(lastCandle(100), a); len(got) != 0 {
			t.Errorf("2%% away exceeds proximity: %+v", got)
		}
	})

	t.Run("block above price", func(t *testing.T) {
		a := bullishSetup()
		a.OrderBlocks[0].Top = 101
		a.OrderBlocks[0].Bottom = 99.5
		if got := NewGenerator(settings, zerolog.Nop()).Generate(lastCandle(100), a); len(got) != 0 {
			t.Errorf("bullish block above price cannot be a LONG entry: %+v", got)
		}
	})

	t.Run("inactive block", func(t *testing.T) {
		a := bullishSetup()
		a.OrderBlocks[0].Status = analysis.BlockMitigated
		if got := NewGenerator(settings, zerolog.Nop()).Generate(lastCandle(100), a); len(got) != 0 {
			t.Errorf("mitigated block must be ignored: %+v", got)
		}
	})

	t.Run("trend gate", func(t *testing.T) {
		a := bullishSetup()
		a.Trend = analysis.TrendBearish
		a.Structure = a.Structure[:1]
		s := settings
		s.MinConfidence = 0
		if got := NewGenerator(s, zerolog.Nop()).Generate(lastCandle(100), a); len(got) != 0 {
			t.Errorf("LONG against a bearish trend needs a bullish CHoCH: %+v", got)
		}
	})

	t.Run("minimum risk reward", func(t *testing.T) {
		s := settings
		s.MinRR = 3.5
		if got := NewGenerator(s, zerolog.Nop()).Generate(lastCandle(100), bullishSetup()); len(got) != 0 {
			t.Errorf("R:R 3 must not pass a 3.5 minimum: %+v", got)
		}
	})
}

func TestGenerateSortedByConfidence(t *testing.T) {
	a := analysis.Empty()
	a.Trend = analysis.TrendRanging
	a.ATR = 2
	a.OrderBlocks = []analysis.OrderBlock{
		{ID: "ob_bull_10", Direction: analysis.Bullish, Top: 99, Bottom: 97, Status: analysis.BlockActive, Strength: 3},
		{ID: "ob_bear_12", Direction: analysis.Bearish, Top: 103, Bottom: 101, Status: analysis.BlockActive, Strength: 5, HasFVG: true},
	}
	a.Structure = []analysis.StructureBreak{
		{Kind: analysis.BreakCHoCH, Direction: analysis.Bullish, Index: 10},
		{Kind: analysis.BreakCHoCH, Direction: analysis.Bearish, Index: 12},
	}

	settings := analysis.DefaultSettings().Signals
	settings.MinConfidence = 0

	signals := NewGenerator(settings, zerolog.Nop()).Generate(lastCandle(100), a)
	if len(signals) != 2 {
		t.Fatalf("expected two signals, got %d", len(signals))
	}
	if !sort.SliceIsSorted(signals, func(i, j int) bool { return signals[i].Confidence > signals[j].Confidence }) {
		t.Errorf("signals not sorted by confidence: %d, %d", signals[0].Confidence, signals[1].Confidence)
	}
	if signals[0].Direction != analysis.Short || signals[0].Confidence != 75 || signals[1].Confidence != 60 {
		t.Errorf("unexpected order: %s %d, %s %d",
			signals[0].Direction, signals[0].Confidence, signals[1].Direction, signals[1].Confidence)
	}

	short := signals[0]
	if short.Entry != 101 || short.StopLoss <= 103 || short.TakeProfit3 >= short.Entry {
		t.Errorf("short levels inverted: %+v", short)
	}

	settings.MaxSignals = 1
	if got := NewGenerator(settings, zerolog.Nop()).Generate(lastCandle(100), a); len(got) != 1 || got[0].Direction != analysis.Short {
		t.Errorf("MaxSignals should keep the best signal only: %+v", got)
	}
}

func TestGenerateEmptyInputs(t *testing.T) {
	g := NewGenerator(analysis.DefaultSettings().Signals, zerolog.Nop())

	if got := g.Generate(nil, bullishSetup()); got == nil || len(got) != 0 {
		t.Errorf("no candles: expected empty slice, got %#v", got)
	}
	if got := g.Generate(lastCandle(100), nil); got == nil || len(got) != 0 {
		t.Errorf("nil analysis: expected empty slice, got %#v", got)
	}
	if got := g.Generate(lastCandle(100), analysis.Empty()); len(got) != 0 {
		t.Errorf("empty analysis: expected no signals, got %+v", got)
	}
}

func TestDescribeCoversEveryPattern(t *testing.T) {
	patterns := []analysis.Pattern{
		analysis.OrderBlock{Direction: analysis.Bullish, Top: 2, Bottom: 1, Strength: 3},
		analysis.FairValueGap{Direction: analysis.Bearish, Top: 2, Bottom: 1, FillPercentage: 40},
		analysis.StructureBreak{Kind: analysis.BreakCHoCH, Direction: analysis.Bullish, BrokenLevel: 5},
		analysis.LiquidityZone{Side: analysis.SellSide, Price: 3, Touches: 2},
	}
	prefixes := []string{"OB bullish", "FVG bearish", "CHOCH bullish", "sell-side liquidity"}

	for i, p := range patterns {
		if got := Describe(p); !strings.HasPrefix(got, prefixes[i]) {
			t.Errorf("Describe(%T) = %q, want prefix %q", p, got, prefixes[i])
		}
	}

	counts := CountByKind(patterns)
	for _, kind := range []analysis.PatternKind{analysis.KindOrderBlock, analysis.KindFVG, analysis.KindCHoCH, analysis.KindLiquidity} {
		if counts[kind] != 1 {
			t.Errorf("expected one %s, got %d", kind, counts[kind])
		}
	}
	if got := FormatKindCounts(patterns); got != "1 ob, 1 fvg, 1 choch, 1 liquidity" {
		t.Errorf("FormatKindCounts = %q", got)
	}
	if got := FormatKindCounts(nil); got != "-" {
		t.Errorf("FormatKindCounts(nil) = %q, want -", got)
	}
}

func TestDescribePointerPatterns(t *testing.T) {
	ob := analysis.OrderBlock{Direction: analysis.Bearish, Top: 2, Bottom: 1, Strength: 4}
	gap := analysis.FairValueGap{Direction: analysis.Bullish, Top: 2, Bottom: 1}
	brk := analysis.StructureBreak{Kind: analysis.BreakBOS, Direction: analysis.Bearish, BrokenLevel: 5}
	liq := analysis.LiquidityZone{Side: analysis.BuySide, Price: 3, Touches: 3}

	pointers := []analysis.Pattern{&ob, &gap, &brk, &liq}
	values := []analysis.Pattern{ob, gap, brk, liq}
	for i := range pointers {
		if got, want := Describe(pointers[i]), Describe(values[i]); got != want {
			t.Errorf("Describe(%T) = %q, want %q", pointers[i], got, want)
		}
	}

	var missing *analysis.OrderBlock
	if got := Describe(missing); got != "*analysis.OrderBlock" {
		t.Errorf("nil pointer: got %q", got)
	}
	if got := Describe(nil); got != "unknown pattern" {
		t.Errorf("nil pattern: got %q", got)
	}
}

func TestFormatSignal(t *testing.T) {
	signals := NewGenerator(analysis.DefaultSettings().Signals, zerolog.Nop()).Generate(lastCandle(100), bullishSetup())
	if len(signals) != 1 {
		t.Fatal("expected a signal")
	}
	text := FormatSignal(signals[0])
	for _, want := range []string{"LONG", "confidence 85%", "Entry: 99.0000", "Stop:  96.6000", "TP3:   106.2000", "Basis: 1 ob, 1 choch"} {
		if !strings.Contains(text, want) {
			t.Errorf("formatted signal missing %q:\n%s", want, text)
		}
	}
}
