package signals

import (
	"fmt"
	"strings"

	"smc-trader/internal/analysis"
)

// Describe renders a one-line summary of a supporting pattern. Pointers to the
// pattern types are described like their values.
func Describe(p analysis.Pattern) string {
	switch v := p.(type) {
	case analysis.OrderBlock:
		return fmt.Sprintf("OB %s %.4f-%.4f strength %d/5", v.Direction, v.Bottom, v.Top, v.Strength)
	case analysis.FairValueGap:
		return fmt.Sprintf("FVG %s %.4f-%.4f filled %.0f%%", v.Direction, v.Bottom, v.Top, v.FillPercentage)
	case analysis.StructureBreak:
		return fmt.Sprintf("%s %s through %.4f", strings.ToUpper(string(v.Kind)), v.Direction, v.BrokenLevel)
	case analysis.LiquidityZone:
		return fmt.Sprintf("%s-side liquidity %.4f (%d touches)", v.Side, v.Price, v.Touches)
	case *analysis.OrderBlock:
		if v != nil {
			return Describe(*v)
		}
	case *analysis.FairValueGap:
		if v != nil {
			return Describe(*v)
		}
	case *analysis.StructureBreak:
		if v != nil {
			return Describe(*v)
		}
	case *analysis.LiquidityZone:
		if v != nil {
			return Describe(*v)
		}
	case nil:
		return "unknown pattern"
	}
	return fmt.Sprintf("%T", p)
}

// CountByKind tallies supporting patterns per kind.
func CountByKind(patterns []analysis.Pattern) map[analysis.PatternKind]int {
	counts := make(map[analysis.PatternKind]int)
	for _, p := range patterns {
		counts[p.PatternKind()]++
	}
	return counts
}

// kindOrder is the display order of pattern kinds.
var kindOrder = []analysis.PatternKind{
	analysis.KindOrderBlock,
	analysis.KindFVG,
	analysis.KindCHoCH,
	analysis.KindBOS,
	analysis.KindLiquidity,
}

// FormatKindCounts renders CountByKind as "1 ob, 2 fvg, 1 choch", skipping
// kinds with no patterns.
func FormatKindCounts(patterns []analysis.Pattern) string {
	counts := CountByKind(patterns)
	parts := make([]string, 0, len(kindOrder))
	for _, kind := range kindOrder {
		if n := counts[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, kind))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// FormatSignal renders a signal as a plain-text block suitable for copying.
func FormatSignal(s analysis.TradeSignal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  confidence %d%%  R:R 1:%.2f\n", s.Direction, s.Confidence, s.RiskReward)
	fmt.Fprintf(&b, "Entry: %.4f\n", s.Entry)
	fmt.Fprintf(&b, "Stop:  %.4f\n", s.StopLoss)
	fmt.Fprintf(&b, "TP1:   %.4f\n", s.TakeProfit1)
	fmt.Fprintf(&b, "TP2:   %.4f\n", s.TakeProfit2)
	fmt.Fprintf(&b, "TP3:   %.4f\n", s.TakeProfit3)
	if len(s.Reasons) > 0 {
		fmt.Fprintf(&b, "Reasons: %s\n", strings.Join(s.Reasons, ", "))
	}
	if len(s.Patterns) > 0 {
		fmt.Fprintf(&b, "Basis: %s\n", FormatKindCounts(s.Patterns))
	}
	return b.String()
}
