package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"smc-trader/internal/analysis"
	"smc-trader/internal/analysis/engine"
	"smc-trader/internal/analysis/signals"
	"smc-trader/internal/logging"
	"smc-trader/internal/models"
	"smc-trader/internal/store"
	"smc-trader/pkg/utils"
)

// addAnalysisCommands adds analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newSignalsCmd(app))
}

// source describes where the candles of one run came from.
type source struct {
	file      string
	symbol    string
	timeframe string
	limit     int
}

func (s source) label() string {
	if s.file != "" {
		return s.file
	}
	return fmt.Sprintf("%s %s", s.symbol, s.timeframe)
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "CSV or JSON candle file")
	cmd.Flags().StringP("symbol", "s", "", "symbol in the candle cache")
	cmd.Flags().StringP("timeframe", "t", "1h", "timeframe in the candle cache")
	cmd.Flags().IntP("limit", "n", 500, "most recent candles to analyze from the cache (0 = all)")
	cmd.Flags().Int("min-confidence", -1, "override the minimum signal confidence")
}

func readSource(cmd *cobra.Command) (source, error) {
	var s source
	s.file, _ = cmd.Flags().GetString("file")
	s.symbol, _ = cmd.Flags().GetString("symbol")
	s.timeframe, _ = cmd.Flags().GetString("timeframe")
	s.limit, _ = cmd.Flags().GetInt("limit")
	s.symbol = strings.ToUpper(s.symbol)

	if s.file == "" && s.symbol == "" {
		return s, fmt.Errorf("either --file or --symbol is required")
	}
	if s.file != "" && s.symbol != "" {
		return s, fmt.Errorf("--file and --symbol are mutually exclusive")
	}
	return s, nil
}

// loadCandles returns candles from the file or the cache.
func (a *App) loadCandles(ctx context.Context, src source) ([]models.Candle, error) {
	if src.file != "" {
		return LoadCandlesFile(src.file)
	}
	st, err := a.OpenStore()
	if err != nil {
		return nil, err
	}
	return st.GetCandles(ctx, src.symbol, src.timeframe, store.CandleFilter{Limit: src.limit})
}

// runAnalysis loads candles and runs the pipeline, honoring --min-confidence.
func (a *App) runAnalysis(cmd *cobra.Command) (source, []models.Candle, *analysis.Analysis, error) {
	src, err := readSource(cmd)
	if err != nil {
		return src, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	candles, err := a.loadCandles(ctx, src)
	if err != nil {
		return src, nil, nil, err
	}

	eng := a.Engine
	if minConf, _ := cmd.Flags().GetInt("min-confidence"); minConf >= 0 {
		settings := eng.Settings()
		settings.Signals.MinConfidence = minConf
		eng, err = engine.New(settings, engine.WithLogger(a.Logger))
		if err != nil {
			return src, nil, nil, err
		}
	}

	logger := logging.WithOperation(logging.WithSymbol(a.Logger, src.label()), "analyze")
	if src.file == "" {
		logger = logging.WithTimeframe(logger, src.timeframe)
	}
	start := time.Now()
	result, err := eng.Analyze(logging.WithLogger(ctx, logger), candles)
	if err != nil {
		return src, nil, nil, err
	}
	logging.LogAnalysis(logger, src.symbol, src.timeframe, len(candles), string(result.Trend), len(result.Signals), time.Since(start))

	return src, candles, result, nil
}

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Full Smart Money Concept analysis",
		Long: `Detect Smart Money Concept structure and print the result:
- Trend from recent breaks of structure
- Active order blocks
- Unfilled fair value gaps
- Breaks of structure (BOS) and changes of character (CHoCH)
- Unswept liquidity pools
- Scored trade signals`,
		Example: `  smc analyze --file btc_1h.csv
  smc analyze --symbol BTCUSDT --timeframe 4h
  smc analyze -f eth.json --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			src, candles, result, err := app.runAnalysis(cmd)
			if err != nil {
				output.Error("Analysis failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			breaks, _ := cmd.Flags().GetInt("breaks")
			renderAnalysis(output, app, src, candles, result, breaks)
			return nil
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().Int("breaks", 8, "structure breaks to list")
	return cmd
}

func newSignalsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Print trade signals only",
		Long:  "Run the full analysis and print each signal as a copy-friendly text block.",
		Example: `  smc signals --file btc_1h.csv
  smc signals --symbol BTCUSDT --min-confidence 70`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			src, _, result, err := app.runAnalysis(cmd)
			if err != nil {
				output.Error("Analysis failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result.Signals)
			}

			if len(result.Signals) == 0 {
				output.Warning("No signals for %s (trend %s)", src.label(), result.Trend)
				return nil
			}
			for i, s := range result.Signals {
				if i > 0 {
					output.Println()
				}
				output.Printf("%s", signals.FormatSignal(s))
			}
			return nil
		},
	}
	addSourceFlags(cmd)
	return cmd
}

func renderAnalysis(output *Output, app *App, src source, candles []models.Candle, a *analysis.Analysis, maxBreaks int) {
	precision := app.Config.UI.Precision
	timeFormat := app.Config.UI.TimeFormat
	price := func(v float64) string { return utils.FormatPrice(v, precision) }

	header := []string{
		fmt.Sprintf("Candles:  %d", len(candles)),
		fmt.Sprintf("Price:    %s", price(a.CurrentPrice)),
		fmt.Sprintf("Trend:    %s", output.TrendText(a.Trend)),
		fmt.Sprintf("ATR:      %s", price(a.ATR)),
	}
	if len(candles) > 0 {
		header = append(header, fmt.Sprintf("Range:    %s → %s",
			utils.FormatUnix(candles[0].Time, timeFormat),
			utils.FormatUnix(candles[len(candles)-1].Time, timeFormat)))
	}
	output.Box("SMC Analysis: "+src.label(), header)
	output.Println()

	output.Bold("Order Blocks (%d active)", len(a.OrderBlocks))
	if len(a.OrderBlocks) > 0 {
		table := NewTable(output, "Direction", "Zone", "Distance", "Strength", "FVG", "Formed")
		for _, ob := range a.OrderBlocks {
			table.AddRow(
				output.DirectionText(ob.Direction),
				formatZone(ob.Bottom, ob.Top, precision),
				formatDistance(a.CurrentPrice, ob.Bottom, ob.Top),
				strengthBar(ob.Strength),
				yesNo(ob.HasFVG),
				utils.FormatUnix(ob.StartTime, timeFormat),
			)
		}
		table.Render()
	}
	output.Println()

	output.Bold("Fair Value Gaps (%d)", len(a.FVGs))
	if len(a.FVGs) > 0 {
		table := NewTable(output, "Direction", "Gap", "Filled", "Formed")
		for _, f := range a.FVGs {
			table.AddRow(
				output.DirectionText(f.Direction),
				formatZone(f.Bottom, f.Top, precision),
				fmt.Sprintf("%.0f%%", f.FillPercentage),
				utils.FormatUnix(f.Time, timeFormat),
			)
		}
		table.Render()
	}
	output.Println()

	breaks := a.Structure
	if maxBreaks > 0 && len(breaks) > maxBreaks {
		breaks = breaks[len(breaks)-maxBreaks:]
	}
	output.Bold("Market Structure (%d breaks, last %d)", len(a.Structure), len(breaks))
	if len(breaks) > 0 {
		table := NewTable(output, "Type", "Direction", "Level", "Close", "Time")
		for _, b := range breaks {
			kind := strings.ToUpper(string(b.Kind))
			if b.Kind == analysis.BreakCHoCH {
				kind = output.Yellow(kind)
			}
			table.AddRow(
				kind,
				output.DirectionText(b.Direction),
				price(b.BrokenLevel),
				price(b.Price),
				utils.FormatUnix(b.Time, timeFormat),
			)
		}
		table.Render()
	}
	output.Println()

	output.Bold("Liquidity (%d unswept)", len(a.Liquidity))
	if len(a.Liquidity) > 0 {
		table := NewTable(output, "Side", "Price", "Touches", "Since")
		for _, l := range a.Liquidity {
			table.AddRow(
				string(l.Side),
				price(l.Price),
				fmt.Sprintf("%d", l.Touches),
				utils.FormatUnix(l.StartTime, timeFormat),
			)
		}
		table.Render()
	}
	output.Println()

	output.Bold("Signals (%d)", len(a.Signals))
	if len(a.Signals) == 0 {
		output.Dim("  No setup meets confidence %d%% and R:R %.1f",
			app.Engine.Settings().Signals.MinConfidence, app.Engine.Settings().Signals.MinRR)
		return
	}
	for _, s := range a.Signals {
		lines := []string{
			fmt.Sprintf("Entry:  %s", price(s.Entry)),
			fmt.Sprintf("Stop:   %s (%s)", output.Red(price(s.StopLoss)), utils.FormatPercent(utils.PercentChange(s.Entry, s.StopLoss))),
			fmt.Sprintf("TP1:    %s", output.Green(price(s.TakeProfit1))),
			fmt.Sprintf("TP2:    %s", output.Green(price(s.TakeProfit2))),
			fmt.Sprintf("TP3:    %s (%s)", output.Green(price(s.TakeProfit3)), utils.FormatPercent(utils.PercentChange(s.Entry, s.TakeProfit3))),
			fmt.Sprintf("R:R:    1:%.2f", s.RiskReward),
			"Why:    " + strings.Join(s.Reasons, ", "),
			"Basis:  " + signals.FormatKindCounts(s.Patterns),
		}
		for _, p := range s.Patterns {
			lines = append(lines, output.DimText("  · "+signals.Describe(p)))
		}
		output.Box(fmt.Sprintf("%s  %s", output.SideText(s.Direction), output.ConfidenceText(s.Confidence)), lines)
	}
}
