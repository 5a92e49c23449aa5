package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"smc-trader/internal/logging"
	"smc-trader/internal/models"
	"smc-trader/internal/store"
	"smc-trader/pkg/utils"
)

// addDataCommands adds candle cache commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newSeriesCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import candles into the local cache",
		Long: `Load a CSV or JSON candle file, validate it and store it in the SQLite cache.

CSV files need a header with open, high, low, close and one of time,
timestamp or date. Volume is optional. Existing candles with the same
time are replaced.`,
		Example: `  smc import btc_1h.csv --symbol BTCUSDT --timeframe 1h
  smc import eurusd.json -s EURUSD -t 15m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			symbol, _ := cmd.Flags().GetString("symbol")
			timeframe, _ := cmd.Flags().GetString("timeframe")
			symbol = strings.ToUpper(symbol)
			if symbol == "" {
				return fmt.Errorf("--symbol is required")
			}

			candles, err := LoadCandlesFile(args[0])
			if err != nil {
				output.Error("Failed to read %s: %v", args[0], err)
				return err
			}
			if err := models.ValidateCandles(candles); err != nil {
				output.Error("Invalid candles in %s: %v", args[0], err)
				return err
			}

			st, err := app.OpenStore()
			if err != nil {
				return err
			}
			if err := st.SaveCandles(ctx, symbol, timeframe, candles); err != nil {
				output.Error("Failed to store candles: %v", err)
				return err
			}
			if err := st.SetLastImport(symbol, timeframe, time.Now()); err != nil {
				logger := logging.WithSymbol(app.Logger, symbol)
				logger.Warn().Err(err).Msg("Failed to record import time")
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":    symbol,
					"timeframe": timeframe,
					"imported":  len(candles),
				})
			}
			output.Success("✓ Imported %d candles for %s %s", len(candles), symbol, timeframe)
			return nil
		},
	}
	cmd.Flags().StringP("symbol", "s", "", "symbol to store the candles under")
	cmd.Flags().StringP("timeframe", "t", "1h", "timeframe of the candles")
	return cmd
}

func newSeriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "List cached candle series",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			st, err := app.OpenStore()
			if err != nil {
				return err
			}
			series, err := st.ListSeries(cmd.Context())
			if err != nil {
				output.Error("Failed to list series: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(series)
			}
			if len(series) == 0 {
				output.Warning("No cached candles. Use 'smc import' to add some.")
				return nil
			}

			timeFormat := app.Config.UI.TimeFormat
			table := NewTable(output, "Symbol", "Timeframe", "Candles", "First", "Last", "Imported")
			for _, s := range series {
				imported := "-"
				if t := st.GetLastImport(s.Symbol, s.Timeframe); !t.IsZero() {
					imported = t.Local().Format(timeFormat)
				}
				table.AddRow(
					s.Symbol,
					s.Timeframe,
					fmt.Sprintf("%d", s.Count),
					utils.FormatUnix(s.First, timeFormat),
					utils.FormatUnix(s.Last, timeFormat),
					imported,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <symbol> <timeframe>",
		Short: "Delete a cached series",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			st, err := app.OpenStore()
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(args[0])
			removed, err := st.DeleteSeries(cmd.Context(), symbol, args[1])
			if err != nil {
				output.Error("Failed to delete series: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]int64{"deleted": removed})
			}
			output.Success("✓ Deleted %d candles for %s %s", removed, symbol, args[1])
			return nil
		},
	})

	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <symbol>",
		Short: "Export cached candles to CSV",
		Args:  cobra.ExactArgs(1),
		Example: `  smc export BTCUSDT --timeframe 1h --output btc_1h.csv
  smc export BTCUSDT -t 4h > btc_4h.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])
			timeframe, _ := cmd.Flags().GetString("timeframe")
			outFile, _ := cmd.Flags().GetString("output")
			limit, _ := cmd.Flags().GetInt("limit")

			st, err := app.OpenStore()
			if err != nil {
				return err
			}
			candles, err := st.GetCandles(cmd.Context(), symbol, timeframe, store.CandleFilter{Limit: limit})
			if err != nil {
				output.Error("Failed to read candles: %v", err)
				return err
			}

			if outFile == "" {
				return WriteCSVCandles(cmd.OutOrStdout(), candles)
			}

			file, err := os.Create(outFile)
			if err != nil {
				output.Error("Failed to create file: %v", err)
				return err
			}
			defer file.Close()

			if err := WriteCSVCandles(file, candles); err != nil {
				return err
			}
			output.Success("✓ Exported %d candles to %s", len(candles), outFile)
			return nil
		},
	}
	cmd.Flags().StringP("timeframe", "t", "1h", "timeframe to export")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntP("limit", "n", 0, "most recent candles to export (0 = all)")
	return cmd
}
