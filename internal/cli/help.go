package cli

import (
	"github.com/spf13/cobra"
)

// addHelpCommands adds help and documentation commands.
func addHelpCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newExamplesCmd(app))
}

func newExamplesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "One-off Analysis",
					commands: []string{
						"smc analyze --file btc_1h.csv         # Full report from a file",
						"smc signals --file btc_1h.csv         # Signals only, copy-friendly",
						"smc analyze -f btc_1h.csv --json      # Machine-readable result",
					},
				},
				{
					title: "Candle Cache",
					commands: []string{
						"smc import btc_1h.csv -s BTCUSDT -t 1h  # Store candles locally",
						"smc series                              # List cached series",
						"smc analyze -s BTCUSDT -t 1h -n 300     # Analyze the last 300 candles",
						"smc export BTCUSDT -t 1h -o out.csv     # Write the series back to CSV",
					},
				},
				{
					title: "Tuning",
					commands: []string{
						"smc config show                        # Current detection settings",
						"smc signals -s BTCUSDT --min-confidence 70",
						"SMC_MIN_CONFIDENCE=75 smc signals -f eth.json",
					},
				},
			}

			if output.IsJSON() {
				out := make(map[string][]string, len(examples))
				for _, ex := range examples {
					out[ex.title] = ex.commands
				}
				return output.JSON(out)
			}

			output.Bold("Common Workflow Examples")
			output.Println()
			for _, ex := range examples {
				output.Info("%s", ex.title)
				for _, c := range ex.commands {
					output.Printf("  %s\n", c)
				}
				output.Println()
			}
			return nil
		},
	}
}
