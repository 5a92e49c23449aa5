// Package cli provides the command-line interface for the analysis application.
package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smc-trader/internal/analysis/engine"
	"smc-trader/internal/config"
	"smc-trader/internal/logging"
	"smc-trader/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Store     store.CandleStore
	Engine    *engine.Engine
}

// Execute runs the CLI under ctx and closes the candle store on every exit path,
// failed commands included.
func Execute(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	rootCmd, app := newRootCmd(cfg, logger)
	return execute(ctx, rootCmd, app)
}

func execute(ctx context.Context, rootCmd *cobra.Command, app *App) (err error) {
	defer func() {
		if cerr := app.Close(); err == nil {
			err = cerr
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// newRootCmd creates the root command for the CLI and the App its commands share.
func newRootCmd(cfg *config.Config, logger zerolog.Logger) (*cobra.Command, *App) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "smc",
		Short: "SMC Trader - Smart Money Concept chart analysis",
		Long: `SMC Trader detects Smart Money Concept structure in OHLCV candles.

It finds order blocks, fair value gaps, breaks of structure, changes of
character and liquidity pools, classifies the trend and emits scored
LONG/SHORT signals with entry, stop and three targets.

Candles come from a CSV/JSON file or from the local SQLite cache
filled with 'smc import'.

Use 'smc examples' to see common workflows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("config"); dir != "" && dir != app.ConfigDir {
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.ConfigDir = dir
				app.Logger = logging.NewLoggerWithConfig(loaded.Logging)
			}

			if !app.Config.UI.ColorEnabled {
				color.NoColor = true
			}

			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}

			eng, err := engine.New(app.Config.Detection, engine.WithLogger(app.Logger))
			if err != nil {
				return err
			}
			app.Engine = eng
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/smc-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addHelpCommands(rootCmd, app)

	return rootCmd, app
}

// OpenStore opens the candle cache on first use.
func (a *App) OpenStore() (store.CandleStore, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	s, err := store.NewSQLiteStore(a.Config.Store.Path, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening candle store %s: %w", a.Config.Store.Path, err)
	}
	a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("SQLite store initialized")
	a.Store = s
	return s, nil
}

// Close releases the candle cache if it was opened.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	return err
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("SMC Trader v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			dir := app.ConfigDir
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if output.IsJSON() {
				output.JSON(map[string]string{"path": dir})
			} else {
				output.Println(dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	d := cfg.Detection

	output.Bold("Order Blocks")
	output.Printf("  Enabled:          %v\n", d.OrderBlocks.Enabled)
	output.Printf("  Impulse x ATR:    %.2f\n", d.OrderBlocks.MinImpulseMultiplier)
	output.Printf("  Max Age:          %d candles\n", d.OrderBlocks.MaxAge)
	output.Printf("  Strict Body:      %v\n", d.OrderBlocks.StrictBody)
	output.Println()

	output.Bold("Fair Value Gaps")
	output.Printf("  Enabled:          %v\n", d.FVG.Enabled)
	output.Printf("  Min Gap:          %.2f%%\n", d.FVG.MinGapPercent)
	output.Printf("  Show Filled:      %v\n", d.FVG.ShowFilled)
	output.Println()

	output.Bold("Market Structure")
	output.Printf("  Enabled:          %v\n", d.Structure.Enabled)
	output.Printf("  Swing Lookback:   %d\n", d.Structure.SwingLookback)
	output.Printf("  Confirm Swings:   %v\n", d.Structure.ConfirmSwings)
	output.Printf("  Break Once:       %v\n", d.Structure.BreakOnce)
	output.Printf("  Trend Window:     %d breaks\n", d.Structure.TrendWindow)
	output.Println()

	output.Bold("Liquidity")
	output.Printf("  Enabled:          %v\n", d.Liquidity.Enabled)
	output.Printf("  Tolerance:        %.2f%%\n", d.Liquidity.Tolerance)
	output.Printf("  Min Touches:      %d\n", d.Liquidity.MinTouches)
	output.Println()

	output.Bold("Signals")
	output.Printf("  Min R:R:          %.1f\n", d.Signals.MinRR)
	output.Printf("  Min Confidence:   %d%%\n", d.Signals.MinConfidence)
	output.Printf("  Proximity:        %.2f%%\n", d.Signals.ProximityPercent)
	output.Printf("  Stop Buffer:      %s\n", d.Signals.StopBuffer)
	output.Printf("  Max Signals:      %d\n", d.Signals.MaxSignals)
	output.Println()

	output.Bold("Storage & Logging")
	output.Printf("  Database:         %s\n", cfg.Store.Path)
	output.Printf("  Log Level:        %s\n", cfg.Logging.Level)
	output.Printf("  Log File:         %s\n", cfg.Logging.FilePath)
}
