// Package config provides configuration management for the analysis application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	"smc-trader/internal/analysis"
	apperrors "smc-trader/internal/errors"
	"smc-trader/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Detection analysis.DetectionSettings `mapstructure:"detection"`
	Logging   logging.LogConfig          `mapstructure:"logging"`
	Store     StoreConfig                `mapstructure:"store"`
	UI        UIConfig                   `mapstructure:"ui"`
}

// StoreConfig holds candle cache configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
	Precision    int32  `mapstructure:"precision"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/smc-trader"
	}
	return filepath.Join(home, ".config", "smc-trader")
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Detection: analysis.DefaultSettings(),
		Logging:   logging.DefaultLogConfig(),
		Store: StoreConfig{
			Path: filepath.Join(DefaultConfigDir(), "candles.db"),
		},
		UI: UIConfig{
			ColorEnabled: true,
			TimeFormat:   "2006-01-02 15:04",
			Precision:    2,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing config.toml
// is replaced by a template and the defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(cfg)
}

// setDefaults registers the defaults so partially filled files keep them.
func setDefaults(v *viper.Viper, cfg *Config) {
	d := cfg.Detection
	v.SetDefault("detection.order_blocks.enabled", d.OrderBlocks.Enabled)
	v.SetDefault("detection.order_blocks.min_impulse_multiplier", d.OrderBlocks.MinImpulseMultiplier)
	v.SetDefault("detection.order_blocks.max_age", d.OrderBlocks.MaxAge)
	v.SetDefault("detection.order_blocks.strict_body", d.OrderBlocks.StrictBody)
	v.SetDefault("detection.order_blocks.atr_window", d.OrderBlocks.ATRWindow)
	v.SetDefault("detection.fvg.enabled", d.FVG.Enabled)
	v.SetDefault("detection.fvg.min_gap_percent", d.FVG.MinGapPercent)
	v.SetDefault("detection.fvg.show_filled", d.FVG.ShowFilled)
	v.SetDefault("detection.structure.enabled", d.Structure.Enabled)
	v.SetDefault("detection.structure.swing_lookback", d.Structure.SwingLookback)
	v.SetDefault("detection.structure.confirm_swings", d.Structure.ConfirmSwings)
	v.SetDefault("detection.structure.break_once", d.Structure.BreakOnce)
	v.SetDefault("detection.structure.trend_window", d.Structure.TrendWindow)
	v.SetDefault("detection.liquidity.enabled", d.Liquidity.Enabled)
	v.SetDefault("detection.liquidity.tolerance", d.Liquidity.Tolerance)
	v.SetDefault("detection.liquidity.min_touches", d.Liquidity.MinTouches)
	v.SetDefault("detection.signals.min_rr", d.Signals.MinRR)
	v.SetDefault("detection.signals.min_confidence", d.Signals.MinConfidence)
	v.SetDefault("detection.signals.proximity_percent", d.Signals.ProximityPercent)
	v.SetDefault("detection.signals.at_zone_percent", d.Signals.AtZonePercent)
	v.SetDefault("detection.signals.stop_buffer", string(d.Signals.StopBuffer))
	v.SetDefault("detection.signals.max_signals", d.Signals.MaxSignals)
	v.SetDefault("detection.signals.atr_period", d.Signals.ATRPeriod)
	v.SetDefault("detection.signals.recent_breaks", d.Signals.RecentBreaks)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.file_path", cfg.Logging.FilePath)
	v.SetDefault("logging.max_size", cfg.Logging.MaxSize)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age", cfg.Logging.MaxAge)

	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("ui.color_enabled", cfg.UI.ColorEnabled)
	v.SetDefault("ui.time_format", cfg.UI.TimeFormat)
	v.SetDefault("ui.precision", cfg.UI.Precision)
}

// applyEnvOverrides applies SMC_* variables. Malformed numbers are reported
// rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SMC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SMC_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SMC_MIN_CONFIDENCE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.NewValidationError("SMC_MIN_CONFIDENCE", v, "must be an integer")
		}
		cfg.Detection.Signals.MinConfidence = n
	}
	if v := os.Getenv("SMC_MIN_RR"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return apperrors.NewValidationError("SMC_MIN_RR", v, "must be a number")
		}
		cfg.Detection.Signals.MinRR = f
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Detection.Validate(); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", c.Logging.Level)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if c.UI.Precision < 0 || c.UI.Precision > 8 {
		return fmt.Errorf("ui.precision must be between 0 and 8")
	}
	return nil
}
