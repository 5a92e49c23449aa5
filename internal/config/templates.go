package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# SMC Trader Configuration

[detection.order_blocks]
enabled = true
# Impulse body must exceed this multiple of the local ATR
min_impulse_multiplier = 1.5
# Candles an unmitigated block stays live before it expires
max_age = 100
# Also require the impulse body to exceed 1.5x the block candle body
strict_body = true
# Trailing candles used for the local ATR
atr_window = 14

[detection.fvg]
enabled = true
# Minimum gap size as percent of price
min_gap_percent = 0.05
# Include gaps that price already filled
show_filled = false

[detection.structure]
enabled = true
# Candles on each side that confirm a swing point
swing_lookback = 5
# Require higher highs / lower lows before a break counts
confirm_swings = false
# Let each swing level break only once (default: every close beyond it is a break)
break_once = false
# Recent breaks used to classify the trend
trend_window = 5

[detection.liquidity]
enabled = true
# Percent distance for two highs (or lows) to count as equal
tolerance = 0.1
min_touches = 2

[detection.signals]
min_rr = 3.0
min_confidence = 85
# Maximum distance from price to the order block, percent
proximity_percent = 1.5
# Distance counted as "price at OB", percent
at_zone_percent = 1.0
# Stop placement: "atr" (0.2 x ATR) or "zone" (10% of zone height)
stop_buffer = "atr"
max_signals = 3
atr_period = 14
recent_breaks = 10

[logging]
# debug, info, warn, error
level = "info"
console = true
file = true
max_size = 100
max_backups = 7
max_age = 30

[store]
# path = "/home/user/.config/smc-trader/candles.db"

[ui]
color_enabled = true
time_format = "2006-01-02 15:04"
# Decimal places for prices
precision = 2
`

// createTemplateConfig writes the template. Defaults stay in effect for this run.
func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
