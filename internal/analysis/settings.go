package analysis

import (
	apperrors "smc-trader/internal/errors"
)

// StopBuffer selects how far beyond the zone the stop is placed.
type StopBuffer string

const (
	StopBufferATR  StopBuffer = "atr"  // 0.2 x ATR beyond the zone edge
	StopBufferZone StopBuffer = "zone" // 10% of the zone height beyond the edge
)

// DetectionSettings holds every detector toggle and threshold. It is passed in by
// the caller; nothing in the pipeline keeps settings globally.
type DetectionSettings struct {
	OrderBlocks OrderBlockSettings `mapstructure:"order_blocks" json:"orderBlocks"`
	FVG         FVGSettings        `mapstructure:"fvg" json:"fvg"`
	Structure   StructureSettings  `mapstructure:"structure" json:"structure"`
	Liquidity   LiquiditySettings  `mapstructure:"liquidity" json:"liquidity"`
	Signals     SignalSettings     `mapstructure:"signals" json:"signals"`
}

// OrderBlockSettings configures order block detection.
type OrderBlockSettings struct {
	Enabled              bool    `mapstructure:"enabled" json:"enabled"`
	MinImpulseMultiplier float64 `mapstructure:"min_impulse_multiplier" json:"minImpulseMultiplier"`
	MaxAge               int     `mapstructure:"max_age" json:"maxAge"`         // candles a block stays live
	StrictBody           bool    `mapstructure:"strict_body" json:"strictBody"` // impulse body > 1.5x prior body
	ATRWindow            int     `mapstructure:"atr_window" json:"atrWindow"`
}

// FVGSettings configures fair value gap detection.
type FVGSettings struct {
	Enabled       bool    `mapstructure:"enabled" json:"enabled"`
	MinGapPercent float64 `mapstructure:"min_gap_percent" json:"minGapPercent"`
	ShowFilled    bool    `mapstructure:"show_filled" json:"showFilled"`
}

// StructureSettings configures swing extraction and BOS/CHoCH detection.
type StructureSettings struct {
	Enabled       bool `mapstructure:"enabled" json:"enabled"`
	SwingLookback int  `mapstructure:"swing_lookback" json:"swingLookback"`
	ConfirmSwings bool `mapstructure:"confirm_swings" json:"confirmSwings"` // require higher high / lower low
	BreakOnce     bool `mapstructure:"break_once" json:"breakOnce"`         // each swing level breaks a single time
	TrendWindow   int  `mapstructure:"trend_window" json:"trendWindow"`
}

// LiquiditySettings configures liquidity pool detection.
type LiquiditySettings struct {
	Enabled    bool    `mapstructure:"enabled" json:"enabled"`
	Tolerance  float64 `mapstructure:"tolerance" json:"tolerance"` // percent
	MinTouches int     `mapstructure:"min_touches" json:"minTouches"`
}

// SignalSettings configures the signal synthesizer.
type SignalSettings struct {
	MinRR            float64    `mapstructure:"min_rr" json:"minRR"`
	MinConfidence    int        `mapstructure:"min_confidence" json:"minConfidence"`
	ProximityPercent float64    `mapstructure:"proximity_percent" json:"proximityPercent"`
	AtZonePercent    float64    `mapstructure:"at_zone_percent" json:"atZonePercent"`
	StopBuffer       StopBuffer `mapstructure:"stop_buffer" json:"stopBuffer"`
	MaxSignals       int        `mapstructure:"max_signals" json:"maxSignals"`
	ATRPeriod        int        `mapstructure:"atr_period" json:"atrPeriod"`
	RecentBreaks     int        `mapstructure:"recent_breaks" json:"recentBreaks"`
}

// DefaultSettings returns the default detection settings.
func DefaultSettings() DetectionSettings {
	return DetectionSettings{
		OrderBlocks: OrderBlockSettings{
			Enabled:              true,
			MinImpulseMultiplier: 1.5,
			MaxAge:               100,
			StrictBody:           true,
			ATRWindow:            14,
		},
		FVG: FVGSettings{
			Enabled:       true,
			MinGapPercent: 0.05,
			ShowFilled:    false,
		},
		Structure: StructureSettings{
			Enabled:       true,
			SwingLookback: 5,
			ConfirmSwings: false,
			BreakOnce:     false,
			TrendWindow:   5,
		},
		Liquidity: LiquiditySettings{
			Enabled:    true,
			Tolerance:  0.1,
			MinTouches: 2,
		},
		Signals: SignalSettings{
			MinRR:            3,
			MinConfidence:    85,
			ProximityPercent: 1.5,
			AtZonePercent:    1.0,
			StopBuffer:       StopBufferATR,
			MaxSignals:       3,
			ATRPeriod:        14,
			RecentBreaks:     10,
		},
	}
}

// Validate checks that every threshold is usable.
func (s DetectionSettings) Validate() error {
	if s.OrderBlocks.MinImpulseMultiplier < 0 {
		return apperrors.NewValidationError("order_blocks.min_impulse_multiplier", s.OrderBlocks.MinImpulseMultiplier, "must be non-negative")
	}
	if s.OrderBlocks.MaxAge < 1 {
		return apperrors.NewValidationError("order_blocks.max_age", s.OrderBlocks.MaxAge, "must be at least 1")
	}
	if s.OrderBlocks.ATRWindow < 1 {
		return apperrors.NewValidationError("order_blocks.atr_window", s.OrderBlocks.ATRWindow, "must be at least 1")
	}
	if s.FVG.MinGapPercent < 0 {
		return apperrors.NewValidationError("fvg.min_gap_percent", s.FVG.MinGapPercent, "must be non-negative")
	}
	if s.Structure.SwingLookback < 1 {
		return apperrors.NewValidationError("structure.swing_lookback", s.Structure.SwingLookback, "must be at least 1")
	}
	if s.Structure.TrendWindow < 1 {
		return apperrors.NewValidationError("structure.trend_window", s.Structure.TrendWindow, "must be at least 1")
	}
	if s.Liquidity.Tolerance < 0 {
		return apperrors.NewValidationError("liquidity.tolerance", s.Liquidity.Tolerance, "must be non-negative")
	}
	if s.Liquidity.MinTouches < 1 {
		return apperrors.NewValidationError("liquidity.min_touches", s.Liquidity.MinTouches, "must be at least 1")
	}
	if s.Signals.MinRR < 0 {
		return apperrors.NewValidationError("signals.min_rr", s.Signals.MinRR, "must be non-negative")
	}
	if s.Signals.MinConfidence < 0 || s.Signals.MinConfidence > 100 {
		return apperrors.NewValidationError("signals.min_confidence", s.Signals.MinConfidence, "must be between 0 and 100")
	}
	if s.Signals.ProximityPercent < 0 || s.Signals.AtZonePercent < 0 {
		return apperrors.NewValidationError("signals.proximity_percent", s.Signals.ProximityPercent, "must be non-negative")
	}
	if s.Signals.StopBuffer != StopBufferATR && s.Signals.StopBuffer != StopBufferZone {
		return apperrors.NewValidationError("signals.stop_buffer", s.Signals.StopBuffer, "must be 'atr' or 'zone'")
	}
	if s.Signals.MaxSignals < 1 {
		return apperrors.NewValidationError("signals.max_signals", s.Signals.MaxSignals, "must be at least 1")
	}
	if s.Signals.ATRPeriod < 1 {
		return apperrors.NewValidationError("signals.atr_period", s.Signals.ATRPeriod, "must be at least 1")
	}
	if s.Signals.RecentBreaks < 1 {
		return apperrors.NewValidationError("signals.recent_breaks", s.Signals.RecentBreaks, "must be at least 1")
	}
	return nil
}
