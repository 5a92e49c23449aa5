// Package engine runs the full Smart Money Concept pipeline: detectors fan out
// over the same read-only candles, then the signal generator runs on their output.
package engine

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"smc-trader/internal/analysis"
	"smc-trader/internal/analysis/indicators"
	"smc-trader/internal/analysis/signals"
	"smc-trader/internal/analysis/smc"
	apperrors "smc-trader/internal/errors"
	"smc-trader/internal/logging"
	"smc-trader/internal/models"
)

// Engine holds the settings for one or more analysis runs. It keeps no state
// between runs.
type Engine struct {
	settings analysis.DetectionSettings
	logger   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for detector and signal events.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine after validating settings.
func New(settings analysis.DetectionSettings, opts ...Option) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, apperrors.Wrap(err, "detection settings")
	}
	e := &Engine{
		settings: settings,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Settings returns the settings the engine was built with.
func (e *Engine) Settings() analysis.DetectionSettings {
	return e.settings
}

// Analyze validates the candles and runs every enabled detector, then derives the
// trend and signals. Fewer than two candles yield an empty analysis. A logger
// stored in ctx with logging.WithLogger takes precedence over the engine's own.
func (e *Engine) Analyze(ctx context.Context, candles []models.Candle) (*analysis.Analysis, error) {
	logger := logging.FromContextOr(ctx, e.logger)

	if err := models.ValidateCandles(candles); err != nil {
		return nil, err
	}

	result := analysis.Empty()
	if len(candles) > 0 {
		result.CurrentPrice = candles[len(candles)-1].Close
	}
	if len(candles) < 2 {
		return result, nil
	}

	s := e.settings
	g, ctx := errgroup.WithContext(ctx)

	if s.OrderBlocks.Enabled {
		g.Go(func() error {
			result.OrderBlocks = smc.NewOrderBlockDetector(s.OrderBlocks).Detect(candles)
			return ctx.Err()
		})
	}
	if s.FVG.Enabled {
		g.Go(func() error {
			result.FVGs = smc.NewFVGDetector(s.FVG).Detect(candles)
			return ctx.Err()
		})
	}
	if s.Structure.Enabled {
		g.Go(func() error {
			highs, lows := smc.FindSwings(candles, s.Structure.SwingLookback)
			result.Structure = smc.DetectStructure(candles, highs, lows, s.Structure)
			return ctx.Err()
		})
	}
	if s.Liquidity.Enabled {
		g.Go(func() error {
			result.Liquidity = smc.NewLiquidityDetector(s.Liquidity).Detect(candles)
			return ctx.Err()
		})
	}
	g.Go(func() error {
		result.ATR = indicators.NewATR(s.Signals.ATRPeriod).Last(candles)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Trend = smc.ClassifyTrend(result.Structure, s.Structure.TrendWindow)

	logger.Debug().
		Int("candles", len(candles)).
		Int("order_blocks", len(result.OrderBlocks)).
		Int("fvgs", len(result.FVGs)).
		Int("structure_breaks", len(result.Structure)).
		Int("liquidity_zones", len(result.Liquidity)).
		Str("trend", string(result.Trend)).
		Float64("atr", result.ATR).
		Msg("Detection complete")

	result.Signals = signals.NewGenerator(s.Signals, logger).Generate(candles, result)
	for _, sig := range result.Signals {
		logging.LogSignal(logger, sig.ID, string(sig.Direction), sig.Entry, sig.StopLoss, sig.Confidence)
	}

	return result, nil
}
